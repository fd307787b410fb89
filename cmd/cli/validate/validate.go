// Package validate implements the scenes subcommand that validates a scene
// manifest file and prints the result as JSON.
package validate

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/myrjola/scenevalidator/internal/ai"
	"github.com/myrjola/scenevalidator/internal/errors"
	"github.com/myrjola/scenevalidator/internal/logging"
	"github.com/myrjola/scenevalidator/internal/models"
	"github.com/myrjola/scenevalidator/internal/validator"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "validate",
	Title: "Validation operations",
}

// ErrValidationFailed signals that the validation completed with a fail
// verdict. The command uses it to exit non-zero for scripting.
var ErrValidationFailed = errors.NewSentinel("validation finished with status fail")

func init() {
	Scenes.Flags().String("input", "-", "path to the scene manifest JSON file, - for stdin")
	Scenes.Flags().String("output", "-", "path to write the validation result to, - for stdout")
	Scenes.Flags().String("level", "", "validation level: basic, standard, or thorough")
	Scenes.Flags().String("project", "", "override the project_id from the manifest")
}

// manifest is the expected input document. It has the same shape as the
// /api/validate request body.
type manifest struct {
	ProjectID       string         `json:"project_id"`
	Scenes          []models.Scene `json:"scenes"`
	ValidationLevel string         `json:"validation_level"`
}

var Scenes = &cobra.Command{
	Use:     "validate",
	GroupID: "validate",
	Short:   "Validate scene continuity",
	Long: `Validates the scene manifest for continuity and transition defects and
prints the result as JSON. Exits with status 1 when the validation fails.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		})))
		ctx := context.Background()

		var (
			inputPath, _   = cmd.Flags().GetString("input")
			outputPath, _  = cmd.Flags().GetString("output")
			levelFlag, _   = cmd.Flags().GetString("level")
			projectFlag, _ = cmd.Flags().GetString("project")
		)

		doc, err := readManifest(inputPath)
		if err != nil {
			return errors.Wrap(err, "read manifest")
		}
		if projectFlag != "" {
			doc.ProjectID = projectFlag
		}
		if doc.ProjectID == "" {
			return errors.New("missing project_id, set it in the manifest or with --project")
		}
		if levelFlag != "" {
			doc.ValidationLevel = levelFlag
		}
		var level models.Level
		if doc.ValidationLevel != "" {
			if level, err = models.ParseLevel(doc.ValidationLevel); err != nil {
				return errors.Wrap(err, "parse validation level", slog.String("level", doc.ValidationLevel))
			}
		}

		result := newValidator(logger).Validate(ctx, doc.ProjectID, doc.Scenes, level)

		if err = writeResult(outputPath, result); err != nil {
			return errors.Wrap(err, "write result")
		}
		if result.ValidationStatus == models.StatusFail {
			return ErrValidationFailed
		}
		return nil
	},
}

// newValidator builds the engine with the same environment configuration the
// server uses. The advisor is enabled when an API key is set.
func newValidator(logger *slog.Logger) *validator.Validator {
	var advisor ai.Advisor
	if apiKey := os.Getenv("SCENEVALIDATOR_ADVISOR_API_KEY"); apiKey != "" {
		model := os.Getenv("SCENEVALIDATOR_ADVISOR_MODEL")
		if model == "" {
			model = "gpt-4o-mini"
		}
		advisor = ai.NewClient(apiKey, model, os.Getenv("SCENEVALIDATOR_ADVISOR_BASE_URL"))
	}

	advisorTimeout := 120 * time.Second
	if value := os.Getenv("SCENEVALIDATOR_ADVISOR_TIMEOUT_SECONDS"); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			advisorTimeout = time.Duration(seconds) * time.Second
		}
	}

	return validator.New(logger, advisor, validator.Config{
		DefaultLevel:      models.LevelStandard,
		MaxScenesPerBatch: 50,
		AdvisorTimeout:    advisorTimeout,
	})
}

func readManifest(path string) (*manifest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		if data, err = io.ReadAll(os.Stdin); err != nil {
			return nil, errors.Wrap(err, "read stdin")
		}
	} else {
		if data, err = os.ReadFile(path); err != nil {
			return nil, errors.Wrap(err, "read file", slog.String("path", path))
		}
	}
	var doc manifest
	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "unmarshal manifest")
	}
	return &doc, nil
}

func writeResult(path string, result models.ValidationResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal result")
	}
	data = append(data, '\n')
	if path == "-" {
		if _, err = os.Stdout.Write(data); err != nil {
			return errors.Wrap(err, "write stdout")
		}
		return nil
	}
	if err = os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // result file is not sensitive.
		return errors.Wrap(err, "write file", slog.String("path", path))
	}
	return nil
}
