// Package repositories persists validation results so that past runs can be
// fetched by identifier or listed per project.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/myrjola/scenevalidator/internal/errors"
	"github.com/myrjola/scenevalidator/internal/models"
	"github.com/myrjola/scenevalidator/internal/sqlite"
)

// ErrNotFound signals that no validation result exists for the identifier.
var ErrNotFound = errors.NewSentinel("validation result not found")

type ValidationRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewValidationRepository(dbs *sqlite.Database, logger *slog.Logger) *ValidationRepository {
	return &ValidationRepository{
		dbs:    dbs,
		logger: logger.With("source", "ValidationRepository"),
	}
}

// Create stores the validation result. The result document is stored as JSON
// so that the history survives schema evolution of the result type.
func (r *ValidationRepository) Create(ctx context.Context, result models.ValidationResult) error {
	document, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "marshal validation result")
	}

	stmt := `INSERT INTO validations (validation_id, project_id, created_at, result)
VALUES (@validation_id, @project_id, @created_at, @result)`
	params := []any{
		sql.Named("validation_id", result.ValidationID),
		sql.Named("project_id", result.ProjectID),
		sql.Named("created_at", result.Timestamp.UTC().Format(time.RFC3339Nano)),
		sql.Named("result", string(document)),
	}
	if _, err = r.dbs.ReadWrite.ExecContext(ctx, stmt, params...); err != nil {
		return errors.Wrap(err, "insert validation result",
			slog.String("validation_id", result.ValidationID))
	}
	return nil
}

// Get fetches one validation result by its identifier.
func (r *ValidationRepository) Get(ctx context.Context, validationID string) (*models.ValidationResult, error) {
	var document []byte
	stmt := `SELECT result FROM validations WHERE validation_id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &document, stmt, validationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(ErrNotFound, "get validation result",
				slog.String("validation_id", validationID))
		}
		return nil, errors.Wrap(err, "get validation result")
	}

	var result models.ValidationResult
	if err := json.Unmarshal(document, &result); err != nil {
		return nil, errors.Wrap(err, "unmarshal validation result",
			slog.String("validation_id", validationID))
	}
	return &result, nil
}

// ListByProject fetches all validation results for the project ordered from
// oldest to newest.
func (r *ValidationRepository) ListByProject(ctx context.Context, projectID string) ([]models.ValidationResult, error) {
	var documents [][]byte
	stmt := `SELECT result FROM validations WHERE project_id = ? ORDER BY created_at, validation_id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &documents, stmt, projectID); err != nil {
		return nil, errors.Wrap(err, "list validation results",
			slog.String("project_id", projectID))
	}

	results := make([]models.ValidationResult, 0, len(documents))
	for _, document := range documents {
		var result models.ValidationResult
		if err := json.Unmarshal(document, &result); err != nil {
			return nil, errors.Wrap(err, "unmarshal validation result",
				slog.String("project_id", projectID))
		}
		results = append(results, result)
	}
	return results, nil
}
