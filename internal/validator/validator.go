// Package validator implements the scene continuity validation engine: a
// single pass over the scene list applying an ordered, tier-gated rule set,
// folded into an overall verdict.
package validator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/scenevalidator/internal/ai"
	"github.com/myrjola/scenevalidator/internal/errors"
	"github.com/myrjola/scenevalidator/internal/models"
)

// Config is the effective engine configuration. It is loaded once at process
// start and never mutated, so concurrent validation runs share it safely.
type Config struct {
	// DefaultLevel applies when a request does not name a validation level.
	DefaultLevel models.Level
	// MaxScenesPerBatch bounds the number of scenes in one run. Exceeding it
	// degrades the verdict, it does not reject the request.
	MaxScenesPerBatch int
	// AdvisorTimeout bounds each external advisory call.
	AdvisorTimeout time.Duration
}

// Validator evaluates scene metadata for continuity and transition defects.
//
// The engine holds no per-request state: every run builds its own scene
// index, so concurrent validations are independent.
type Validator struct {
	logger  *slog.Logger
	advisor ai.Advisor
	cfg     Config
}

// New creates a Validator.
//
// advisor may be nil when no external continuity service is configured; the
// thorough level then behaves exactly like standard.
func New(logger *slog.Logger, advisor ai.Advisor, cfg Config) *Validator {
	return &Validator{
		logger:  logger.With("source", "Validator"),
		advisor: advisor,
		cfg:     cfg,
	}
}

// Validate runs one validation pass over the scenes and returns the complete
// result. Data-quality defects are never errors: they surface as issues in
// the result. Level defaults to the configured level when empty.
func (v *Validator) Validate(
	ctx context.Context,
	projectID string,
	scenes []models.Scene,
	level models.Level,
) models.ValidationResult {
	if level == "" {
		level = v.cfg.DefaultLevel
	}

	result := models.ValidationResult{
		ProjectID:        projectID,
		ValidationID:     uuid.NewString(),
		Timestamp:        time.Now().UTC(),
		ValidationStatus: models.StatusPass,
		Issues:           []models.Issue{},
		Summary: models.Summary{
			TotalScenes: len(scenes),
		},
	}

	v.logger.LogAttrs(ctx, slog.LevelInfo, "starting validation",
		slog.String("validation_id", result.ValidationID),
		slog.String("project_id", projectID),
		slog.Int("scenes", len(scenes)),
		slog.String("level", string(level)))

	index, skipped := BuildIndex(scenes)

	// Batch-level issues come first in the result.
	if len(scenes) > v.cfg.MaxScenesPerBatch {
		v.record(&result, newIssue("", models.IssueTypeMetadata, models.SeverityMedium,
			fmt.Sprintf("Number of scenes (%d) exceeds maximum batch size (%d)", len(scenes), v.cfg.MaxScenesPerBatch),
			"Split validation into multiple smaller batches"))
	}
	if skipped > 0 {
		v.record(&result, newIssue("", models.IssueTypeMetadata, models.SeverityMedium,
			fmt.Sprintf("%d scene(s) lack a scene_id and were not validated", skipped),
			"Add a unique scene_id to every scene"))
	}

	for _, scene := range scenes {
		if scene.ID == "" {
			continue
		}
		for _, issue := range v.validateScene(ctx, scene, index, level) {
			v.record(&result, issue)
		}
		result.Summary.ScenesValidated++
	}

	v.logger.LogAttrs(ctx, slog.LevelInfo, "completed validation",
		slog.String("validation_id", result.ValidationID),
		slog.String("status", string(result.ValidationStatus)),
		slog.Int("issues", result.Summary.TotalIssues),
		slog.Int("critical", result.Summary.CriticalIssues))

	return result
}

// record appends the issue and folds it into the counters and the verdict.
// The reduction depends only on the multiset of severities, never on order.
func (v *Validator) record(result *models.ValidationResult, issue models.Issue) {
	result.Issues = append(result.Issues, issue)
	result.Summary.TotalIssues++
	if issue.Severity == models.SeverityHigh {
		result.Summary.CriticalIssues++
		result.ValidationStatus = result.ValidationStatus.Escalate(models.StatusFail)
	} else {
		result.ValidationStatus = result.ValidationStatus.Escalate(models.StatusWarning)
	}
}

// validateScene applies the rule set to one scene in fixed order.
func (v *Validator) validateScene(
	ctx context.Context,
	scene models.Scene,
	index Index,
	level models.Level,
) []models.Issue {
	var issues []models.Issue
	for _, r := range v.rules() {
		if !level.AtLeast(r.minLevel) {
			continue
		}
		issues = append(issues, r.check(ctx, scene, index)...)
	}
	return issues
}

// advise delegates narrative judgment on the scene and its neighbours to the
// external continuity advisor. A failed call degrades to a single
// low-severity issue; it never aborts the run.
func (v *Validator) advise(ctx context.Context, scene models.Scene, index Index) []models.Issue {
	if v.advisor == nil {
		return nil
	}

	req := ai.Request{Current: scene}
	if preceding, ok := precedingScene(scene, index); ok {
		req.Preceding = &preceding
	}
	if scene.FollowingSceneID != "" {
		if following, ok := index[scene.FollowingSceneID]; ok {
			req.Following = &following
		}
	}

	ctx, cancel := context.WithTimeout(ctx, v.cfg.AdvisorTimeout)
	defer cancel()

	findings, err := v.advisor.Analyze(ctx, req)
	if err != nil {
		v.logger.LogAttrs(ctx, slog.LevelError, "continuity advisor failed",
			slog.String("scene_id", scene.ID), errors.SlogError(err))
		description := "Advanced continuity analysis failed: advisor service error"
		fix := "Check advisor service access and retry"
		if errors.Is(err, ai.ErrBadResponse) {
			description = "Advanced continuity analysis failed: advisor response could not be parsed"
			fix = "Check system logs and retry"
		}
		return []models.Issue{newIssue(scene.ID, models.IssueTypeMetadata, models.SeverityLow, description, fix)}
	}

	issues := make([]models.Issue, 0, len(findings))
	for _, finding := range findings {
		if issue, ok := sanitizeFinding(scene.ID, finding); ok {
			issues = append(issues, issue)
		}
	}
	return issues
}

// sanitizeFinding converts an untrusted advisor finding into an issue. The
// model does not get to invent enum values: an unknown severity falls back to
// low and an unknown type to continuity. Findings without a description carry
// no actionable information and are dropped.
func sanitizeFinding(sceneID string, finding ai.Finding) (models.Issue, bool) {
	if finding.Description == "" {
		return models.Issue{}, false
	}
	severity := models.Severity(finding.Severity)
	if !severity.Known() {
		severity = models.SeverityLow
	}
	issueType := models.IssueType(finding.IssueType)
	if !issueType.Known() {
		issueType = models.IssueTypeContinuity
	}
	return newIssue(sceneID, issueType, severity, finding.Description, finding.SuggestedFix), true
}
