package models

import (
	"github.com/myrjola/scenevalidator/internal/errors"
	"log/slog"
	"time"
)

// Status is the overall verdict of a validation run.
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarning Status = "warning"
	StatusFail    Status = "fail"
)

// Escalate returns the more severe of the two statuses. The reduction is
// monotone: a run that has failed never downgrades back to warning or pass.
func (s Status) Escalate(to Status) Status {
	if statusRank(to) > statusRank(s) {
		return to
	}
	return s
}

func statusRank(s Status) int {
	switch s {
	case StatusWarning:
		return 1
	case StatusFail:
		return 2
	default:
		return 0
	}
}

// Level is the validation thoroughness tier gating which rules run.
type Level string

const (
	LevelBasic    Level = "basic"
	LevelStandard Level = "standard"
	LevelThorough Level = "thorough"
)

var ErrUnknownLevel = errors.NewSentinel("unknown validation level")

// ParseLevel converts a request string into a Level.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelBasic, LevelStandard, LevelThorough:
		return Level(s), nil
	}
	return "", errors.Wrap(ErrUnknownLevel, "parse level", slog.String("level", s))
}

// AtLeast reports whether the level includes the checks of min.
func (l Level) AtLeast(min Level) bool {
	return levelRank(l) >= levelRank(min)
}

func levelRank(l Level) int {
	switch l {
	case LevelStandard:
		return 1
	case LevelThorough:
		return 2
	default:
		return 0
	}
}

// Summary carries the counters of one validation run.
type Summary struct {
	TotalScenes     int `json:"total_scenes"`
	ScenesValidated int `json:"scenes_validated"`
	TotalIssues     int `json:"total_issues"`
	CriticalIssues  int `json:"critical_issues"`
}

// ValidationResult is the complete output of one validation run. It is
// immutable after construction and persisted as a whole document.
type ValidationResult struct {
	ProjectID        string    `json:"project_id"`
	ValidationID     string    `json:"validation_id"`
	Timestamp        time.Time `json:"timestamp"`
	ValidationStatus Status    `json:"validation_status"`
	Issues           []Issue   `json:"issues"`
	Summary          Summary   `json:"summary"`
}
