package models

// IssueType classifies a detected defect.
type IssueType string

const (
	IssueTypeMetadata   IssueType = "metadata"
	IssueTypeContinuity IssueType = "continuity"
	IssueTypeTiming     IssueType = "timing"
	IssueTypeTransition IssueType = "transition"
)

// Known reports whether the issue type is one of the defined values.
func (t IssueType) Known() bool {
	switch t {
	case IssueTypeMetadata, IssueTypeContinuity, IssueTypeTiming, IssueTypeTransition:
		return true
	}
	return false
}

// Severity grades an issue. The values are totally ordered: high > medium > low.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Known reports whether the severity is one of the defined values.
func (s Severity) Known() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Issue is one detected defect in the scene metadata.
//
// SceneID is empty for batch-level issues that concern the whole run.
type Issue struct {
	ID           string    `json:"issue_id"`
	SceneID      string    `json:"scene_id,omitempty"`
	Type         IssueType `json:"issue_type"`
	Severity     Severity  `json:"severity"`
	Description  string    `json:"description"`
	SuggestedFix string    `json:"suggested_fix"`
}
