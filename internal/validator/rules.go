package validator

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/myrjola/scenevalidator/internal/models"
)

// timingTolerance allows for floating point imprecision when comparing scene
// timestamps.
const timingTolerance = 0.001

// rule is one continuity check. Rules are independent of each other: a scene
// may accumulate issues from several rules in one pass.
type rule struct {
	name     string
	minLevel models.Level
	check    func(ctx context.Context, scene models.Scene, index Index) []models.Issue
}

// rules returns the checks in their fixed evaluation order. Issue order in
// the result follows this order, so it must not change between runs.
func (v *Validator) rules() []rule {
	return []rule{
		{name: "required-fields", minLevel: models.LevelBasic, check: checkRequiredFields},
		{name: "numeric-ranges", minLevel: models.LevelBasic, check: checkNumericRanges},
		{name: "scene-references", minLevel: models.LevelBasic, check: checkSceneReferences},
		{name: "timing-continuity", minLevel: models.LevelBasic, check: checkTimingContinuity},
		{name: "time-of-day", minLevel: models.LevelStandard, check: checkTimeOfDay},
		{name: "prop-continuity", minLevel: models.LevelStandard, check: checkPropContinuity},
		{name: "external-advisory", minLevel: models.LevelThorough, check: v.advise},
	}
}

func newIssue(sceneID string, issueType models.IssueType, severity models.Severity, description, fix string) models.Issue {
	return models.Issue{
		ID:           uuid.NewString(),
		SceneID:      sceneID,
		Type:         issueType,
		Severity:     severity,
		Description:  description,
		SuggestedFix: fix,
	}
}

// checkRequiredFields emits a high-severity metadata issue for each missing
// required field. A JSON null counts as missing.
func checkRequiredFields(_ context.Context, scene models.Scene, _ Index) []models.Issue {
	var issues []models.Issue
	missing := func(field string) {
		issues = append(issues, newIssue(scene.ID, models.IssueTypeMetadata, models.SeverityHigh,
			fmt.Sprintf("Missing required field: %s", field),
			fmt.Sprintf("Add %s to scene metadata", field)))
	}
	if scene.ID == "" {
		missing("scene_id")
	}
	if !scene.Timestamp.Present {
		missing("timestamp")
	}
	if !scene.Duration.Present {
		missing("duration")
	}
	if scene.Location == nil {
		missing("location")
	}
	return issues
}

// checkNumericRanges validates the types and ranges of timestamp and
// duration. It only applies when both attributes are present; absence is
// already covered by the required-field rule.
func checkNumericRanges(_ context.Context, scene models.Scene, _ Index) []models.Issue {
	if !scene.Timestamp.Present || !scene.Duration.Present {
		return nil
	}
	var issues []models.Issue
	if !scene.Timestamp.Valid {
		issues = append(issues, newIssue(scene.ID, models.IssueTypeMetadata, models.SeverityMedium,
			"Timestamp is not a number",
			"Convert timestamp to a numeric value (seconds)"))
	}
	if !scene.Duration.Valid || scene.Duration.Value <= 0 {
		issues = append(issues, newIssue(scene.ID, models.IssueTypeMetadata, models.SeverityMedium,
			"Duration is not a positive number",
			"Set duration to a positive numeric value (seconds)"))
	}
	return issues
}

// checkSceneReferences flags preceding/following references that point at
// scenes absent from the index.
func checkSceneReferences(_ context.Context, scene models.Scene, index Index) []models.Issue {
	var issues []models.Issue
	dangling := func(direction, id string) {
		issues = append(issues, newIssue(scene.ID, models.IssueTypeContinuity, models.SeverityHigh,
			fmt.Sprintf("Referenced %s scene %s not found", direction, id),
			"Add the missing scene or correct the reference"))
	}
	if id := scene.PrecedingSceneID; id != "" {
		if _, ok := index[id]; !ok {
			dangling("preceding", id)
		}
	}
	if id := scene.FollowingSceneID; id != "" {
		if _, ok := index[id]; !ok {
			dangling("following", id)
		}
	}
	return issues
}

// checkTimingContinuity verifies that the scene starts where its preceding
// scene ends, within the floating point tolerance.
func checkTimingContinuity(_ context.Context, scene models.Scene, index Index) []models.Issue {
	preceding, ok := precedingScene(scene, index)
	if !ok {
		return nil
	}
	if !preceding.Timestamp.Valid || !preceding.Duration.Valid || !scene.Timestamp.Valid {
		return nil
	}
	expected := preceding.Timestamp.Value + preceding.Duration.Value
	if math.Abs(expected-scene.Timestamp.Value) <= timingTolerance {
		return nil
	}
	return []models.Issue{newIssue(scene.ID, models.IssueTypeTiming, models.SeverityMedium,
		fmt.Sprintf("Timing gap between scenes: expected %v, got %v", expected, scene.Timestamp.Value),
		fmt.Sprintf("Adjust timestamp to %v or add a transition scene", expected))}
}

// checkTimeOfDay flags a time-of-day change between adjacent scenes. The
// change could be intentional, hence low severity.
func checkTimeOfDay(_ context.Context, scene models.Scene, index Index) []models.Issue {
	preceding, ok := precedingScene(scene, index)
	if !ok || preceding.TimeOfDay == nil || scene.TimeOfDay == nil {
		return nil
	}
	if *preceding.TimeOfDay == *scene.TimeOfDay {
		return nil
	}
	return []models.Issue{newIssue(scene.ID, models.IssueTypeContinuity, models.SeverityLow,
		fmt.Sprintf("Time of day changed from %s to %s", *preceding.TimeOfDay, *scene.TimeOfDay),
		"Ensure the time change is intentional and logically explained")}
}

// checkPropContinuity looks for props that disappear illogically: the
// location has not changed, yet a prop from the preceding scene is gone. One
// issue per missing prop, in prop declaration order.
func checkPropContinuity(_ context.Context, scene models.Scene, index Index) []models.Issue {
	preceding, ok := precedingScene(scene, index)
	if !ok || preceding.Props == nil || scene.Props == nil {
		return nil
	}
	if !sameLocation(scene.Location, preceding.Location) {
		return nil
	}
	current := make(map[string]struct{}, len(scene.Props))
	for _, prop := range scene.Props {
		current[prop] = struct{}{}
	}
	var issues []models.Issue
	for _, prop := range preceding.Props {
		if _, ok := current[prop]; ok {
			continue
		}
		issues = append(issues, newIssue(scene.ID, models.IssueTypeContinuity, models.SeverityLow,
			fmt.Sprintf("Prop '%s' present in previous scene but missing in current scene", prop),
			"Add the prop or justify its absence in the scene"))
	}
	return issues
}

func precedingScene(scene models.Scene, index Index) (models.Scene, bool) {
	if scene.PrecedingSceneID == "" {
		return models.Scene{}, false
	}
	preceding, ok := index[scene.PrecedingSceneID]
	return preceding, ok
}

// sameLocation treats two scenes without a location as the same place, so
// that prop continuity still applies to sparsely annotated metadata.
func sameLocation(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
