package validator

import (
	"github.com/myrjola/scenevalidator/internal/models"
)

// Index maps scene identifiers to scene records for one validation run. It is
// built fresh per request; there is no cross-request scene identity.
type Index map[string]models.Scene

// BuildIndex builds the lookup structure for the rule evaluator.
//
// Scenes without a scene_id cannot be referenced or evaluated. They are
// excluded from the index and reported through the skipped count so that the
// aggregator can surface them as a batch-level issue.
func BuildIndex(scenes []models.Scene) (Index, int) {
	index := make(Index, len(scenes))
	skipped := 0
	for _, scene := range scenes {
		if scene.ID == "" {
			skipped++
			continue
		}
		index[scene.ID] = scene
	}
	return index, skipped
}
