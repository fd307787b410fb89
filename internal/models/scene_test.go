package models_test

import (
	"encoding/json"
	"github.com/myrjola/scenevalidator/internal/models"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestScene_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want models.Scene
	}{
		{
			name: "full scene",
			doc: `{
				"scene_id": "scene_001",
				"timestamp": 0,
				"duration": 12.5,
				"location": "warehouse",
				"time_of_day": "night",
				"props": ["crowbar", "flashlight"],
				"following_scene_id": "scene_002"
			}`,
			want: models.Scene{
				ID:               "scene_001",
				Timestamp:        models.Num(0),
				Duration:         models.Num(12.5),
				Location:         ptr("warehouse"),
				TimeOfDay:        ptr("night"),
				Props:            []string{"crowbar", "flashlight"},
				FollowingSceneID: "scene_002",
			},
		},
		{
			name: "absent attributes",
			doc:  `{"scene_id": "scene_001"}`,
			want: models.Scene{ID: "scene_001"},
		},
		{
			name: "null counts as absent",
			doc:  `{"scene_id": "scene_001", "timestamp": null, "location": null}`,
			want: models.Scene{ID: "scene_001"},
		},
		{
			name: "wrong-typed numbers are present but invalid",
			doc:  `{"scene_id": "scene_001", "timestamp": "00:01:30", "duration": true}`,
			want: models.Scene{
				ID:        "scene_001",
				Timestamp: models.Number{Present: true},
				Duration:  models.Number{Present: true},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var scene models.Scene
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &scene))
			require.Equal(t, tt.want, scene)
		})
	}
}

func TestNumber_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(models.Num(12.5))
	require.NoError(t, err)
	require.JSONEq(t, `12.5`, string(out))

	out, err = json.Marshal(models.Number{Present: true})
	require.NoError(t, err)
	require.JSONEq(t, `null`, string(out))
}

func TestStatus_Escalate(t *testing.T) {
	require.Equal(t, models.StatusWarning, models.StatusPass.Escalate(models.StatusWarning))
	require.Equal(t, models.StatusFail, models.StatusWarning.Escalate(models.StatusFail))
	// Monotone: never downgrades.
	require.Equal(t, models.StatusFail, models.StatusFail.Escalate(models.StatusWarning))
	require.Equal(t, models.StatusWarning, models.StatusWarning.Escalate(models.StatusPass))
}

func TestParseLevel(t *testing.T) {
	level, err := models.ParseLevel("thorough")
	require.NoError(t, err)
	require.Equal(t, models.LevelThorough, level)

	_, err = models.ParseLevel("paranoid")
	require.ErrorIs(t, err, models.ErrUnknownLevel)
}

func TestLevel_AtLeast(t *testing.T) {
	require.True(t, models.LevelThorough.AtLeast(models.LevelBasic))
	require.True(t, models.LevelStandard.AtLeast(models.LevelStandard))
	require.False(t, models.LevelBasic.AtLeast(models.LevelStandard))
	require.False(t, models.LevelStandard.AtLeast(models.LevelThorough))
}

func ptr(s string) *string {
	return &s
}
