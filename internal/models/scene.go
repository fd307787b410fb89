package models

import (
	"encoding/json"
)

// Number is a scene attribute that should hold a numeric value.
//
// Scene metadata arrives as arbitrary JSON documents, so a wrong-typed value
// must surface as a validation issue instead of failing the whole request
// decode. Number therefore records presence and numeric validity separately.
// A JSON null counts as absent, matching the required-field rule.
type Number struct {
	// Present reports that the attribute carried a non-null value.
	Present bool
	// Valid reports that the value was numeric.
	Valid bool
	// Value is the numeric value when Valid.
	Value float64
}

// Num is a convenience constructor for a present, valid Number.
func Num(value float64) Number {
	return Number{Present: true, Valid: true, Value: value}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	n.Present = true
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		// Wrong type. The rule evaluator reports it.
		return nil
	}
	n.Valid = true
	n.Value = value
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Scene is one discrete unit of a video/film timeline with metadata.
//
// Every field except ID is optional in the incoming document. Optional string
// attributes are pointers so that the rule evaluator can tell absent from
// empty.
type Scene struct {
	ID               string   `json:"scene_id"`
	Timestamp        Number   `json:"timestamp"`
	Duration         Number   `json:"duration"`
	Location         *string  `json:"location"`
	TimeOfDay        *string  `json:"time_of_day,omitempty"`
	Props            []string `json:"props,omitempty"`
	PrecedingSceneID string   `json:"preceding_scene_id,omitempty"`
	FollowingSceneID string   `json:"following_scene_id,omitempty"`
}
