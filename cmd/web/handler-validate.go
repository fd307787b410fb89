package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/myrjola/scenevalidator/internal/errors"
	"github.com/myrjola/scenevalidator/internal/models"
)

type validateRequest struct {
	ProjectID       string         `json:"project_id"`
	Scenes          []models.Scene `json:"scenes"`
	ValidationLevel string         `json:"validation_level"`
}

// validateScenes runs a validation over the posted scenes and responds with
// the complete result. The result is also persisted for later retrieval.
func (app *application) validateScenes(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.ProjectID == "" {
		app.clientError(w, r, http.StatusBadRequest, "missing project_id")
		return
	}
	if len(req.Scenes) == 0 {
		app.clientError(w, r, http.StatusBadRequest, "no scenes provided")
		return
	}

	var level models.Level
	if req.ValidationLevel != "" {
		var err error
		if level, err = models.ParseLevel(req.ValidationLevel); err != nil {
			app.clientError(w, r, http.StatusBadRequest,
				fmt.Sprintf("unknown validation level: %s", req.ValidationLevel))
			return
		}
	}

	result := app.validator.Validate(r.Context(), req.ProjectID, req.Scenes, level)

	// The validation already succeeded from the caller's point of view, so a
	// failure to persist the result is logged but does not fail the request.
	if err := app.validations.Create(r.Context(), result); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "persist validation result",
			slog.String("validation_id", result.ValidationID), errors.SlogError(err))
	}

	app.writeJSON(w, r, http.StatusOK, result)
}
