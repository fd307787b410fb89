package main

import (
	"net/http"

	"github.com/myrjola/scenevalidator/internal/errors"
	"github.com/myrjola/scenevalidator/internal/models"
	"github.com/myrjola/scenevalidator/internal/repositories"
)

// getValidation fetches a stored validation result by its identifier.
func (app *application) getValidation(w http.ResponseWriter, r *http.Request) {
	validationID := r.PathValue("validationID")

	result, err := app.validations.Get(r.Context(), validationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			app.clientError(w, r, http.StatusNotFound, "validation not found")
			return
		}
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, result)
}

type projectValidationsResponse struct {
	ProjectID   string                    `json:"project_id"`
	Validations []models.ValidationResult `json:"validations"`
}

// listProjectValidations fetches the validation history of a project ordered
// from oldest to newest. An unknown project yields an empty list.
func (app *application) listProjectValidations(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectID")

	results, err := app.validations.ListByProject(r.Context(), projectID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if results == nil {
		results = []models.ValidationResult{}
	}

	app.writeJSON(w, r, http.StatusOK, projectValidationsResponse{
		ProjectID:   projectID,
		Validations: results,
	})
}
