package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthy", app.healthy)
	mux.HandleFunc("POST /api/validate", app.validateScenes)
	mux.HandleFunc("GET /api/validations/{validationID}", app.getValidation)
	mux.HandleFunc("GET /api/projects/{projectID}/validations", app.listProjectValidations)

	standard := alice.New(app.recoverPanic, app.logRequest, secureHeaders)

	return standard.Then(mux)
}
