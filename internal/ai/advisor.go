package ai

import (
	"context"
	"github.com/myrjola/scenevalidator/internal/errors"
	"github.com/myrjola/scenevalidator/internal/models"
)

// Request carries the scene under analysis together with its immediate
// neighbours. Preceding and Following are nil when the scene has none.
type Request struct {
	Current   models.Scene  `json:"current_scene"`
	Preceding *models.Scene `json:"preceding_scene"`
	Following *models.Scene `json:"following_scene"`
}

// Finding is one candidate issue proposed by the advisor. The fields are
// plain strings because the model output is untrusted; the validation engine
// sanitizes them before merging.
type Finding struct {
	IssueType    string `json:"issue_type"`
	Severity     string `json:"severity"`
	Description  string `json:"description"`
	SuggestedFix string `json:"suggested_fix"`
}

// Advisor requests continuity analysis of a scene from a text-generation
// service.
//
// Implementations must honour the context deadline. Tests substitute fakes
// that return fixed findings, malformed payloads, or timeouts.
type Advisor interface {
	Analyze(ctx context.Context, req Request) ([]Finding, error)
}

var (
	// ErrService marks transport failures and error responses from the
	// advisor service, including deadline expiry.
	ErrService = errors.NewSentinel("continuity advisor request failed")
	// ErrBadResponse marks advisor responses that could not be parsed as a
	// JSON array of findings.
	ErrBadResponse = errors.NewSentinel("continuity advisor returned a malformed response")
)
