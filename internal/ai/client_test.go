package ai

import (
	"context"
	"fmt"
	"github.com/myrjola/scenevalidator/internal/models"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestClient points the client at a fake OpenAI-compatible endpoint.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", "test-model", srv.URL+"/v1")
}

// completionResponse wraps content into a chat completion response body.
func completionResponse(content string) string {
	return fmt.Sprintf(`{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "test-model",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}]
	}`, content)
}

func TestClient_Analyze(t *testing.T) {
	findingsJSON := `[{"issue_type": "continuity", "severity": "low",
		"description": "The crowbar disappears between scenes.",
		"suggested_fix": "Show the character putting the crowbar down."}]`

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse(findingsJSON)))
	})

	location := "warehouse"
	findings, err := client.Analyze(context.Background(), Request{
		Current: models.Scene{ID: "scene_002", Timestamp: models.Num(10), Duration: models.Num(5), Location: &location},
	})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, "continuity", findings[0].IssueType)
	require.Equal(t, "low", findings[0].Severity)
	require.Equal(t, "The crowbar disappears between scenes.", findings[0].Description)
}

func TestClient_Analyze_serviceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusInternalServerError)
	})

	_, err := client.Analyze(context.Background(), Request{Current: models.Scene{ID: "scene_001"}})
	require.ErrorIs(t, err, ErrService)
}

func TestClient_Analyze_timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := client.Analyze(ctx, Request{Current: models.Scene{ID: "scene_001"}})
	require.ErrorIs(t, err, ErrService)
}

func TestClient_Analyze_malformedContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse("I could not find any issues worth mentioning.")))
	})

	_, err := client.Analyze(context.Background(), Request{Current: models.Scene{ID: "scene_001"}})
	require.ErrorIs(t, err, ErrBadResponse)
}

func Test_parseFindings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr error
	}{
		{
			name:    "plain array",
			content: `[{"issue_type": "timing", "severity": "medium", "description": "Gap.", "suggested_fix": "Close it."}]`,
			want:    1,
		},
		{
			name:    "empty array",
			content: `[]`,
			want:    0,
		},
		{
			name: "fenced array",
			content: "```json\n" +
				`[{"issue_type": "continuity", "severity": "low", "description": "Lamp moved.", "suggested_fix": "Reset the lamp."}]` +
				"\n```",
			want: 1,
		},
		{
			name:    "fence without language tag",
			content: "```\n[]\n```",
			want:    0,
		},
		{
			name:    "object instead of array",
			content: `{"issues": []}`,
			wantErr: ErrBadResponse,
		},
		{
			name:    "prose",
			content: "No issues found.",
			wantErr: ErrBadResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings, err := parseFindings(tt.content)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, findings, tt.want)
		})
	}
}
