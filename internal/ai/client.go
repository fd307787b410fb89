package ai

import (
	"context"
	"encoding/json"
	"github.com/myrjola/scenevalidator/internal/errors"
	"github.com/sashabaranov/go-openai"
	"log/slog"
	"strings"
)

// Generation configuration for the continuity analysis. Low temperature keeps
// the model from inventing hypothetical issues.
const (
	analysisTemperature = 0.2
	analysisTopP        = 0.8
	analysisMaxTokens   = 1024
)

const analysisPrompt = `Analyze the continuity and logical flow between these scenes in a film/video project.
Identify any potential continuity issues, logical inconsistencies, or narrative problems.
Format your response as a JSON array of issues, where each issue has:
- issue_type: "continuity", "transition", "timing", or "metadata"
- severity: "low", "medium", or "high"
- description: A clear explanation of the issue
- suggested_fix: A practical suggestion to address the issue

Only identify actual issues, not hypothetical ones. If no issues are found, return an empty array.`

// Client implements Advisor on top of an OpenAI-compatible chat completion
// endpoint.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates an advisor client.
//
// baseURL may be empty to use the default OpenAI endpoint, or point to any
// OpenAI-compatible service.
func NewClient(apiKey, model, baseURL string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Analyze sends the scene context to the model and parses its response as a
// list of findings.
func (c *Client) Analyze(ctx context.Context, req Request) ([]Finding, error) {
	sceneContext, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal scene context")
	}

	completion, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:       c.model,
			Temperature: analysisTemperature,
			TopP:        analysisTopP,
			MaxTokens:   analysisMaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: analysisPrompt},
				{Role: openai.ChatMessageRoleUser, Content: string(sceneContext)},
			},
		},
	)
	if err != nil {
		return nil, errors.Wrap(ErrService, "create chat completion", slog.String("cause", err.Error()))
	}
	if len(completion.Choices) == 0 {
		return nil, errors.Wrap(ErrBadResponse, "no completion choices")
	}

	findings, err := parseFindings(completion.Choices[0].Message.Content)
	if err != nil {
		return nil, errors.Wrap(err, "parse findings")
	}
	return findings, nil
}

// parseFindings decodes the model output as a JSON array of findings.
//
// Models routinely wrap JSON in a Markdown code fence even when told not to,
// so the fence is stripped before decoding.
func parseFindings(content string) ([]Finding, error) {
	content = stripCodeFence(content)
	var findings []Finding
	if err := json.Unmarshal([]byte(content), &findings); err != nil {
		return nil, errors.Wrap(ErrBadResponse, "decode findings",
			slog.String("content", truncate(content, 200)))
	}
	return findings, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if rest, ok := strings.CutPrefix(s, "```json"); ok {
		s = rest
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
