package aisvc

import (
	"context"
	"fmt"
	"strings"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/mathmaster/cbcportal/core"
	"github.com/mathmaster/cbcportal/core/tutor"
)

const (
	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"

	defaultModel = "gpt-4o-mini"
)

type (
	chatCompletionRequest struct {
		Model          string          `json:"model"`
		Messages       []message       `json:"messages"`
		Temperature    float64         `json:"temperature,omitempty"`
		ResponseFormat *responseFormat `json:"response_format,omitempty"`
	}

	message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	responseFormat struct {
		Type string `json:"type"`
	}

	chatCompletionResponse struct {
		ID      string   `json:"id"`
		Object  string   `json:"object"`
		Created int64    `json:"created"`
		Model   string   `json:"model"`
		Choices []choice `json:"choices"`
	}

	choice struct {
		Index        int     `json:"index"`
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	}
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	http     *resty.Client
	model    string
	attempts uint
}

var _ tutor.Client = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	model := conf.AI.Model
	if model == "" {
		model = defaultModel
	}
	http := resty.New().
		SetHostURL(strings.TrimSuffix(conf.AI.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(conf.AI.APIKey)
	return &Client{
		http:     http,
		model:    model,
		attempts: conf.AI.RetryAttempts,
	}
}

func (client *Client) Complete(ctx context.Context, systemPrompt string, turns []tutor.Turn) (string, error) {
	msgs := make([]message, 0, len(turns)+1)
	msgs = append(msgs, message{Role: roleSystem, Content: systemPrompt})
	for _, turn := range turns {
		role := roleUser
		if turn.Role == tutor.RoleModel {
			role = roleAssistant
		}
		msgs = append(msgs, message{Role: role, Content: turn.Content})
	}
	return client.complete(ctx, chatCompletionRequest{
		Model:       client.model,
		Messages:    msgs,
		Temperature: 0.7,
	})
}

func (client *Client) CompleteJSON(ctx context.Context, systemPrompt, prompt string) (string, error) {
	return client.complete(ctx, chatCompletionRequest{
		Model: client.model,
		Messages: []message{
			{Role: roleSystem, Content: systemPrompt},
			{Role: roleUser, Content: prompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
}

func (client *Client) complete(ctx context.Context, body chatCompletionRequest) (string, error) {
	var reply string
	err := retry.Do(
		func() error {
			content, err := client.completeOnce(ctx, body)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			reply = content
			return nil
		},
		retry.Attempts(client.attempts+1),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (client *Client) completeOnce(ctx context.Context, body chatCompletionRequest) (string, error) {
	var result chatCompletionResponse
	resp, err := client.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", errors.Wrap(err, "requesting chat completion")
	}
	if resp.IsError() {
		return "", fmt.Errorf("response error %d: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// isRetryableError reports whether an attempt failure is transient. Client
// errors other than rate limiting are final.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return true
	}
	if strings.Contains(errStr, "response error 5") {
		return true
	}
	if strings.Contains(errStr, "response error 429") {
		return true
	}
	return false
}
