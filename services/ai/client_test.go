package aisvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathmaster/cbcportal/core"
	"github.com/mathmaster/cbcportal/core/tutor"
)

func newTestClient(ts *httptest.Server, attempts uint) *Client {
	return NewClient(&core.Config{
		AI: core.AIConfig{
			BaseURL:       ts.URL,
			APIKey:        "test-key",
			Model:         "test-model",
			RetryAttempts: attempts,
		},
	})
}

func completionBody(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(chatCompletionResponse{
		ID:     "cmpl-1",
		Object: "chat.completion",
		Model:  "test-model",
		Choices: []choice{
			{Message: message{Role: roleAssistant, Content: content}, FinishReason: "stop"},
		},
	})
	require.NoError(t, err)
	return body
}

func TestClientComplete(t *testing.T) {
	var gotReq chatCompletionRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionBody(t, "Sure, let's add the numerators."))
	}))
	defer ts.Close()

	client := newTestClient(ts, 0)
	reply, err := client.Complete(context.Background(), "You are a tutor.", []tutor.Turn{
		{Role: tutor.RoleUser, Content: "How do I add fractions?"},
		{Role: tutor.RoleModel, Content: "First find a common denominator."},
		{Role: tutor.RoleUser, Content: "Then what?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sure, let's add the numerators.", reply)

	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 4)
	assert.Equal(t, message{Role: roleSystem, Content: "You are a tutor."}, gotReq.Messages[0])
	assert.Equal(t, roleUser, gotReq.Messages[1].Role)
	assert.Equal(t, roleAssistant, gotReq.Messages[2].Role)
	assert.Equal(t, roleUser, gotReq.Messages[3].Role)
	assert.Nil(t, gotReq.ResponseFormat)
}

func TestClientCompleteJSON(t *testing.T) {
	var gotReq chatCompletionRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionBody(t, `{"topicTitle":"Fractions","lessons":[]}`))
	}))
	defer ts.Close()

	client := newTestClient(ts, 0)
	raw, err := client.CompleteJSON(context.Background(), "Return JSON.", "Fractions for grade 4")
	require.NoError(t, err)
	assert.Equal(t, `{"topicTitle":"Fractions","lessons":[]}`, raw)

	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_object", gotReq.ResponseFormat.Type)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, roleSystem, gotReq.Messages[0].Role)
	assert.Equal(t, roleUser, gotReq.Messages[1].Role)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionBody(t, "recovered"))
	}))
	defer ts.Close()

	client := newTestClient(ts, 2)
	reply, err := client.Complete(context.Background(), "sys", nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", reply)
	assert.Equal(t, 2, calls)
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	client := newTestClient(ts, 3)
	_, err := client.Complete(context.Background(), "sys", nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClientNoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cmpl-1","choices":[]}`))
	}))
	defer ts.Close()

	client := newTestClient(ts, 0)
	_, err := client.Complete(context.Background(), "sys", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"response error 500: boom", true},
		{"response error 503: unavailable", true},
		{"response error 429: slow down", true},
		{"response error 400: bad request", false},
		{"response error 401: unauthorized", false},
		{"dial tcp: connection refused", true},
		{"read tcp: i/o timeout", true},
	}
	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(errString(tt.err)))
		})
	}
	assert.False(t, isRetryableError(nil))
}

type errString string

func (e errString) Error() string { return string(e) }
