package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/use-agent/triprip/config"
	"github.com/use-agent/triprip/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.Client(), config.LLMConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: srv.URL,
	})
}

func chatBody(content string) []byte {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return b
}

func TestComplete_ReturnsModelJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		require.Equal(t, "json_object", req.ResponseFormat.Type)

		w.Write(chatBody(`{"flights": []}`))
	})

	data, err := client.Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	require.JSONEq(t, `{"flights": []}`, string(data))
}

func TestComplete_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{"provider throttling", http.StatusTooManyRequests,
			`{"error": {"message": "rate limit reached"}}`, models.ErrCodeLLMRateLimited},
		{"bad key", http.StatusUnauthorized,
			`{"error": {"message": "invalid api key"}}`, models.ErrCodeLLMAuthFailure},
		{"server error", http.StatusInternalServerError,
			`{}`, models.ErrCodeLLMFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Complete(context.Background(), "system", "user")
			require.Error(t, err)
			require.Equal(t, tt.wantCode, models.ErrorCode(err))
		})
	}
}

func TestComplete_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"non-json body", []byte("gateway exploded")},
		{"no choices", []byte(`{"choices": []}`)},
		{"content not json", chatBody("Sure! Here are your flights: ...")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write(tt.body)
			})

			_, err := client.Complete(context.Background(), "system", "user")
			require.Error(t, err)
			require.Equal(t, models.ErrCodeLLMMalformed, models.ErrorCode(err))
		})
	}
}
