package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groqServer(t *testing.T, status int, body string) (*httptest.Server, *groqChatReq) {
	t.Helper()
	var got groqChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestGroqGenerateJSON(t *testing.T) {
	srv, got := groqServer(t, http.StatusOK, `{"choices":[{"message":{"content":"{\"positivity\":70}"}}]}`)
	c, err := NewGroqClient("k", "llama-3.3-70b-versatile", srv.URL)
	require.NoError(t, err)

	raw, err := c.GenerateJSON(context.Background(), "rate Flux", &Schema{Type: "object", Required: []string{"positivity"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"positivity":70}`, string(raw))

	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[0].Content, `"positivity"`)
	assert.Equal(t, "rate Flux", got.Messages[1].Content)
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
}

func TestGroqRejectsNonJSONContent(t *testing.T) {
	srv, _ := groqServer(t, http.StatusOK, `{"choices":[{"message":{"content":"sure! here you go"}}]}`)
	c, _ := NewGroqClient("k", "m", srv.URL)
	_, err := c.GenerateJSON(context.Background(), "p", nil)
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestGroqAuthFailureIsPermanent(t *testing.T) {
	srv, _ := groqServer(t, http.StatusUnauthorized, `{"error":"bad key"}`)
	c, _ := NewGroqClient("k", "m", srv.URL)
	_, err := c.GenerateJSON(context.Background(), "p", nil)
	var perm *PermanentError
	assert.True(t, errors.As(err, &perm))
}

func TestGroqServerErrorIsRetryable(t *testing.T) {
	srv, _ := groqServer(t, http.StatusServiceUnavailable, `overloaded`)
	c, _ := NewGroqClient("k", "m", srv.URL)
	_, err := c.GenerateJSON(context.Background(), "p", nil)
	require.Error(t, err)
	var perm *PermanentError
	assert.False(t, errors.As(err, &perm))
	assert.True(t, strings.Contains(err.Error(), "503"))
}

func TestNewGroqClientRequiresKey(t *testing.T) {
	_, err := NewGroqClient("", "m", "")
	assert.Error(t, err)
}
