package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"onomast/internal/util/jsonutil"
)

const groqChatURL = "https://api.groq.com/openai/v1/chat/completions"

// GroqClient calls the Groq Chat Completions API (OpenAI-compatible) in JSON
// mode. JSON mode does not enforce a schema, so the schema travels in the
// system message.
type GroqClient struct {
	http    *http.Client
	apiKey  string
	model   string
	baseURL string
}

func NewGroqClient(apiKey, model, baseURL string) (*GroqClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("groq: api key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("groq: model is required")
	}
	if baseURL == "" {
		baseURL = groqChatURL
	}
	return &GroqClient{
		http:    &http.Client{Timeout: 60 * time.Second},
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
	}, nil
}

func (g *GroqClient) Name() string  { return "Groq:" + g.model }
func (g *GroqClient) Close() error  { return nil }
func (g *GroqClient) Model() string { return g.model }

type groqChatReq struct {
	Model          string            `json:"model"`
	Messages       []groqMessage     `json:"messages"`
	Temperature    float32           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *GroqClient) GenerateJSON(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, error) {
	system := "Respond with a single JSON object only."
	if schema != nil {
		s, err := json.Marshal(schema)
		if err != nil {
			return nil, err
		}
		system += " It must conform to this JSON schema:\n" + string(s)
	}
	body, err := json.Marshal(groqChatReq{
		Model: g.model,
		Messages: []groqMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.7,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("groq: unexpected status %s: %s", resp.Status, string(msg))
		switch {
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			return nil, NewPermanentError(err)
		case resp.StatusCode == http.StatusBadRequest && strings.Contains(string(msg), `"code":"context_length_exceeded"`):
			return nil, NewPermanentError(err)
		}
		return nil, err
	}

	var out groqChatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, ErrInvalidJSON
	}
	raw, err := jsonutil.Extract(out.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return raw, nil
}
