package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// FakeClient returns canned JSON for offline runs and tests.
type FakeClient struct {
	mu      sync.Mutex
	respond func(prompt string) (json.RawMessage, error)
	calls   int
	prompts []string
}

// DefaultFakeVerdict is a schema-conforming verdict used when no responder is given.
var DefaultFakeVerdict = json.RawMessage(`{"positivity":72,"vibe":"positive","reason":"Short and easy to say.","whyGood":"Memorable and brief.","whyBad":"Common word, crowded namespace.","redditTake":"Another one-word startup, bold.","similarCompanies":["Fluxx","Flux Labs"]}`)

func NewFakeClient(respond func(prompt string) (json.RawMessage, error)) *FakeClient {
	if respond == nil {
		respond = func(string) (json.RawMessage, error) { return DefaultFakeVerdict, nil }
	}
	return &FakeClient{respond: respond}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, _ *Schema) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	respond := f.respond
	f.mu.Unlock()
	return respond(prompt)
}

// Calls is the number of GenerateJSON invocations so far.
func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeClient) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}
