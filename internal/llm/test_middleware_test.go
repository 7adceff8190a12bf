package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// fast fake client that returns immediately
type fastClient struct{}

func (f *fastClient) Name() string { return "fast" }
func (f *fastClient) Close() error { return nil }
func (f *fastClient) GenerateJSON(context.Context, string, *Schema) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

// spy records timestamps when requests reach the inner client
type spyingClient struct {
	next  Client
	mu    sync.Mutex
	times []time.Time
}

func (s *spyingClient) Name() string { return s.next.Name() }
func (s *spyingClient) Close() error { return s.next.Close() }
func (s *spyingClient) GenerateJSON(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, error) {
	s.mu.Lock()
	s.times = append(s.times, time.Now())
	s.mu.Unlock()
	return s.next.GenerateJSON(ctx, prompt, schema)
}

// flaky fails the first n calls.
type flaky struct {
	n     int
	err   error
	calls int
}

func (f *flaky) Name() string { return "flaky" }
func (f *flaky) Close() error { return nil }
func (f *flaky) GenerateJSON(context.Context, string, *Schema) (json.RawMessage, error) {
	f.calls++
	if f.calls <= f.n {
		return nil, f.err
	}
	return json.RawMessage(`{"ok":true}`), nil
}

func TestRateLimitSpacing(t *testing.T) {
	spy := &spyingClient{next: &fastClient{}}
	cli := Wrap(spy, RateLimit(2, 1))

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := cli.GenerateJSON(ctx, "p", nil); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 400*time.Millisecond {
		t.Fatalf("second call passed after %v; expected ~500ms spacing", elapsed)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	inner := &fastClient{}
	if got := RateLimit(0, 0)(inner); got != Client(inner) {
		t.Fatal("rps<=0 should return the inner client")
	}
}

func TestRetryRecovers(t *testing.T) {
	inner := &flaky{n: 2, err: errors.New("503")}
	cli := Wrap(inner, Retry(3, time.Millisecond))
	raw, err := cli.GenerateJSON(context.Background(), "p", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"ok":true}` || inner.calls != 3 {
		t.Fatalf("raw=%s calls=%d", raw, inner.calls)
	}
}

func TestRetryStopsOnPermanent(t *testing.T) {
	inner := &flaky{n: 5, err: NewPermanentError(errors.New("bad request"))}
	cli := Wrap(inner, Retry(4, time.Millisecond))
	if _, err := cli.GenerateJSON(context.Background(), "p", nil); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Fatalf("permanent error retried %d times", inner.calls)
	}
}

func TestTimeoutBoundsCall(t *testing.T) {
	cli := Wrap(blockingClient{}, Timeout(20*time.Millisecond), WithLogging(nil))
	start := time.Now()
	_, err := cli.GenerateJSON(context.Background(), "p", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("timeout not applied")
	}
}

type blockingClient struct{}

func (blockingClient) Name() string { return "blocking" }
func (blockingClient) Close() error { return nil }
func (blockingClient) GenerateJSON(ctx context.Context, _ string, _ *Schema) (json.RawMessage, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestFakeClientRecordsPrompts(t *testing.T) {
	f := NewFakeClient(nil)
	raw, err := f.GenerateJSON(context.Background(), "hello", nil)
	if err != nil || !json.Valid(raw) {
		t.Fatalf("raw=%s err=%v", raw, err)
	}
	if f.Calls() != 1 || f.Prompts()[0] != "hello" {
		t.Fatalf("calls=%d prompts=%v", f.Calls(), f.Prompts())
	}
}

func TestToGenaiSchema(t *testing.T) {
	s := toGenaiSchema(&Schema{
		Type:     "object",
		Required: []string{"a"},
		Ordering: []string{"a", "b"},
		Properties: map[string]*Schema{
			"a": {Type: "integer"},
			"b": {Type: "array", Items: &Schema{Type: "string"}},
		},
	})
	if s.Type != "OBJECT" || s.Properties["b"].Items.Type != "STRING" {
		t.Fatalf("unexpected schema %+v", s)
	}
	if len(s.PropertyOrdering) != 2 {
		t.Fatalf("ordering lost: %v", s.PropertyOrdering)
	}
}
