package availability

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSessionDiscardsSupersededRun(t *testing.T) {
	probes := make([]Probe, 0, 17)
	for _, src := range Sources() {
		probes = append(probes, ProbeFunc{Src: src, Fn: func(ctx context.Context, handle string) Outcome {
			delay := 5 * time.Millisecond
			if handle == "old" {
				delay = 200 * time.Millisecond
			}
			select {
			case <-time.After(delay):
				return Outcome{Status: StatusTaken}
			case <-ctx.Done():
				return Outcome{Err: ctx.Err()}
			}
		}})
	}
	s := NewSession(NewOrchestrator(probes))

	var mu sync.Mutex
	var seen []string
	record := func(handle string) func(ProbeResult) {
		return func(ProbeResult) {
			mu.Lock()
			seen = append(seen, handle)
			mu.Unlock()
		}
	}

	oldGen, oldCh := s.Start(context.Background(), "old", record("old"))
	newGen, newCh := s.Start(context.Background(), "new", record("new"))

	if newGen != oldGen+1 {
		t.Fatalf("generations %d then %d, want consecutive", oldGen, newGen)
	}

	rep, ok := <-newCh
	if !ok {
		t.Fatal("current run produced no report")
	}
	if rep.Handle != "new" || !rep.Ready {
		t.Fatalf("unexpected report %+v", rep)
	}
	if _, ok := <-oldCh; ok {
		t.Fatal("superseded run delivered a report")
	}

	mu.Lock()
	defer mu.Unlock()
	for _, h := range seen {
		if h != "new" {
			t.Fatalf("stale probe result from %q was delivered", h)
		}
	}
	if len(seen) != 17 {
		t.Fatalf("delivered %d results, want 17", len(seen))
	}
}

func TestSessionStopDropsReport(t *testing.T) {
	s := NewSession(NewOrchestrator(allProbes(50*time.Millisecond, StatusAvailable)))
	_, ch := s.Start(context.Background(), "flux", nil)
	s.Stop()
	if _, ok := <-ch; ok {
		t.Fatal("stopped run delivered a report")
	}
}
