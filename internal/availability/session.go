package availability

import (
	"context"
	"sync"
)

// Session tracks the latest run for one client. Starting a new run cancels
// the previous one, and anything the previous run produces afterwards is
// dropped instead of being delivered.
type Session struct {
	orch *Orchestrator

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func NewSession(o *Orchestrator) *Session {
	return &Session{orch: o}
}

// Start supersedes any in-flight run and begins checking handle. It returns
// the new run's generation and a channel that yields the report once, and
// only if this run is still current when it finishes; otherwise the channel
// is closed empty. onResult is invoked under the session lock and must not
// block.
func (s *Session) Start(ctx context.Context, handle string, onResult func(ProbeResult)) (uint64, <-chan Report) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	out := make(chan Report, 1)
	go func() {
		defer close(out)
		defer cancel()
		rep := s.orch.Run(runCtx, handle, func(r ProbeResult) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.gen == gen && onResult != nil {
				onResult(r)
			}
		})
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen == gen {
			out <- rep
		}
	}()
	return gen, out
}

// Current reports the generation of the latest run.
func (s *Session) Current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Stop cancels the in-flight run, if any, and discards its results.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
