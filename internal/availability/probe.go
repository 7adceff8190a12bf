package availability

import (
	"context"
	"time"
)

// Probe answers "is this handle taken at one source". Check must honour ctx;
// a probe that does not is abandoned when its timeout fires.
type Probe interface {
	Source() Source
	Check(ctx context.Context, handle string) Outcome
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc struct {
	Src Source
	Fn  func(ctx context.Context, handle string) Outcome
}

func (p ProbeFunc) Source() Source { return p.Src }
func (p ProbeFunc) Check(ctx context.Context, handle string) Outcome {
	return p.Fn(ctx, handle)
}

// ProbeResult is the normalized, immutable result for one source.
type ProbeResult struct {
	Source   Source            `json:"source"`
	Status   Status            `json:"status"`
	Meta     map[string]string `json:"meta,omitempty"`
	Duration time.Duration     `json:"-"`
}
