package probe

import (
	"context"
	"fmt"
	"net/http"

	"onomast/internal/availability"
)

// RegistryProbe is a single existence check against a package registry:
// a GET whose status code alone decides the answer.
type RegistryProbe struct {
	Registry  string
	Template  string
	UserAgent string
	// Absent lists status codes meaning "no such package"; defaults to 404.
	Absent []int
	Client *http.Client
}

func (p *RegistryProbe) Source() availability.Source {
	return availability.Source{Kind: availability.KindPackage, Key: p.Registry}
}

func (p *RegistryProbe) Check(ctx context.Context, handle string) availability.Outcome {
	if len(handle) == 0 || len(handle) > 100 {
		return availability.Outcome{Err: fmt.Errorf("package name %q: %w", handle, availability.ErrRejected)}
	}
	meta := map[string]string{}
	if page, ok := packagePages[p.Registry]; ok {
		meta["url"] = fill(page, handle)
	}

	req, err := newRequest(ctx, http.MethodGet, fill(p.Template, handle), p.UserAgent)
	if err != nil {
		return availability.Outcome{Meta: meta, Err: err}
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return availability.Outcome{Meta: meta, Err: err}
	}
	defer drain(resp)

	absent := p.Absent
	if len(absent) == 0 {
		absent = []int{http.StatusNotFound}
	}
	return availability.Outcome{Status: classify(resp.StatusCode, absent...), Meta: meta}
}
