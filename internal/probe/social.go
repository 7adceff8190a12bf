package probe

import (
	"context"
	"fmt"
	"net/http"

	"onomast/internal/availability"
)

// SocialProbe issues a HEAD against the public profile URL without following
// redirects. 404 is available; 200 or any 3xx (login walls, canonical
// redirects) is taken; everything else is unknown.
type SocialProbe struct {
	Platform  string
	Template  string
	UserAgent string
	Client    *http.Client
}

// NoRedirectClient returns a client that hands 3xx responses back as-is.
func NoRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (p *SocialProbe) Source() availability.Source {
	return availability.Source{Kind: availability.KindSocial, Key: p.Platform}
}

func (p *SocialProbe) Check(ctx context.Context, handle string) availability.Outcome {
	if len(handle) == 0 || len(handle) > 100 {
		return availability.Outcome{Err: fmt.Errorf("social handle %q: %w", handle, availability.ErrRejected)}
	}
	profile := fill(p.Template, handle)
	meta := map[string]string{"profileUrl": profile}

	req, err := newRequest(ctx, http.MethodHead, profile, p.UserAgent)
	if err != nil {
		return availability.Outcome{Meta: meta, Err: err}
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return availability.Outcome{Meta: meta, Err: err}
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return availability.Outcome{Status: availability.StatusAvailable, Meta: meta}
	case resp.StatusCode == http.StatusOK, resp.StatusCode >= 300 && resp.StatusCode < 400:
		return availability.Outcome{Status: availability.StatusTaken, Meta: meta}
	default:
		return availability.Outcome{Status: availability.StatusUnknown, Meta: meta}
	}
}
