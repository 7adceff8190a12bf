package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"onomast/internal/availability"
)

// AptProbe asks the Debian sources search API for an exact source package
// match. The API answers 200 either way, so the body decides.
type AptProbe struct {
	Template  string
	UserAgent string
	Client    *http.Client
}

func (p *AptProbe) Source() availability.Source {
	return availability.Source{Kind: availability.KindPackage, Key: "apt"}
}

type aptSearch struct {
	Results struct {
		Exact *struct {
			Name string `json:"name"`
		} `json:"exact"`
	} `json:"results"`
}

func (p *AptProbe) Check(ctx context.Context, handle string) availability.Outcome {
	if len(handle) == 0 || len(handle) > 100 {
		return availability.Outcome{Err: fmt.Errorf("package name %q: %w", handle, availability.ErrRejected)}
	}
	meta := map[string]string{"url": fill(packagePages["apt"], handle)}

	req, err := newRequest(ctx, http.MethodGet, fill(p.Template, handle), p.UserAgent)
	if err != nil {
		return availability.Outcome{Meta: meta, Err: err}
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return availability.Outcome{Meta: meta, Err: err}
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return availability.Outcome{Status: availability.StatusUnknown, Meta: meta}
	}

	var body aptSearch
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&body); err != nil {
		return availability.Outcome{Meta: meta, Err: fmt.Errorf("decode apt search: %w", err)}
	}
	if body.Results.Exact != nil {
		return availability.Outcome{Status: availability.StatusTaken, Meta: meta}
	}
	return availability.Outcome{Status: availability.StatusAvailable, Meta: meta}
}
