package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"onomast/internal/availability"
)

// DNS response codes from RFC 1035 as reported by dns.google.
const (
	dnsNoError  = 0
	dnsNXDomain = 3
)

// DNSProbe resolves handle.tld (type A) through a DNS-over-HTTPS JSON API.
// NXDOMAIN is available; NOERROR, with or without answers, is taken.
type DNSProbe struct {
	TLD      string
	Endpoint string
	Client   *http.Client
}

func (p *DNSProbe) Source() availability.Source {
	return availability.Source{Kind: availability.KindDomain, Key: p.TLD}
}

type dohResponse struct {
	Status int `json:"Status"`
	Answer []struct {
		Data string `json:"data"`
	} `json:"Answer"`
}

func (p *DNSProbe) Check(ctx context.Context, handle string) availability.Outcome {
	if len(handle) == 0 || len(handle) > 63 {
		return availability.Outcome{Err: fmt.Errorf("domain label %q: %w", handle, availability.ErrRejected)}
	}
	domain := handle + "." + p.TLD
	meta := map[string]string{"domain": domain}

	q := url.Values{}
	q.Set("name", domain)
	q.Set("type", "A")
	req, err := newRequest(ctx, http.MethodGet, p.Endpoint+"?"+q.Encode(), "")
	if err != nil {
		return availability.Outcome{Meta: meta, Err: err}
	}
	req.Header.Set("Accept", "application/dns-json")
	resp, err := p.Client.Do(req)
	if err != nil {
		return availability.Outcome{Meta: meta, Err: err}
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return availability.Outcome{Status: availability.StatusUnknown, Meta: meta}
	}

	var body dohResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&body); err != nil {
		return availability.Outcome{Meta: meta, Err: fmt.Errorf("decode dns answer: %w", err)}
	}
	switch body.Status {
	case dnsNXDomain:
		return availability.Outcome{Status: availability.StatusAvailable, Meta: meta}
	case dnsNoError:
		if len(body.Answer) > 0 {
			meta["address"] = body.Answer[0].Data
		}
		return availability.Outcome{Status: availability.StatusTaken, Meta: meta}
	default:
		return availability.Outcome{Status: availability.StatusUnknown, Meta: meta}
	}
}
