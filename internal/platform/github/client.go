package github

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v60/github"
)

// NewClient builds a go-github client. token may be empty (unauthenticated,
// 60 requests/hour). baseURL overrides api.github.com, mainly for tests.
func NewClient(token, userAgent, baseURL string) (*gh.Client, error) {
	httpClient := &http.Client{
		Transport: &tokenTransport{token: strings.TrimSpace(token), userAgent: userAgent},
	}
	client := gh.NewClient(httpClient)
	if strings.TrimSpace(baseURL) != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
		client.BaseURL = u
	}
	return client, nil
}

// tokenTransport adds bearer auth and a stable User-Agent.
type tokenTransport struct {
	token     string
	userAgent string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	return http.DefaultTransport.RoundTrip(req)
}

// StatusCode extracts the HTTP status from a go-github response, 0 if none.
func StatusCode(resp *gh.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
