// Package enrich fetches best-effort context about a word: dictionary
// meanings, slang, and similarly named repositories. None of it feeds the
// verdict digest, and every lookup degrades to "not found".
package enrich

import (
	"context"
	"net/http"
	"time"

	gh "github.com/google/go-github/v60/github"
	"golang.org/x/sync/errgroup"

	"onomast/internal/logger"
)

const DefaultTimeout = 10 * time.Second

type Endpoints struct {
	Dictionary string
	Urban      string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Dictionary: "https://api.dictionaryapi.dev/api/v2/entries/en/%s",
		Urban:      "https://api.urbandictionary.com/v0/define",
	}
}

// Report bundles all enrichment for one word.
type Report struct {
	Dictionary DictionaryResult `json:"dictionary"`
	Urban      UrbanResult      `json:"urban"`
	GitHub     RepoSearchResult `json:"github"`
}

type Enricher struct {
	endpoints Endpoints
	http      *http.Client
	github    *gh.Client
	timeout   time.Duration
	log       *logger.Logger
}

func New(ep Endpoints, httpClient *http.Client, github *gh.Client, timeout time.Duration, log *logger.Logger) *Enricher {
	if ep.Dictionary == "" {
		ep.Dictionary = DefaultEndpoints().Dictionary
	}
	if ep.Urban == "" {
		ep.Urban = DefaultEndpoints().Urban
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if github == nil {
		github = gh.NewClient(httpClient)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Enricher{endpoints: ep, http: httpClient, github: github, timeout: timeout, log: logger.OrNop(log)}
}

// All runs the three lookups concurrently. Each lookup degrades on its own,
// so none of them returns an error to the group.
func (e *Enricher) All(ctx context.Context, word string) Report {
	var (
		rep Report
		g   errgroup.Group
	)
	g.Go(func() error { rep.Dictionary = e.Dictionary(ctx, word); return nil })
	g.Go(func() error { rep.Urban = e.Urban(ctx, word); return nil })
	g.Go(func() error { rep.GitHub = e.GitHubRepos(ctx, word); return nil })
	_ = g.Wait()
	return rep
}
