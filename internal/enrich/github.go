package enrich

import (
	"context"
	"strings"

	gh "github.com/google/go-github/v60/github"
)

type RepoSearchResult struct {
	TotalCount int    `json:"totalCount"`
	Repos      []Repo `json:"repos"`
}

type Repo struct {
	Name        string `json:"name"`
	FullName    string `json:"fullName"`
	Description string `json:"description,omitempty"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	HTMLURL     string `json:"htmlUrl"`
	Language    string `json:"language,omitempty"`
}

// GitHubRepos returns the five most-starred repositories with word in their name.
func (e *Enricher) GitHubRepos(ctx context.Context, word string) RepoSearchResult {
	word = strings.TrimSpace(word)
	miss := RepoSearchResult{Repos: []Repo{}}
	if word == "" {
		return miss
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, _, err := e.github.Search.Repositories(ctx, word+" in:name", &gh.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: gh.ListOptions{PerPage: 5},
	})
	if err != nil {
		e.log.Debug("github repo search failed", "word", word, "error", err)
		return miss
	}

	out := RepoSearchResult{TotalCount: res.GetTotal(), Repos: make([]Repo, 0, 5)}
	for i, r := range res.Repositories {
		if i == 5 {
			break
		}
		out.Repos = append(out.Repos, Repo{
			Name:        r.GetName(),
			FullName:    r.GetFullName(),
			Description: r.GetDescription(),
			Stars:       r.GetStargazersCount(),
			Forks:       r.GetForksCount(),
			HTMLURL:     r.GetHTMLURL(),
			Language:    r.GetLanguage(),
		})
	}
	return out
}
