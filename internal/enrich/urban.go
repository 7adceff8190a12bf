package enrich

import (
	"context"
	"net/url"
	"strings"
)

type UrbanResult struct {
	Found   bool         `json:"found"`
	Entries []UrbanEntry `json:"entries"`
}

type UrbanEntry struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Example    string `json:"example"`
	ThumbsUp   int    `json:"thumbsUp"`
	ThumbsDown int    `json:"thumbsDown"`
	Author     string `json:"author"`
	Permalink  string `json:"permalink"`
}

var bracketStripper = strings.NewReplacer("[", "", "]", "")

// Urban returns the top three Urban Dictionary entries with the site's
// [cross-link] brackets removed.
func (e *Enricher) Urban(ctx context.Context, word string) UrbanResult {
	word = strings.TrimSpace(word)
	miss := UrbanResult{Entries: []UrbanEntry{}}
	if word == "" {
		return miss
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var body struct {
		List []struct {
			Word       string `json:"word"`
			Definition string `json:"definition"`
			Example    string `json:"example"`
			ThumbsUp   int    `json:"thumbs_up"`
			ThumbsDown int    `json:"thumbs_down"`
			Author     string `json:"author"`
			Permalink  string `json:"permalink"`
		} `json:"list"`
	}
	q := url.Values{}
	q.Set("term", word)
	if err := e.getJSON(ctx, e.endpoints.Urban+"?"+q.Encode(), &body); err != nil {
		e.log.Debug("urban lookup failed", "word", word, "error", err)
		return miss
	}

	out := UrbanResult{Found: len(body.List) > 0, Entries: []UrbanEntry{}}
	for i, item := range body.List {
		if i == 3 {
			break
		}
		out.Entries = append(out.Entries, UrbanEntry{
			Word:       item.Word,
			Definition: bracketStripper.Replace(item.Definition),
			Example:    bracketStripper.Replace(item.Example),
			ThumbsUp:   item.ThumbsUp,
			ThumbsDown: item.ThumbsDown,
			Author:     item.Author,
			Permalink:  item.Permalink,
		})
	}
	return out
}
