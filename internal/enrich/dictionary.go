package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type DictionaryResult struct {
	Found     bool      `json:"found"`
	Word      string    `json:"word"`
	Phonetic  string    `json:"phonetic,omitempty"`
	Meanings  []Meaning `json:"meanings"`
	SourceURL string    `json:"sourceUrl,omitempty"`
}

type Meaning struct {
	PartOfSpeech string       `json:"partOfSpeech"`
	Definitions  []Definition `json:"definitions"`
	Synonyms     []string     `json:"synonyms"`
	Antonyms     []string     `json:"antonyms"`
}

type Definition struct {
	Definition string `json:"definition"`
	Example    string `json:"example,omitempty"`
}

type dictEntry struct {
	Word      string `json:"word"`
	Phonetics []struct {
		Text string `json:"text"`
	} `json:"phonetics"`
	Meanings []struct {
		PartOfSpeech string `json:"partOfSpeech"`
		Definitions  []struct {
			Definition string `json:"definition"`
			Example    string `json:"example"`
		} `json:"definitions"`
		Synonyms []string `json:"synonyms"`
		Antonyms []string `json:"antonyms"`
	} `json:"meanings"`
	SourceURLs []string `json:"sourceUrls"`
}

// Dictionary looks word up in the free dictionary API, keeping at most three
// definitions per meaning.
func (e *Enricher) Dictionary(ctx context.Context, word string) DictionaryResult {
	word = strings.TrimSpace(word)
	miss := DictionaryResult{Word: word, Meanings: []Meaning{}}
	if word == "" {
		return miss
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var entries []dictEntry
	if err := e.getJSON(ctx, fmt.Sprintf(e.endpoints.Dictionary, url.PathEscape(word)), &entries); err != nil {
		e.log.Debug("dictionary lookup failed", "word", word, "error", err)
		return miss
	}
	if len(entries) == 0 {
		return miss
	}

	en := entries[0]
	out := DictionaryResult{Found: true, Word: en.Word, Meanings: make([]Meaning, 0, len(en.Meanings))}
	for _, p := range en.Phonetics {
		if p.Text != "" {
			out.Phonetic = p.Text
			break
		}
	}
	for _, m := range en.Meanings {
		mm := Meaning{PartOfSpeech: m.PartOfSpeech, Synonyms: nonNil(m.Synonyms), Antonyms: nonNil(m.Antonyms)}
		for i, d := range m.Definitions {
			if i == 3 {
				break
			}
			mm.Definitions = append(mm.Definitions, Definition{Definition: d.Definition, Example: d.Example})
		}
		out.Meanings = append(out.Meanings, mm)
	}
	if len(en.SourceURLs) > 0 {
		out.SourceURL = en.SourceURLs[0]
	}
	return out
}

func (e *Enricher) getJSON(ctx context.Context, target string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("GET %s: status %d", target, resp.StatusCode)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(dst)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
