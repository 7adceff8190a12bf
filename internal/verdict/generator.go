package verdict

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"onomast/internal/llm"
)

// Generator produces a verdict for a canonical input. It may fail; callers
// substitute Degraded.
type Generator interface {
	Generate(ctx context.Context, in Input) (Record, error)
}

// LLMGenerator asks an llm.Client for a Schema-shaped document.
type LLMGenerator struct {
	Client llm.Client
}

func NewLLMGenerator(c llm.Client) *LLMGenerator { return &LLMGenerator{Client: c} }

type modelVerdict struct {
	Positivity       *float64 `json:"positivity"`
	Vibe             string   `json:"vibe"`
	Reason           string   `json:"reason"`
	WhyGood          string   `json:"whyGood"`
	WhyBad           string   `json:"whyBad"`
	RedditTake       string   `json:"redditTake"`
	SimilarCompanies []string `json:"similarCompanies"`
}

const maxSimilarNames = 5

func (g *LLMGenerator) Generate(ctx context.Context, in Input) (Record, error) {
	c := Canonicalize(in)
	raw, err := g.Client.GenerateJSON(ctx, BuildPrompt(c), Schema)
	if err != nil {
		return Record{}, err
	}
	rec, err := parseVerdict(raw)
	if err != nil {
		return Record{}, err
	}
	rec.Name = c.Name
	rec.Description = c.Description
	rec.Region = c.Region
	rec.Language = c.Language
	rec.Locale = c.Locale
	rec.Model = c.Model
	rec.PromptVersion = c.PromptVersion
	return rec, nil
}

// parseVerdict decodes and tidies model output: the score is clamped to
// 0..100, a bad sentiment is derived from the score, and similar names are
// trimmed, de-duplicated and capped.
func parseVerdict(raw json.RawMessage) (Record, error) {
	var mv modelVerdict
	if err := json.Unmarshal(raw, &mv); err != nil {
		return Record{}, fmt.Errorf("%w: %v", llm.ErrInvalidJSON, err)
	}
	if mv.Positivity == nil || math.IsNaN(*mv.Positivity) {
		return Record{}, fmt.Errorf("%w: positivity missing", llm.ErrInvalidJSON)
	}
	rec := Record{
		Positivity: clampScore(*mv.Positivity),
		Sentiment:  Sentiment(strings.ToLower(strings.TrimSpace(mv.Vibe))),
		Reason:     strings.TrimSpace(mv.Reason),
		WhyGood:    strings.TrimSpace(mv.WhyGood),
		WhyBad:     strings.TrimSpace(mv.WhyBad),
		RedditTake: strings.TrimSpace(mv.RedditTake),
	}
	if rec.WhyGood == "" || rec.WhyBad == "" || rec.RedditTake == "" {
		return Record{}, fmt.Errorf("%w: empty text field", llm.ErrInvalidJSON)
	}
	if !rec.Sentiment.Valid() {
		rec.Sentiment = sentimentFor(rec.Positivity)
	}
	if rec.Reason == "" {
		rec.Reason = rec.WhyGood
	}

	seen := map[string]bool{}
	rec.SimilarNames = make([]string, 0, maxSimilarNames)
	for _, n := range mv.SimilarCompanies {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		rec.SimilarNames = append(rec.SimilarNames, n)
		if len(rec.SimilarNames) == maxSimilarNames {
			break
		}
	}
	return rec, nil
}

func clampScore(f float64) int {
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	}
	return int(math.Round(f))
}

func sentimentFor(score int) Sentiment {
	switch {
	case score >= 60:
		return Positive
	case score <= 40:
		return Negative
	}
	return Neutral
}
