package verdict

import (
	"bytes"
	"fmt"
	"strings"

	"onomast/internal/availability"
	"onomast/internal/llm"
)

var localeNames = map[string]string{
	"en":      "English",
	"ko":      "Korean",
	"ja":      "Japanese",
	"zh-Hans": "Simplified Chinese",
	"zh-Hant": "Traditional Chinese",
	"es":      "Spanish",
	"fr":      "French",
	"de":      "German",
	"pt":      "Portuguese",
}

// Schema is the structured output every verdict must satisfy.
var Schema = &llm.Schema{
	Type:     "object",
	Required: []string{"positivity", "vibe", "reason", "whyGood", "whyBad", "redditTake", "similarCompanies"},
	Ordering: []string{"positivity", "vibe", "reason", "whyGood", "whyBad", "redditTake", "similarCompanies"},
	Properties: map[string]*llm.Schema{
		"positivity": {Type: "integer", Description: "Positivity score from 0 to 100 as a name for a product/company/project"},
		"vibe":       {Type: "string", Enum: []string{string(Positive), string(Neutral), string(Negative)}},
		"reason":     {Type: "string", Description: "One-line summary of the overall verdict."},
		"whyGood":    {Type: "string", Description: "Why this is a good name. Be direct. 1-2 sentences."},
		"whyBad":     {Type: "string", Description: "Why this is a bad name. Be brutally honest. 1-2 sentences."},
		"redditTake": {Type: "string", Description: "What an average Redditor would say about this name in a comment. Snarky, opinionated, maybe a pun. Written as a direct quote."},
		"similarCompanies": {
			Type:        "array",
			Items:       &llm.Schema{Type: "string"},
			Description: "Real existing companies or products with similar-sounding names. 1-5 entries. Empty array if none.",
		},
	},
}

// BuildPrompt renders the generation prompt. It is a pure function of the
// canonical input, which is what makes caching by digest sound.
func BuildPrompt(in Input) string {
	c := Canonicalize(in)

	var buf bytes.Buffer
	writeSection(&buf, "PURPOSE", fmt.Sprintf("Analyze %q as a product/company/project name. Be direct and opinionated.", c.Name))
	writeSection(&buf, "CONTEXT", formatContext(c))
	writeSection(&buf, "AVAILABILITY", formatAvailability(c))
	writeSection(&buf, "TASKS", formatList([]string{
		"Rate positivity 0-100.",
		"Give a one-line reason for the overall verdict.",
		"Why is it a GOOD name? Be specific.",
		"Why is it a BAD name? Be brutally honest. Weigh taken domains, handles and packages the owner does not already hold.",
		"Write a snarky Reddit comment reacting to this name. Opinionated, funny, maybe a pun.",
		fmt.Sprintf("List real existing companies or products that sound similar to %q. Only include real ones.", c.Name),
	}))
	writeSection(&buf, "RULES", formatList([]string{
		"No corporate speak. No fluff. Say it like you mean it.",
		"Treat unknown availability as unknown, not as available.",
	}))
	writeSection(&buf, "LANGUAGE", fmt.Sprintf("Write every text field in %s.", localeName(c.Locale)))
	return strings.TrimSpace(buf.String()) + "\n"
}

func formatContext(c Input) string {
	items := []string{"Handle used for checks: " + c.Handle}
	if c.Description != "" {
		items = append(items, fmt.Sprintf("Described as: %q. Factor this into the analysis.", c.Description))
	}
	if c.Region != "" {
		items = append(items, "Target region: "+c.Region)
	}
	if c.Language != "" {
		items = append(items, "Target market language: "+c.Language)
	}
	return formatList(items)
}

func formatAvailability(c Input) string {
	owned := map[availability.Source]bool{}
	for _, d := range c.Owned.Domains {
		owned[availability.Source{Kind: availability.KindDomain, Key: d}] = true
	}
	for _, s := range c.Owned.Social {
		owned[availability.Source{Kind: availability.KindSocial, Key: s}] = true
	}
	for _, p := range c.Owned.Packages {
		owned[availability.Source{Kind: availability.KindPackage, Key: p}] = true
	}

	line := func(label string, kind availability.Kind, entries []availability.Entry, display func(string) string) string {
		parts := make([]string, 0, len(entries))
		for _, e := range entries {
			st := string(e.Status)
			if owned[availability.Source{Kind: kind, Key: e.Key}] {
				st += ", owned"
			}
			parts = append(parts, fmt.Sprintf("%s (%s)", display(e.Key), st))
		}
		return label + ": " + strings.Join(parts, ", ")
	}
	asIs := func(k string) string { return k }

	gh := "unknown"
	if c.Snapshot.GitHub != nil {
		gh = string(c.Snapshot.GitHub.Status)
		if c.Snapshot.GitHub.AccountType != "" {
			gh += ", " + c.Snapshot.GitHub.AccountType
		}
	}
	if c.Owned.GitHub {
		gh += ", owned"
	}

	return formatList([]string{
		line("Domains", availability.KindDomain, c.Snapshot.Domains, func(tld string) string { return c.Handle + "." + tld }),
		line("Social handles", availability.KindSocial, c.Snapshot.Social, asIs),
		line("Package registries", availability.KindPackage, c.Snapshot.Packages, asIs),
		"GitHub account: " + gh,
	})
}

func localeName(l string) string {
	if n, ok := localeNames[l]; ok {
		return n
	}
	return localeNames["en"]
}

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
