package verdict

// DegradedText fills every text field of the fallback verdict.
const DegradedText = "AI service unavailable."

const degradedScore = 50

// Degraded is the fixed verdict returned when generation fails. It is never
// persisted, so the next identical request gets to try again.
func Degraded(in Input) Record {
	c := Canonicalize(in)
	return Record{
		Name:          c.Name,
		Description:   c.Description,
		Region:        c.Region,
		Language:      c.Language,
		Locale:        c.Locale,
		Positivity:    degradedScore,
		Sentiment:     Neutral,
		Reason:        DegradedText,
		WhyGood:       DegradedText,
		WhyBad:        DegradedText,
		RedditTake:    DegradedText,
		SimilarNames:  []string{},
		Model:         c.Model,
		PromptVersion: c.PromptVersion,
	}
}

// IsDegraded recognises the fallback by its fixed content.
func IsDegraded(r Record) bool {
	return r.Reason == DegradedText &&
		r.Positivity == degradedScore &&
		r.Sentiment == Neutral &&
		len(r.SimilarNames) == 0
}
