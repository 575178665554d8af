package llm

import "strings"

// Verdict is the outcome of scanning generated text against the forbidden-phrase
// policy. When not accepted, Phrase holds the first match.
type Verdict struct {
	Accepted bool
	Phrase   string
}

// Evaluate scans text, case-insensitively, for phrases indicating diagnostic
// overreach. Pure function: the phrase list comes from configuration.
func Evaluate(text string, forbiddenPhrases []string) Verdict {
	lower := strings.ToLower(text)
	for _, phrase := range forbiddenPhrases {
		if phrase != "" && strings.Contains(lower, strings.ToLower(phrase)) {
			return Verdict{Accepted: false, Phrase: phrase}
		}
	}
	return Verdict{Accepted: true}
}

// Confidence scores generated medical text heuristically: base 0.5, +0.2 when
// longer than 100 characters, +0.2 when it mentions a disclaimer or consulting
// a provider, capped at 0.9. Generated content never scores 1.0.
func Confidence(text string) float64 {
	if text == "" {
		return 0.0
	}

	confidence := 0.5

	if len(text) > 100 {
		confidence += 0.2
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "disclaimer") || strings.Contains(lower, "consult") {
		confidence += 0.2
	}

	if confidence > 0.9 {
		confidence = 0.9
	}

	return confidence
}
