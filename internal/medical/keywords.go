package medical

import (
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// Filler words that would otherwise dominate the leading keywords of a query
// like "I have a headache".
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "i": true, "my": true,
	"me": true, "of": true, "in": true, "on": true, "is": true, "am": true,
	"are": true, "to": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "can": true, "what": true, "with": true,
	"feel": true, "feeling": true, "it": true, "this": true, "that": true,
	"very": true, "really": true, "for": true,
}

// Keywords tokenizes free text into lowercase lookup keywords, dropping filler
// and punctuation, capped at max (0 means no cap).
func Keywords(text string, max int) []string {
	var words []string

	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		words = strings.Fields(text)
	} else {
		for _, tok := range doc.Tokens() {
			words = append(words, tok.Text)
		}
	}

	var keywords []string
	for _, word := range words {
		word = strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}))
		if len(word) < 2 || stopwords[word] {
			continue
		}
		keywords = append(keywords, word)
		if max > 0 && len(keywords) >= max {
			break
		}
	}

	return keywords
}
