package lang

import "strings"

// fillerWords are discourse tokens the recognizer hears that carry no
// command meaning. Matched against whole tokens only.
var fillerWords = map[string]struct{}{
	"अ": {}, "आ": {}, "आँ": {}, "अं": {},
	"हम्म": {}, "हूं": {}, "हूँ": {},
	"मतलब": {},
	"तो":    {},
	"जैसे":  {},
	"वो":    {},
	"ना":    {},
	"उह":    {},
	"ओह":    {},
}

// Normalize prepares a recognized utterance for routing:
// filler tokens are dropped, immediately repeated tokens (stutter) are
// collapsed, and whitespace is canonicalized to single spaces.
//
// Empty input yields empty output; the router treats that as "no command".
func Normalize(text string) string {
	words := strings.Fields(text)

	cleaned := make([]string, 0, len(words))
	previous := ""
	for _, word := range words {
		if _, filler := fillerWords[word]; filler {
			continue
		}
		if word == previous {
			continue
		}
		cleaned = append(cleaned, word)
		previous = word
	}
	return strings.Join(cleaned, " ")
}
