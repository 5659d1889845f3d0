// internal/hint/oracle.go
//
// Hint Oracle boundary. The engine calls GetHint with a bounded timeout;
// whatever happens upstream, the engine always ends up with usable text
// because it falls back to the deterministic local hint on any error.
package hint

import (
	"context"
	"fmt"
	"strings"
)

// Styles the oracle understands.
const (
	StyleDefinition = "definition"
	StyleUsage      = "usage"
	StyleRhyme      = "rhyme"
	StyleContext    = "context"
)

// Oracle produces a one-line hint for a secret word.
// Implementations must not reveal the word itself.
type Oracle interface {
	GetHint(ctx context.Context, word, style string, guessesSoFar []string) (string, error)
}

// Local is the deterministic fallback oracle: hints derived purely from
// the word's shape, so it never fails and never needs a network.
type Local struct{}

func (Local) GetHint(_ context.Context, word, _ string, _ []string) (string, error) {
	return Fallback(word), nil
}

// Fallback derives a hint from word length, vowel count, and the first
// and last letters. Same word, same hint.
func Fallback(word string) string {
	w := strings.ToUpper(strings.TrimSpace(word))
	if w == "" {
		return "It's a common English word. Try thinking of everyday usage."
	}
	vowelCount := 0
	for _, ch := range w {
		if strings.ContainsRune("AEIOU", ch) {
			vowelCount++
		}
	}
	plural := "s"
	if vowelCount == 1 {
		plural = ""
	}
	return fmt.Sprintf("A %d-letter word with %d vowel%s that starts with %c and ends with %c.",
		len(w), vowelCount, plural, w[0], w[len(w)-1])
}
