// internal/hint/gemini.go
//
// Gemini-backed Oracle. Prompt rules keep the hint useful without
// spoiling: never say the word, no letters or positions, one sentence.
// A response that contains the word anyway is replaced with a bland
// stand-in rather than leaked.
package hint

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModel = "gemini-2.5-flash"

// Gemini calls the generative model for hint text.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini constructs the client. apiKey must be non-empty.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client, model: client.GenerativeModel(geminiModel)}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() { _ = g.client.Close() }

func (g *Gemini) GetHint(ctx context.Context, word, style string, guessesSoFar []string) (string, error) {
	word = strings.ToUpper(strings.TrimSpace(word))
	prompt := buildPrompt(word, style, guessesSoFar)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("hint: empty response")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", errors.New("hint: unexpected response part")
	}
	out := strings.TrimSpace(string(text))
	if out == "" {
		return "", errors.New("hint: blank hint")
	}
	// Spoiler guard.
	if strings.Contains(strings.ToUpper(out), word) {
		return "It's a common English word. Try thinking of everyday usage.", nil
	}
	return out, nil
}

func buildPrompt(word, style string, guessesSoFar []string) string {
	var b strings.Builder
	b.WriteString("You are generating hints for a word-guessing game.\n")
	fmt.Fprintf(&b, "Target word: %s\n", word)
	fmt.Fprintf(&b, "Hint style: %s\n", style)
	if len(guessesSoFar) > 0 {
		fmt.Fprintf(&b, "The player already guessed: %s\n", strings.Join(guessesSoFar, ", "))
	}
	b.WriteString("Rules:\n")
	b.WriteString("- Do NOT say the target word.\n")
	b.WriteString("- Do NOT reveal letters or positions.\n")
	b.WriteString("- Do NOT give an anagram.\n")
	b.WriteString("- Keep it to ONE short sentence.\n")
	b.WriteString("Return only the hint.")
	return b.String()
}
