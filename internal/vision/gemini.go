// Package vision extracts canonical transactions from statement page images
// using an external vision model. The model is treated as an untrusted data
// source: every response is schema-validated and coerced before any row is
// accepted as canonical.
package vision

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/banktocfo/banktocfo/internal/domain"
)

// DefaultModel is the vision model used for statement extraction.
const DefaultModel = "gemini-2.5-flash"

// PageExtractor turns one statement page image into transactions. It is the
// contract boundary for the external model: implementations may be the real
// client or a deterministic stub in tests.
type PageExtractor interface {
	ExtractPage(ctx context.Context, pagePNG []byte) ([]domain.Transaction, error)
}

// Gemini is the production PageExtractor backed by the Gemini API.
// Credentials come from the environment (GEMINI_API_KEY), matching the rest
// of the genai client configuration.
type Gemini struct {
	model string
	log   zerolog.Logger
}

// NewGemini creates a Gemini-backed extractor. An empty model selects
// DefaultModel.
func NewGemini(model string, log zerolog.Logger) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{model: model, log: log}
}

// ExtractPage sends one page image with the structured-extraction prompt and
// coerces the response. Rows failing validation are dropped, not fatal.
func (g *Gemini) ExtractPage(ctx context.Context, pagePNG []byte) ([]domain.Transaction, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("vision: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: "image/png",
						Data:     pagePNG,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("vision: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("vision: empty response from model")
	}

	txs, dropped, err := coerceTransactions(cleanModelJSON(rawText))
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		g.log.Warn().Int("rows_dropped", dropped).Msg("Model returned rows failing schema validation")
	}
	return txs, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only from the first '[' to the last ']' if there is still junk
	// around the array.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
