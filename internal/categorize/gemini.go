package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/dvloznov/bank-portal-sync/internal/logger"
	"google.golang.org/genai"
)

// DefaultModelName is used when no model is configured.
const DefaultModelName = "gemini-2.5-flash"

const defaultBatchSize = 100

// Generator sends a text prompt to a model and returns its text answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenAIGenerator calls Gemini through the genai SDK.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

// NewGenAIGenerator creates a client from the environment (GOOGLE_API_KEY or
// Vertex AI settings).
func NewGenAIGenerator(ctx context.Context, model string) (*GenAIGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGenAIGenerator: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

// Generate sends prompt as a single user turn.
func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Generate: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Generate: empty response from model")
	}
	return text, nil
}

// GeminiCategorizer asks a model for the category of every transaction the
// keyword rules left uncategorized. When the model fails the rule categories
// are kept.
type GeminiCategorizer struct {
	gen       Generator
	fallback  Categorizer
	batchSize int
}

// NewGeminiCategorizer creates a categorizer on gen.
func NewGeminiCategorizer(gen Generator) *GeminiCategorizer {
	return &GeminiCategorizer{gen: gen, fallback: NewRuleCategorizer(), batchSize: defaultBatchSize}
}

type modelAnswer struct {
	Index      int     `json:"index"`
	CategoryID string  `json:"category_id"`
	Confidence float64 `json:"confidence"`
}

// Categorize never returns an error for model failures; they are logged and
// the affected transactions stay uncategorized.
func (c *GeminiCategorizer) Categorize(ctx context.Context, txs []domain.Transaction) ([]domain.Transaction, error) {
	log := logger.FromContext(ctx)

	out, err := c.fallback.Categorize(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("Categorize: %w", err)
	}

	var pending []int
	for i, tx := range txs {
		if NeedsCategory(tx) {
			pending = append(pending, i)
		}
	}

	assigned := 0
	for start := 0; start < len(pending); start += c.batchSize {
		end := min(start+c.batchSize, len(pending))
		batch := pending[start:end]

		answers, err := c.ask(ctx, out, batch)
		if err != nil {
			log.Warn().Err(err).Int("batch_size", len(batch)).Msg("Model categorization failed, keeping rule categories")
			continue
		}

		for _, a := range answers {
			if a.Index < 0 || a.Index >= len(batch) {
				continue
			}
			if _, ok := Categories[a.CategoryID]; !ok {
				continue
			}
			tx := &out[batch[a.Index]]
			tx.CategoryID = a.CategoryID
			tx.CategoryConfidence = clampConfidence(a.Confidence)
			assigned++
		}
	}

	log.Info().Int("pending", len(pending)).Int("assigned", assigned).Msg("Model categorization done")
	return out, nil
}

func (c *GeminiCategorizer) ask(ctx context.Context, txs []domain.Transaction, batch []int) ([]modelAnswer, error) {
	raw, err := c.gen.Generate(ctx, buildPrompt(txs, batch))
	if err != nil {
		return nil, err
	}

	var answers []modelAnswer
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &answers); err != nil {
		return nil, fmt.Errorf("ask: unmarshal JSON: %w\nraw response: %s", err, raw)
	}
	return answers, nil
}

func buildPrompt(txs []domain.Transaction, batch []int) string {
	ids := make([]string, 0, len(Categories))
	for id := range Categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("You categorize French bank statement lines.\n\n")
	b.WriteString("Use ONLY the following category ids:\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "- %s: %s\n", id, Categories[id])
	}

	b.WriteString("\nTransactions (index | amount EUR | label):\n")
	for i, idx := range batch {
		tx := txs[idx]
		fmt.Fprintf(&b, "%d | %s | %s\n", i, tx.Amount.StringFixed(2), tx.Label)
	}

	b.WriteString("\nReturn a JSON array of objects with fields \"index\" (number), " +
		"\"category_id\" (string) and \"confidence\" (number between 0 and 1).\n" +
		"Skip transactions you cannot categorize.\n" +
		"Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n" +
		"Output must begin with \"[\" and end with \"]\".\n")
	return b.String()
}

func clampConfidence(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// cleanModelJSON strips Markdown fences and text around the outer JSON array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}
