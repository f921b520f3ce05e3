package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/chanvekse/finance-ai-analyzer/internal/domain"
)

// DefaultReceiptModel is the Gemini model used for receipt capture.
const DefaultReceiptModel = "gemini-2.5-flash"

// ReceiptParser turns a receipt photo into one validated transaction. This
// is the optional capture path for cash spending that never hits a bank
// statement.
type ReceiptParser interface {
	ParseReceipt(ctx context.Context, imageBytes []byte, mimeType string) (domain.Transaction, error)
}

// GeminiReceiptParser is the ReceiptParser backed by the Gemini vision API.
type GeminiReceiptParser struct {
	model string
}

// NewGeminiReceiptParser creates a parser for the given model name; an empty
// name selects DefaultReceiptModel.
func NewGeminiReceiptParser(model string) *GeminiReceiptParser {
	if model == "" {
		model = DefaultReceiptModel
	}
	return &GeminiReceiptParser{model: model}
}

// ParseReceipt sends the image to Gemini and maps the strict-JSON response
// through the same validation the CSV path uses.
func (p *GeminiReceiptParser) ParseReceipt(ctx context.Context, imageBytes []byte, mimeType string) (domain.Transaction, error) {
	prompt :=
		"You are a receipt parser.\n\n" +
			"Task:\n" +
			"- Read the attached receipt image.\n" +
			"- Output STRICT JSON only (no comments, no extra text).\n" +
			"- Output a single JSON object with these fields:\n" +
			"  - \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
			"  - \"description\": string (merchant name as printed)\n" +
			"  - \"amount\": number (total paid, as a NEGATIVE value)\n\n" +
			"Return ONLY valid raw JSON.\n" +
			"Do NOT wrap the response in code fences.\n"

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ParseReceipt: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     imageBytes,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ParseReceipt: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return domain.Transaction{}, fmt.Errorf("ParseReceipt: empty response from model")
	}

	return decodeReceiptJSON(rawText)
}

// decodeReceiptJSON validates the model output. Split out so the mapping is
// testable without a live model.
func decodeReceiptJSON(raw string) (domain.Transaction, error) {
	clean := cleanModelJSON(raw)

	var payload struct {
		Date        string  `json:"date"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	}
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return domain.Transaction{}, fmt.Errorf("decodeReceiptJSON: unmarshal: %w\nraw response: %s", err, raw)
	}

	date, err := parseDate(payload.Date)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("decodeReceiptJSON: %w", err)
	}
	if strings.TrimSpace(payload.Description) == "" {
		return domain.Transaction{}, fmt.Errorf("decodeReceiptJSON: empty description")
	}

	tx := domain.Transaction{
		Date:        date,
		Description: strings.TrimSpace(payload.Description),
		Amount:      payload.Amount,
	}
	if err := tx.Validate(); err != nil {
		return domain.Transaction{}, fmt.Errorf("decodeReceiptJSON: %w", err)
	}
	return tx, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
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

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
