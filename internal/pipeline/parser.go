package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used for statement parsing.
const DefaultModelName = "gemini-2.5-flash"

// Parser extracts transaction rows from a statement PDF.
type Parser interface {
	Parse(ctx context.Context, pdfBytes []byte) ([]ParsedRow, error)
}

// GeminiParser parses credit-card statement PDFs with Gemini. The prompt
// demands strict JSON; cleanModelJSON still strips fences when the model
// ignores that.
type GeminiParser struct {
	model string
}

func NewGeminiParser(model string) *GeminiParser {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiParser{model: model}
}

const statementPrompt = "You are a financial statement parser for credit card PDF statements.\n\n" +
	"Task:\n" +
	"- Parse ALL transactions in the attached credit card statement.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a JSON array of objects.\n\n" +
	"Each object must have these fields:\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"description\": string, the merchant or transaction description as printed\n" +
	"- \"amount\": number (positive for purchases and charges, negative for payments and refunds)\n" +
	"- \"category\": string, a short spending category such as \"Food\", \"Transport\", \"Shopping\"\n\n" +
	"Rules:\n" +
	"- If the statement shows charges and credits in separate columns, convert to a single signed \"amount\".\n" +
	"- Payments towards the card and refunds must have a negative amount.\n" +
	"- Do not invent transactions; parse only what is printed.\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n" +
	"Output must begin with \"[\" and end with \"]\".\n"

// Parse implements Parser.
func (p *GeminiParser) Parse(ctx context.Context, pdfBytes []byte) ([]ParsedRow, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("Parse: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: statementPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     pdfBytes,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("Parse: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("Parse: empty response from model")
	}

	clean := cleanModelJSON(rawText)

	var rows []ParsedRow
	if err := json.Unmarshal([]byte(clean), &rows); err != nil {
		return nil, fmt.Errorf("Parse: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}
	return rows, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk, keeping only
// the JSON array.
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

	// If there's still text around the JSON array, keep only from the first
	// '[' to the last ']'.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

var _ Parser = (*GeminiParser)(nil)
