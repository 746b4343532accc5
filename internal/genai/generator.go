// Package genai produces structured document intelligence (summaries,
// department routing, deadlines) and retrieval-grounded answers via chat
// completions.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/openai/openai-go"
)

// DefaultMaxTokens is the maximum content length before truncation (in tokens).
const DefaultMaxTokens = 16000

// DocSummary is the structured summary extracted from a document. The first
// four fields are always populated; the rest are filled only when the
// document and target department warrant them.
type DocSummary struct {
	Category              string   `json:"category"`
	Description           string   `json:"description"`
	KeyPoints             []string `json:"key_points"`
	UrgencyLevel          string   `json:"urgency_level"`
	ActionableItems       []string `json:"actionable_items,omitempty"`
	Deadlines             []string `json:"deadlines,omitempty"`
	InvolvedPersonnel     []string `json:"involved_personnel,omitempty"`
	FinancialImplications string   `json:"financial_implications,omitempty"`
	ComplianceRisks       []string `json:"compliance_risks,omitempty"`
	EquipmentDetails      []string `json:"equipment_details,omitempty"`
}

// DepartmentPrediction lists every department a document likely concerns.
type DepartmentPrediction struct {
	PredictedDepartments []Department `json:"predicted_departments"`
}

// Generator produces structured extractions and answers using GPT-4o.
type Generator struct {
	client    *openai.Client
	maxTokens int
}

// NewGenerator creates a generator with the given OpenAI client.
// Optional maxTokens parameter sets truncation limit (defaults to DefaultMaxTokens).
func NewGenerator(client *openai.Client, maxTokens ...int) *Generator {
	max := DefaultMaxTokens
	if len(maxTokens) > 0 && maxTokens[0] > 0 {
		max = maxTokens[0]
	}
	return &Generator{
		client:    client,
		maxTokens: max,
	}
}

// GenerateSummary produces a department-tailored structured summary in the
// requested language. On generation failure it returns a fallback summary
// carrying the error instead of failing the caller.
func (g *Generator) GenerateSummary(ctx context.Context, content, language, department string) *DocSummary {
	truncated := g.truncateContent(content)

	system := fmt.Sprintf("You are an expert assistant for a metro rail operator. "+
		"Your task is to summarize documents for the %s. %s Respond in a structured format.",
		department, instructionFor(department))

	prompt := fmt.Sprintf(`Summarize the following document for the %s in %s.

Document content:
%s

Respond in JSON format:
{
  "category": "Category/type of the document (e.g., Incident Report, Maintenance Job Card, Invoice, Safety Circular)",
  "description": "A concise 2-3 line overview of the document's main purpose",
  "key_points": ["Most critical points or takeaways"],
  "urgency_level": "High, Medium, or Low",
  "actionable_items": ["Specific actionable tasks or next steps, if any"],
  "deadlines": ["Key dates, deadlines, or timeline events mentioned, if any"],
  "involved_personnel": ["Names or roles of individuals/teams mentioned, if any"],
  "financial_implications": "Summary of financial costs, figures, or budget impacts, if any",
  "compliance_risks": ["Risks related to safety, regulations, or compliance, if any"],
  "equipment_details": ["Specific equipment, assets, or parts mentioned, if any"]
}

Omit optional fields that do not apply.`, department, language, truncated)

	raw, err := g.jsonCompletion(ctx, system, prompt)
	if err != nil {
		return errorSummary(err)
	}

	summary, err := parseSummary(raw)
	if err != nil {
		return errorSummary(err)
	}
	return summary
}

// errorSummary is the degraded-but-shaped result for a failed generation.
func errorSummary(err error) *DocSummary {
	return &DocSummary{
		Category:     "Error",
		Description:  "Could not generate a summary due to an error.",
		KeyPoints:    []string{fmt.Sprintf("An error occurred: %v", err)},
		UrgencyLevel: "Low",
	}
}

// PredictDepartments predicts all relevant departments for a document,
// falling back to Operations on failure.
func (g *Generator) PredictDepartments(ctx context.Context, content string) *DepartmentPrediction {
	truncated := g.truncateContent(content)

	names := make([]string, len(AllDepartments))
	for i, d := range AllDepartments {
		names[i] = string(d)
	}

	system := "You are an expert at routing documents within a metro rail operator. " +
		"Based on the document content, predict all relevant departments it may concern."
	prompt := fmt.Sprintf(`Document content:

%s

Choose from exactly these departments:
- %s

Respond in JSON format:
{"predicted_departments": ["Department Name", "Another Department Name"]}`,
		truncated, strings.Join(names, "\n- "))

	raw, err := g.jsonCompletion(ctx, system, prompt)
	if err != nil {
		return &DepartmentPrediction{PredictedDepartments: []Department{DepartmentOperations}}
	}

	prediction, err := parseDepartments(raw)
	if err != nil || len(prediction.PredictedDepartments) == 0 {
		return &DepartmentPrediction{PredictedDepartments: []Department{DepartmentOperations}}
	}
	return prediction
}

// ExtractLastDate extracts the final deadline or last date for action from a
// document. Returns nil when no date is present or extraction fails.
func (g *Generator) ExtractLastDate(ctx context.Context, content string) *time.Time {
	truncated := g.truncateContent(content)

	system := "You are an expert legal assistant. Extract the final deadline or last date " +
		"for action mentioned in the document. The date should be in YYYY-MM-DD format."
	prompt := fmt.Sprintf(`Document content:

%s

Respond in JSON format:
{"last_date": "YYYY-MM-DD"}

Use null for last_date if no deadline is mentioned.`, truncated)

	raw, err := g.jsonCompletion(ctx, system, prompt)
	if err != nil {
		log.Printf("Error extracting date: %v", err)
		return nil
	}

	date, err := parseLastDate(raw)
	if err != nil {
		log.Printf("Error parsing extracted date: %v", err)
		return nil
	}
	return date
}

// Answer generates a natural-language answer to a query grounded in the
// retrieved document excerpts. Unlike the extraction calls, failures here
// propagate so the retrieval pipeline can surface a retrieval error.
func (g *Generator) Answer(ctx context.Context, query string, contexts []string) (string, error) {
	var sb strings.Builder
	for i, c := range contexts {
		fmt.Fprintf(&sb, "[%d] %s\n\n", i+1, c)
	}

	system := "You are a helpful assistant answering questions about a legal or operational document. " +
		"Answer using only the provided document excerpts. If the excerpts do not contain the answer, say so."
	prompt := fmt.Sprintf("Document excerpts:\n\n%sQuestion: %s", sb.String(), query)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModelGPT4o,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// jsonCompletion runs one chat completion in JSON-object mode and returns the
// raw response content.
func (g *Generator) jsonCompletion(ctx context.Context, system, prompt string) ([]byte, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModelGPT4o,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}
	return []byte(resp.Choices[0].Message.Content), nil
}

func parseSummary(raw []byte) (*DocSummary, error) {
	var summary DocSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse summary response: %w", err)
	}
	return &summary, nil
}

func parseDepartments(raw []byte) (*DepartmentPrediction, error) {
	var prediction DepartmentPrediction
	if err := json.Unmarshal(raw, &prediction); err != nil {
		return nil, fmt.Errorf("failed to parse department response: %w", err)
	}
	return &prediction, nil
}

func parseLastDate(raw []byte) (*time.Time, error) {
	var payload struct {
		LastDate *string `json:"last_date"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse date response: %w", err)
	}
	if payload.LastDate == nil || *payload.LastDate == "" {
		return nil, nil
	}
	date, err := time.Parse("2006-01-02", *payload.LastDate)
	if err != nil {
		return nil, fmt.Errorf("unexpected date format %q: %w", *payload.LastDate, err)
	}
	return &date, nil
}

// truncateContent truncates content to fit within token limits.
// Uses rough estimate of 4 characters per token.
func (g *Generator) truncateContent(content string) string {
	maxChars := g.maxTokens * 4
	if len(content) <= maxChars {
		return content
	}

	log.Printf("Warning: Truncating content from %d to %d characters (estimated %d tokens)",
		len(content), maxChars, g.maxTokens)

	return content[:maxChars]
}
