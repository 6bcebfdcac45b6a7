// Package suggest asks Gemini for category suggestions on descriptions the
// rule table could not match. Suggestions are advisory: nothing is persisted
// until the user accepts one, which goes through the normal recategorization
// path and trains a rule.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModelName is the default Gemini model used for suggestions.
const DefaultModelName = "gemini-2.5-flash"

// Suggester maps transaction descriptions to category suggestions.
type Suggester interface {
	Suggest(ctx context.Context, categories, descriptions []string) (map[string]string, error)
}

// GeminiSuggester is the concrete implementation of Suggester backed by the
// Gemini API.
type GeminiSuggester struct {
	model string
}

// NewGeminiSuggester creates a suggester; an empty model name selects
// DefaultModelName.
func NewGeminiSuggester(model string) *GeminiSuggester {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiSuggester{model: model}
}

// Suggest asks the model to assign each description one of the given
// categories. It expects the model to return a STRICT JSON object mapping
// description to category; descriptions the model leaves out or maps to an
// unknown category are dropped from the result.
func (s *GeminiSuggester) Suggest(ctx context.Context, categories, descriptions []string) (map[string]string, error) {
	if len(categories) == 0 || len(descriptions) == 0 {
		return map[string]string{}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("Suggest: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(categories, descriptions)},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("Suggest: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("Suggest: empty response from model")
	}

	suggestions, err := parseSuggestions(rawText, categories)
	if err != nil {
		return nil, fmt.Errorf("Suggest: %w", err)
	}
	return suggestions, nil
}

// buildPrompt asks for strict JSON, one suggestion per description.
func buildPrompt(categories, descriptions []string) string {
	var sb strings.Builder
	sb.WriteString("You are a personal-finance assistant that assigns spending categories to bank transaction descriptions.\n\n")
	sb.WriteString("Task:\n")
	sb.WriteString("- For EACH description below, pick the single best category from the allowed list.\n")
	sb.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	sb.WriteString("- Output a JSON object mapping each description string to its category string.\n\n")

	sb.WriteString("Allowed categories:\n")
	for _, c := range categories {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}

	sb.WriteString("\nDescriptions:\n")
	for _, d := range descriptions {
		sb.WriteString("- ")
		sb.WriteString(d)
		sb.WriteString("\n")
	}

	sb.WriteString("\nRules:\n")
	sb.WriteString("- Use only categories from the allowed list, spelled exactly as given.\n")
	sb.WriteString("- If no category fits a description, omit that description from the object.\n")
	sb.WriteString("- Return ONLY valid raw JSON.\n")
	sb.WriteString("- Do NOT wrap the response in code fences.\n")
	sb.WriteString("- Do NOT use ```json or any Markdown.\n")
	sb.WriteString("Output must begin with \"{\" and end with \"}\".\n")
	return sb.String()
}

// parseSuggestions decodes the model output, tolerating Markdown fences, and
// drops any suggestion outside the allowed category list.
func parseSuggestions(raw string, categories []string) (map[string]string, error) {
	clean := cleanModelJSON(raw)

	var parsed map[string]string
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w\nraw response: %s", err, raw)
	}

	allowed := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		allowed[c] = struct{}{}
	}

	suggestions := make(map[string]string, len(parsed))
	for description, category := range parsed {
		if _, ok := allowed[category]; !ok {
			continue
		}
		suggestions[description] = category
	}
	return suggestions, nil
}

// cleanModelJSON strips Markdown fences and any text outside the outermost
// JSON object if the model ignored instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
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

	// Trim leading/trailing prose around the outermost object.
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end != -1 && end > start {
		s = s[start : end+1]
	}
	return s
}
