package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"product-pulse/internal/models"
	"product-pulse/shared/config"
)

const (
	maxAttributePhrases = 10
	maxAudiencePhrases  = 5
)

// Analyzer backs the language-analysis capabilities with Gemini. Callers
// treat any error as the capability being unavailable for that input.
type Analyzer struct {
	client *genai.Client
	model  string
	log    *logrus.Logger
}

func NewAnalyzer(cfg *config.AIConfig, log *logrus.Logger) (*Analyzer, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Analyzer{
		client: client,
		model:  cfg.Model,
		log:    log,
	}, nil
}

// ScoreSentiment rates one span of review text on a 0 (negative) to
// 1 (positive) scale.
func (a *Analyzer) ScoreSentiment(ctx context.Context, text string) (float64, error) {
	prompt := fmt.Sprintf(`You are rating the overall sentiment of a product review transcript excerpt.

TRANSCRIPT EXCERPT:
%s

Respond with JSON only, in exactly this format:
{"score": number}

The score must be between 0.0 (entirely negative) and 1.0 (entirely positive), with 0.5 meaning neutral or mixed.`, text)

	response, err := a.generate(ctx, prompt)
	if err != nil {
		return 0, fmt.Errorf("sentiment scoring failed: %w", err)
	}

	var result struct {
		Score float64 `json:"score"`
	}
	if err := parseJSONResponse(response, &result); err != nil {
		return 0, fmt.Errorf("failed to parse sentiment response: %w", err)
	}

	return clampUnit(result.Score), nil
}

// ExtractAttributes pulls short positive and negative phrases from one
// transcript.
func (a *Analyzer) ExtractAttributes(ctx context.Context, text string) (models.Attributes, error) {
	prompt := fmt.Sprintf(`Extract the product's strengths and weaknesses mentioned in this review transcript.

TRANSCRIPT:
%s

Respond with JSON only, in exactly this format:
{"positives": ["short phrase", ...], "negatives": ["short phrase", ...]}

Each phrase must be 1-4 words, lowercase, and describe a concrete product quality (e.g. "battery life", "too heavy"). List at most %d of each. Use empty arrays when nothing applies.`, text, maxAttributePhrases)

	response, err := a.generate(ctx, prompt)
	if err != nil {
		return models.Attributes{}, fmt.Errorf("attribute extraction failed: %w", err)
	}

	var result struct {
		Positives []string `json:"positives"`
		Negatives []string `json:"negatives"`
	}
	if err := parseJSONResponse(response, &result); err != nil {
		return models.Attributes{}, fmt.Errorf("failed to parse attribute response: %w", err)
	}

	return models.Attributes{
		Positives: cleanPhrases(result.Positives, maxAttributePhrases),
		Negatives: cleanPhrases(result.Negatives, maxAttributePhrases),
	}, nil
}

// ExtractAudienceFit identifies who the product suits, using the combined
// text of every transcript for cross-video context.
func (a *Analyzer) ExtractAudienceFit(ctx context.Context, text string) ([]string, error) {
	prompt := fmt.Sprintf(`Based on the combined review transcripts below, describe which users this product suits best.

TRANSCRIPTS:
%s

Respond with JSON only, in exactly this format:
{"audiences": ["short phrase", ...]}

Each phrase should name a user type or use case (e.g. "frequent travelers", "budget gamers"). List between 1 and %d phrases, or an empty array if the transcripts give no indication.`, text, maxAudiencePhrases)

	response, err := a.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("audience extraction failed: %w", err)
	}

	var result struct {
		Audiences []string `json:"audiences"`
	}
	if err := parseJSONResponse(response, &result); err != nil {
		return nil, fmt.Errorf("failed to parse audience response: %w", err)
	}

	return cleanPhrases(result.Audiences, maxAudiencePhrases), nil
}

func (a *Analyzer) generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return "", err
	}

	responseText := result.Text()
	if responseText == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return responseText, nil
}

// parseJSONResponse pulls the first JSON object out of a model response,
// tolerating prose or markdown fences around it.
func parseJSONResponse(response string, v any) error {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return fmt.Errorf("no JSON found in response: %s", response)
	}

	jsonStr := response[startIdx : endIdx+1]
	if err := json.Unmarshal([]byte(jsonStr), v); err != nil {
		return fmt.Errorf("failed to unmarshal JSON %q: %w", jsonStr, err)
	}
	return nil
}

func cleanPhrases(phrases []string, max int) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
		if len(out) == max {
			break
		}
	}
	return out
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
