package recommend

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// GeminiGenerator produces recommendations through Google's Gemini API.
// The model output is constrained by a JSON response schema so that it can
// be unmarshaled straight into Response.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// responseSchema pins the model output to the recommendation contract:
// an object with a recommendedProducts array of {productName, dosage, reason}.
var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"recommendedProducts": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"productName": {Type: genai.TypeString},
					"dosage":      {Type: genai.TypeString},
					"reason":      {Type: genai.TypeString},
				},
				Required: []string{"productName", "dosage", "reason"},
			},
		},
	},
	Required: []string{"recommendedProducts"},
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate dispatches a single prompt and parses the schema-constrained
// JSON reply.  Callers are expected to have validated req already.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	prompt := fmt.Sprintf(
		"You are a pool maintenance expert. Recommend chemical products for a pool with:\n"+
			"- Volume: %.0f liters\n"+
			"- Pool type: %s\n"+
			"- Most recent treatment: %s\n"+
			"- Algae level: %s\n"+
			"- Current pH: %.1f\n"+
			"For each product give a concrete dosage for this volume and the reason it is needed. "+
			"Return an empty list if no treatment is required.",
		req.PoolSize, req.PoolType, req.LastTreatment, req.AlgaeLevel, req.PHLevel)

	result, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema,
		})
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate failed: %w", err)
	}

	var resp Response
	if err := json.Unmarshal([]byte(result.Text()), &resp); err != nil {
		return Response{}, fmt.Errorf("malformed model output: %w", err)
	}
	return resp, nil
}
