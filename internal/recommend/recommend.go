// Package recommend implements the product-recommendation flow: a validated
// request is forwarded to a generative model constrained by a fixed output
// schema, and the structured suggestion list is returned.  The response
// contract is always satisfied — generator failures are converted into a
// single synthetic error entry rather than propagated.
package recommend

import (
	"context"
	"log"
	"strings"
)

// Algae level values accepted on requests.
var algaeLevels = map[string]bool{
	"none":   true,
	"low":    true,
	"medium": true,
	"high":   true,
}

// Request is one user-submitted recommendation form.  Ephemeral: built per
// submission, never persisted.
type Request struct {
	PoolSize      float64 `json:"pool_size"`      // liters, must be > 0
	PoolType      string  `json:"pool_type"`      // e.g. "chlorine", "salt water"
	LastTreatment string  `json:"last_treatment"` // free text, most recent service
	AlgaeLevel    string  `json:"algae_level"`    // none|low|medium|high
	PHLevel       float64 `json:"ph_level"`       // must be within [6.0, 8.0]
}

// FieldErrors maps field name to a human-readable validation message.
type FieldErrors map[string]string

// Validate checks the request at the form boundary, before any dispatch.
// An empty map means the request is valid.
func (r Request) Validate() FieldErrors {
	errs := FieldErrors{}
	if r.PoolSize <= 0 {
		errs["pool_size"] = "pool size must be greater than zero"
	}
	if strings.TrimSpace(r.PoolType) == "" {
		errs["pool_type"] = "pool type is required"
	}
	if strings.TrimSpace(r.LastTreatment) == "" {
		errs["last_treatment"] = "describe the most recent treatment"
	}
	if !algaeLevels[strings.ToLower(strings.TrimSpace(r.AlgaeLevel))] {
		errs["algae_level"] = "algae level must be one of none, low, medium, high"
	}
	if r.PHLevel < 6.0 || r.PHLevel > 8.0 {
		errs["ph_level"] = "pH level must be between 6.0 and 8.0"
	}
	return errs
}

// Product is one suggested product with dosage and reasoning.
type Product struct {
	ProductName string `json:"productName"`
	Dosage      string `json:"dosage"`
	Reason      string `json:"reason"`
}

// Response is the structured output returned to the caller.  The list is
// never nil; it may be empty or contain only the synthetic error entry.
type Response struct {
	RecommendedProducts []Product `json:"recommendedProducts"`
}

// Generator produces recommendations for a validated request.  Implemented
// by the Gemini client; tests substitute a stub.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// fallback is the synthetic entry returned whenever the generator fails.
// Its ProductName is a literal error marker the UI can match on.
var fallback = Product{
	ProductName: "Error",
	Dosage:      "",
	Reason:      "Product recommendations are temporarily unavailable. Please try again later.",
}

// Builder validates requests and forwards them to the generator.  One
// attempt per request; no retries.
type Builder struct {
	gen Generator
}

func NewBuilder(gen Generator) *Builder { return &Builder{gen: gen} }

// Recommend never returns an error: any generator failure (timeout,
// malformed output, service error, or no generator configured) yields a
// response carrying only the fallback entry, so the response shape is
// always intact.
func (b *Builder) Recommend(ctx context.Context, req Request) Response {
	if b.gen == nil {
		return Response{RecommendedProducts: []Product{fallback}}
	}
	resp, err := b.gen.Generate(ctx, req)
	if err != nil {
		log.Printf("recommend: generator failed: %v", err)
		return Response{RecommendedProducts: []Product{fallback}}
	}
	if resp.RecommendedProducts == nil {
		resp.RecommendedProducts = []Product{}
	}
	return resp
}
