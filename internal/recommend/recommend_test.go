package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	resp Response
	err  error
}

func (s *stubGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	return s.resp, s.err
}

func validRequest() Request {
	return Request{
		PoolSize:      30000,
		PoolType:      "chlorine",
		LastTreatment: "shock treatment two weeks ago",
		AlgaeLevel:    "low",
		PHLevel:       7.4,
	}
}

func TestValidate_OK(t *testing.T) {
	require.Empty(t, validRequest().Validate())
}

func TestValidate_FieldErrors(t *testing.T) {
	req := Request{
		PoolSize:      0,
		PoolType:      " ",
		LastTreatment: "",
		AlgaeLevel:    "purple",
		PHLevel:       9.5,
	}
	errs := req.Validate()
	require.Len(t, errs, 5)
	require.Contains(t, errs, "pool_size")
	require.Contains(t, errs, "pool_type")
	require.Contains(t, errs, "last_treatment")
	require.Contains(t, errs, "algae_level")
	require.Contains(t, errs, "ph_level")
}

func TestValidate_PHBoundsInclusive(t *testing.T) {
	req := validRequest()
	req.PHLevel = 6.0
	require.Empty(t, req.Validate())
	req.PHLevel = 8.0
	require.Empty(t, req.Validate())
	req.PHLevel = 5.9
	require.Contains(t, req.Validate(), "ph_level")
}

func TestRecommend_PassesThroughGeneratorOutput(t *testing.T) {
	gen := &stubGenerator{resp: Response{RecommendedProducts: []Product{
		{ProductName: "Chlorine tablets", Dosage: "3 tablets", Reason: "low free chlorine"},
	}}}
	resp := NewBuilder(gen).Recommend(context.Background(), validRequest())
	require.Len(t, resp.RecommendedProducts, 1)
	require.Equal(t, "Chlorine tablets", resp.RecommendedProducts[0].ProductName)
}

func TestRecommend_GeneratorFailureYieldsFallback(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream timeout")}
	resp := NewBuilder(gen).Recommend(context.Background(), validRequest())
	require.Len(t, resp.RecommendedProducts, 1)
	require.Equal(t, "Error", resp.RecommendedProducts[0].ProductName)
	require.NotEmpty(t, resp.RecommendedProducts[0].Reason)
}

func TestRecommend_NilGeneratorYieldsFallback(t *testing.T) {
	resp := NewBuilder(nil).Recommend(context.Background(), validRequest())
	require.Len(t, resp.RecommendedProducts, 1)
	require.Equal(t, "Error", resp.RecommendedProducts[0].ProductName)
}

func TestRecommend_NeverNilList(t *testing.T) {
	gen := &stubGenerator{resp: Response{}} // generator returned nil slice
	resp := NewBuilder(gen).Recommend(context.Background(), validRequest())
	require.NotNil(t, resp.RecommendedProducts)
	require.Empty(t, resp.RecommendedProducts)
}
