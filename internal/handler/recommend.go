package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Devlipesilva17/studio-sub000/internal/recommend"
)

// RecommendHandler serves the product-recommendation form endpoint.
type RecommendHandler struct {
	Builder *recommend.Builder
}

func NewRecommendHandler(b *recommend.Builder) *RecommendHandler {
	return &RecommendHandler{Builder: b}
}

// Recommend handles POST /v1/recommendations.  Invalid input gets field
// errors; a valid request always produces a recommendation list, with the
// generator's failures mapped to a placeholder entry rather than a 5xx.
func (h *RecommendHandler) Recommend(c echo.Context) error {
	var req recommend.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}
	resp := h.Builder.Recommend(c.Request().Context(), req)
	return c.JSON(http.StatusOK, resp)
}
