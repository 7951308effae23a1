package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Devlipesilva17/studio-sub000/internal/repository"
)

// ProductHandler serves the shared product catalog.
type ProductHandler struct {
	Products *repository.ProductRepo
}

func NewProductHandler(p *repository.ProductRepo) *ProductHandler {
	return &ProductHandler{Products: p}
}

type productReq struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	UnitCostCents uint32 `json:"unit_cost_cents"`
	Stock         int    `json:"stock"`
}

func (r *productReq) validate() map[string]string {
	errs := map[string]string{}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		errs["name"] = "name is required"
	}
	if r.Stock < 0 {
		errs["stock"] = "stock cannot be negative"
	}
	return errs
}

// Create handles POST /v1/products.
func (h *ProductHandler) Create(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}
	p := &repository.Product{
		Name:          req.Name,
		Description:   req.Description,
		UnitCostCents: req.UnitCostCents,
		Stock:         req.Stock,
	}
	if err := h.Products.Create(c.Request().Context(), p); err != nil {
		if errors.Is(err, repository.ErrProductNameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "product name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, p)
}

// List handles GET /v1/products.
func (h *ProductHandler) List(c echo.Context) error {
	items, err := h.Products.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/products/:id.
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	p, err := h.Products.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, p)
}

// Update handles PUT /v1/products/:id.
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}
	p := &repository.Product{
		ID:            id,
		Name:          req.Name,
		Description:   req.Description,
		UnitCostCents: req.UnitCostCents,
		Stock:         req.Stock,
	}
	if err := h.Products.Update(c.Request().Context(), p); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case errors.Is(err, repository.ErrProductNameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "product name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /v1/products/:id.  Products referenced by visit
// usage lines cannot be removed.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Products.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "product is referenced by visit history"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
