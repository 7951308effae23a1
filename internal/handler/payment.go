package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Devlipesilva17/studio-sub000/internal/repository"
)

// PaymentHandler exposes a client's payment history, read-only.
type PaymentHandler struct {
	Payments *repository.PaymentRepo
	Clients  *repository.ClientRepo
}

func NewPaymentHandler(p *repository.PaymentRepo, c *repository.ClientRepo) *PaymentHandler {
	return &PaymentHandler{Payments: p, Clients: c}
}

// ListByClient handles GET /v1/clients/:id/payments.
func (h *PaymentHandler) ListByClient(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	clientID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Clients.GetByIDAndUser(c.Request().Context(), clientID, userID); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items, err := h.Payments.ListByClient(c.Request().Context(), clientID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
