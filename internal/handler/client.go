package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Devlipesilva17/studio-sub000/internal/notify"
	"github.com/Devlipesilva17/studio-sub000/internal/repository"
)

// ClientHandler serves the client (customer) CRUD endpoints.
type ClientHandler struct {
	Clients  *repository.ClientRepo
	Notifier *notify.Notifier
}

func NewClientHandler(clients *repository.ClientRepo, n *notify.Notifier) *ClientHandler {
	return &ClientHandler{Clients: clients, Notifier: n}
}

type clientReq struct {
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	MemberSince *time.Time `json:"member_since"`
	Notes       string     `json:"notes"`
}

// validate checks the form boundary before any write.  Field errors are
// returned together so the UI can render them inline.
func (r *clientReq) validate() map[string]string {
	errs := map[string]string{}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		errs["name"] = "name is required"
	}
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		errs["email"] = "invalid email address"
	}
	return errs
}

// Create handles POST /v1/clients.
func (h *ClientHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req clientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}
	client := &repository.Client{
		UserID:      userID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		MemberSince: req.MemberSince,
		Notes:       req.Notes,
	}
	if err := h.Clients.Create(c.Request().Context(), client); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create client"})
	}
	h.Notifier.Publish(c.Request().Context(), userID,
		notify.Change{Kind: notify.KindClient, ID: client.ID, Action: notify.ActionSaved})
	return c.JSON(http.StatusCreated, client)
}

// List handles GET /v1/clients.
func (h *ClientHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Clients.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/clients/:id.
func (h *ClientHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	client, err := h.Clients.GetByIDAndUser(c.Request().Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, client)
}

// Update handles PUT /v1/clients/:id.  Re-submitting unchanged values is a
// successful no-op.
func (h *ClientHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req clientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}
	client := &repository.Client{
		ID:          id,
		UserID:      userID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		MemberSince: req.MemberSince,
		Notes:       req.Notes,
	}
	if err := h.Clients.Update(c.Request().Context(), client); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Notifier.Publish(c.Request().Context(), userID,
		notify.Change{Kind: notify.KindClient, ID: client.ID, Action: notify.ActionSaved})
	return c.JSON(http.StatusOK, client)
}

// Delete handles DELETE /v1/clients/:id.  Fails with 409 while the client
// still has pools.
func (h *ClientHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Clients.Delete(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		if strings.Contains(err.Error(), "1451") { // rows still reference this client
			return c.JSON(http.StatusConflict, echo.Map{"error": "client still has pools or payments"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.Notifier.Publish(c.Request().Context(), userID,
		notify.Change{Kind: notify.KindClient, ID: id, Action: notify.ActionDeleted})
	return c.NoContent(http.StatusNoContent)
}
