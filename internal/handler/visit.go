package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Devlipesilva17/studio-sub000/internal/notify"
	"github.com/Devlipesilva17/studio-sub000/internal/queue"
	"github.com/Devlipesilva17/studio-sub000/internal/repository"
)

// VisitHandler serves the visit lifecycle: schedule, reschedule, complete
// with product usage, skip.  Completing a visit additionally publishes a
// broker event for downstream consumers.
type VisitHandler struct {
	Visits   *repository.VisitRepo
	Pools    *repository.PoolRepo
	Clients  *repository.ClientRepo
	Products *repository.ProductRepo
	Notifier *notify.Notifier
	AMQPURL  string
}

func NewVisitHandler(v *repository.VisitRepo, p *repository.PoolRepo, c *repository.ClientRepo,
	pr *repository.ProductRepo, n *notify.Notifier, amqpURL string) *VisitHandler {
	return &VisitHandler{Visits: v, Pools: p, Clients: c, Products: pr, Notifier: n, AMQPURL: amqpURL}
}

type visitCreateReq struct {
	PoolID      uint64    `json:"pool_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Notes       string    `json:"notes"`
}

type visitRescheduleReq struct {
	ScheduledAt time.Time `json:"scheduled_at"`
	Notes       string    `json:"notes"`
}

type visitProductLine struct {
	ProductID uint64  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

type visitCompleteReq struct {
	Notes    string             `json:"notes"`
	Products []visitProductLine `json:"products"`
}

func toVisitProducts(lines []visitProductLine) ([]repository.VisitProduct, map[string]string) {
	out := make([]repository.VisitProduct, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == 0 {
			return nil, map[string]string{"products": "product_id is required on every line"}
		}
		if l.Quantity <= 0 {
			return nil, map[string]string{"products": "quantity must be positive"}
		}
		out = append(out, repository.VisitProduct{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out, nil
}

// Create handles POST /v1/visits: schedules a PENDING visit against a pool
// the operator owns.
func (h *VisitHandler) Create(c echo.Context) error {
	var req visitCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	return h.create(c, &req)
}

// CreateUnderPool handles POST /v1/pools/:id/visits: the nested-path create
// form.  The path pool id wins over anything in the body.
func (h *VisitHandler) CreateUnderPool(c echo.Context) error {
	poolID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req visitCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.PoolID = poolID
	return h.create(c, &req)
}

func (h *VisitHandler) create(c echo.Context, req *visitCreateReq) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if req.PoolID == 0 || req.ScheduledAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "pool_id and scheduled_at are required"})
	}

	pool, err := h.Pools.GetByIDAndUser(c.Request().Context(), req.PoolID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrPoolNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pool not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	visit := &repository.Visit{
		ClientID:    pool.ClientID,
		PoolID:      pool.ID,
		ScheduledAt: req.ScheduledAt.UTC(),
		Notes:       req.Notes,
	}
	if err := h.Visits.Create(c.Request().Context(), visit); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create visit"})
	}
	h.Notifier.Publish(c.Request().Context(), userID,
		notify.Change{Kind: notify.KindVisit, ID: visit.ID, Action: notify.ActionSaved})
	return c.JSON(http.StatusCreated, visit)
}

// Get handles GET /v1/visits/:id.
func (h *VisitHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	visit, err := h.Visits.GetByIDAndUser(c.Request().Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrVisitNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "visit not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, visit)
}

// ListByPool handles GET /v1/pools/:id/visits.  History survives pool
// deletion, so this also answers for pools that no longer exist as long as
// the client is the caller's.
func (h *VisitHandler) ListByPool(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	poolID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	visits, err := h.Visits.ListByPool(c.Request().Context(), poolID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	// Visits carry the client id; filter to the caller's tree rather than
	// joining through pools, which may have been deleted.
	items := []*repository.Visit{}
	for _, v := range visits {
		if _, err := h.Clients.GetByIDAndUser(c.Request().Context(), v.ClientID, userID); err == nil {
			items = append(items, v)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Reschedule handles PUT /v1/visits/:id: moves a still-pending visit.
func (h *VisitHandler) Reschedule(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req visitRescheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ScheduledAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_at is required"})
	}

	if _, err := h.Visits.GetByIDAndUser(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrVisitNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "visit not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := h.Visits.Reschedule(c.Request().Context(), id, req.ScheduledAt.UTC(), req.Notes); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "only pending visits can be rescheduled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reschedule failed"})
	}
	visit, err := h.Visits.GetByIDAndUser(c.Request().Context(), id, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	h.Notifier.Publish(c.Request().Context(), userID,
		notify.Change{Kind: notify.KindVisit, ID: id, Action: notify.ActionSaved})
	return c.JSON(http.StatusOK, visit)
}

// Complete handles POST /v1/visits/:id/complete: PENDING -> COMPLETED with
// product usage, then a best-effort broker event.
func (h *VisitHandler) Complete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req visitCompleteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	products, errs := toVisitProducts(req.Products)
	if errs != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	if _, err := h.Visits.GetByIDAndUser(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrVisitNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "visit not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := h.Visits.Complete(c.Request().Context(), id, products, req.Notes); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "visit is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "complete failed"})
	}

	visit, err := h.Visits.GetByIDAndUser(c.Request().Context(), id, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	// The visit is committed; event delivery is best effort.
	_ = queue.PublishVisitCompleted(c.Request().Context(), h.AMQPURL, h.buildEvent(c, userID, visit))
	h.Notifier.Publish(c.Request().Context(), userID,
		notify.Change{Kind: notify.KindVisit, ID: id, Action: notify.ActionSaved})
	return c.JSON(http.StatusOK, visit)
}

func (h *VisitHandler) buildEvent(c echo.Context, userID uint64, v *repository.Visit) queue.VisitCompletedEvent {
	ctx := c.Request().Context()
	ev := queue.VisitCompletedEvent{
		EventID:  uuid.NewString(),
		VisitID:  v.ID,
		UserID:   userID,
		ClientID: v.ClientID,
		PoolID:   v.PoolID,
	}
	if v.CompletedAt != nil {
		ev.CompletedAt = v.CompletedAt.UTC().Format(time.RFC3339)
	}
	if cl, err := h.Clients.GetByID(ctx, v.ClientID); err == nil {
		ev.ClientName = cl.Name
	}
	if pool, err := h.Pools.GetByIDAndUser(ctx, v.PoolID, userID); err == nil {
		ev.PoolLabel = pool.Label
	}
	for _, vp := range v.Products {
		line := queue.ProductUsageLine{ProductID: vp.ProductID, Quantity: vp.Quantity}
		if p, err := h.Products.GetByID(ctx, vp.ProductID); err == nil {
			line.Name = p.Name
		}
		ev.Products = append(ev.Products, line)
	}
	return ev
}

// UpdateProducts handles PUT /v1/visits/:id/products: rewrites the usage
// lines of a completed visit.
func (h *VisitHandler) UpdateProducts(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Products []visitProductLine `json:"products"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	products, errs := toVisitProducts(req.Products)
	if errs != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	if _, err := h.Visits.GetByIDAndUser(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrVisitNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "visit not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := h.Visits.ReplaceProducts(c.Request().Context(), id, products); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "visit is not completed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	visit, err := h.Visits.GetByIDAndUser(c.Request().Context(), id, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	h.Notifier.Publish(c.Request().Context(), userID,
		notify.Change{Kind: notify.KindVisit, ID: id, Action: notify.ActionSaved})
	return c.JSON(http.StatusOK, visit)
}

// Skip handles POST /v1/visits/:id/skip: PENDING -> SKIPPED.
func (h *VisitHandler) Skip(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Visits.GetByIDAndUser(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrVisitNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "visit not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := h.Visits.Skip(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "visit is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "skip failed"})
	}
	visit, err := h.Visits.GetByIDAndUser(c.Request().Context(), id, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	h.Notifier.Publish(c.Request().Context(), userID,
		notify.Change{Kind: notify.KindVisit, ID: id, Action: notify.ActionSaved})
	return c.JSON(http.StatusOK, visit)
}
