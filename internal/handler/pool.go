package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Devlipesilva17/studio-sub000/internal/notify"
	"github.com/Devlipesilva17/studio-sub000/internal/poolcalc"
	"github.com/Devlipesilva17/studio-sub000/internal/repository"
)

// PoolHandler serves pool CRUD.  Saving a pool in auto volume mode runs the
// volume calculator; reads attach a chemistry_status map so the UI can color
// each reading without re-implementing the thresholds.
type PoolHandler struct {
	Pools    *repository.PoolRepo
	Clients  *repository.ClientRepo
	Notifier *notify.Notifier
}

func NewPoolHandler(pools *repository.PoolRepo, clients *repository.ClientRepo, n *notify.Notifier) *PoolHandler {
	return &PoolHandler{Pools: pools, Clients: clients, Notifier: n}
}

type poolReq struct {
	ClientID        uint64   `json:"client_id"`
	Label           string   `json:"label"`
	Shape           string   `json:"shape"`
	LengthM         *float64 `json:"length_m"`
	WidthM          *float64 `json:"width_m"`
	AvgDepthM       *float64 `json:"avg_depth_m"`
	VolumeLiters    *int     `json:"volume_liters"`
	VolumeMode      string   `json:"volume_mode"`
	PH              *float64 `json:"ph"`
	FreeChlorine    *float64 `json:"free_chlorine"`
	Alkalinity      *float64 `json:"alkalinity"`
	CalciumHardness *float64 `json:"calcium_hardness"`
	HasStains       bool     `json:"has_stains"`
	HasScale        bool     `json:"has_scale"`
	WaterQuality    string   `json:"water_quality"`
	FilterType      string   `json:"filter_type"`
}

func (r *poolReq) validate() map[string]string {
	errs := map[string]string{}
	if r.ClientID == 0 {
		errs["client_id"] = "client_id is required"
	}
	if strings.TrimSpace(r.Label) == "" {
		errs["label"] = "label is required"
	}
	switch poolcalc.Shape(r.Shape) {
	case poolcalc.ShapeQuadrilateral, poolcalc.ShapeCircular, poolcalc.ShapeOval:
	case "":
		errs["shape"] = "shape is required"
	default:
		errs["shape"] = "unknown shape"
	}
	switch r.VolumeMode {
	case "":
		r.VolumeMode = poolcalc.ModeAuto
	case poolcalc.ModeAuto, poolcalc.ModeManual:
	default:
		errs["volume_mode"] = "volume_mode must be auto or manual"
	}
	return errs
}

// toPool maps the request to a record, deriving the volume when in auto mode.
// Underspecified geometry stores a null volume rather than failing the save:
// operators fill pool records in incrementally.
func (r *poolReq) toPool(id uint64) *repository.Pool {
	p := &repository.Pool{
		ID:              id,
		ClientID:        r.ClientID,
		Label:           strings.TrimSpace(r.Label),
		Shape:           r.Shape,
		LengthM:         r.LengthM,
		WidthM:          r.WidthM,
		AvgDepthM:       r.AvgDepthM,
		VolumeLiters:    r.VolumeLiters,
		VolumeMode:      r.VolumeMode,
		PH:              r.PH,
		FreeChlorine:    r.FreeChlorine,
		Alkalinity:      r.Alkalinity,
		CalciumHardness: r.CalciumHardness,
		HasStains:       r.HasStains,
		HasScale:        r.HasScale,
		WaterQuality:    r.WaterQuality,
		FilterType:      r.FilterType,
	}
	if p.VolumeMode == poolcalc.ModeAuto {
		p.VolumeLiters = nil
		l, w, d := deref(r.LengthM), deref(r.WidthM), deref(r.AvgDepthM)
		if liters, ok := poolcalc.Volume(poolcalc.Shape(r.Shape), l, w, d); ok {
			p.VolumeLiters = &liters
		}
	}
	return p
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// chemistryStatus classifies each stored reading for display.
func chemistryStatus(p *repository.Pool) map[string]poolcalc.Band {
	return map[string]poolcalc.Band{
		poolcalc.ParamPH:              poolcalc.Classify(poolcalc.ParamPH, p.PH),
		poolcalc.ParamFreeChlorine:    poolcalc.Classify(poolcalc.ParamFreeChlorine, p.FreeChlorine),
		poolcalc.ParamAlkalinity:      poolcalc.Classify(poolcalc.ParamAlkalinity, p.Alkalinity),
		poolcalc.ParamCalciumHardness: poolcalc.Classify(poolcalc.ParamCalciumHardness, p.CalciumHardness),
	}
}

func poolBody(p *repository.Pool) echo.Map {
	return echo.Map{"pool": p, "chemistry_status": chemistryStatus(p)}
}

// ownClient verifies the target client belongs to the operator before any
// pool write under it.
func (h *PoolHandler) ownClient(c echo.Context, clientID, userID uint64) error {
	_, err := h.Clients.GetByIDAndUser(c.Request().Context(), clientID, userID)
	return err
}

// Save handles POST /v1/pools: one endpoint for create and update, resolved
// by the presence of an id in the body.
func (h *PoolHandler) Save(c echo.Context) error {
	var req struct {
		ID uint64 `json:"id"`
		poolReq
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	return h.save(c, req.ID, &req.poolReq)
}

// CreateUnderClient handles POST /v1/clients/:id/pools: the nested-path
// create form.  The path client id wins over anything in the body.
func (h *PoolHandler) CreateUnderClient(c echo.Context) error {
	clientID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req poolReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.ClientID = clientID
	return h.save(c, 0, &req)
}

// Update handles PUT /v1/pools/:id.
func (h *PoolHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req poolReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	return h.save(c, id, &req)
}

func (h *PoolHandler) save(c echo.Context, id uint64, req *poolReq) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}
	if err := h.ownClient(c, req.ClientID, userID); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	pool := req.toPool(id)
	created, err := h.Pools.Save(c.Request().Context(), pool)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPoolNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pool not found"})
		case errors.Is(err, repository.ErrClientNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save failed"})
	}
	h.Notifier.Publish(c.Request().Context(), userID,
		notify.Change{Kind: notify.KindPool, ID: pool.ID, Action: notify.ActionSaved})

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, poolBody(pool))
}

// Get handles GET /v1/pools/:id.
func (h *PoolHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	pool, err := h.Pools.GetByIDAndUser(c.Request().Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrPoolNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pool not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, poolBody(pool))
}

// ListByClient handles GET /v1/clients/:id/pools.
func (h *PoolHandler) ListByClient(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	clientID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.ownClient(c, clientID, userID); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	pools, err := h.Pools.ListByClient(c.Request().Context(), clientID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]echo.Map, 0, len(pools))
	for _, p := range pools {
		items = append(items, poolBody(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Delete handles DELETE /v1/pools/:id.  Visit history under the pool
// survives the delete.
func (h *PoolHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Pools.Delete(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrPoolNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pool not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.Notifier.Publish(c.Request().Context(), userID,
		notify.Change{Kind: notify.KindPool, ID: id, Action: notify.ActionDeleted})
	return c.NoContent(http.StatusNoContent)
}
