package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Devlipesilva17/studio-sub000/internal/gcal"
	"github.com/Devlipesilva17/studio-sub000/internal/repository"
)

// credentialStore is the slice of the credential repository the calendar
// endpoints need; repository.CredentialRepo satisfies it, tests use fakes.
type credentialStore interface {
	Get(ctx context.Context, userID uint64) (repository.Credential, error)
	Upsert(ctx context.Context, c repository.Credential) error
	Clear(ctx context.Context, userID uint64) error
}

// CalendarHandler serves the Google Calendar connection flow and the
// per-visit sync endpoint.
type CalendarHandler struct {
	API     *gcal.Client
	Bridge  *gcal.Bridge
	Creds   credentialStore
	Visits  *repository.VisitRepo
	Pools   *repository.PoolRepo
	Clients *repository.ClientRepo
}

func NewCalendarHandler(api *gcal.Client, bridge *gcal.Bridge, creds credentialStore,
	visits *repository.VisitRepo, pools *repository.PoolRepo, clients *repository.ClientRepo) *CalendarHandler {
	return &CalendarHandler{API: api, Bridge: bridge, Creds: creds, Visits: visits, Pools: pools, Clients: clients}
}

// visitDurationDefault is used when a visit has no explicit end: calendar
// events need a window, the data model stores a point in time.
const visitDurationDefault = time.Hour

// Connect handles GET /v1/calendar/connect: returns the Google consent URL
// for the UI to open.  The operator id rides in the OAuth state parameter so
// the callback, which arrives unauthenticated, can attribute the tokens.
func (h *CalendarHandler) Connect(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.API == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "calendar integration not configured"})
	}
	url := h.API.AuthURL(strconv.FormatUint(userID, 10))
	return c.JSON(http.StatusOK, echo.Map{"auth_url": url})
}

// Status handles GET /v1/calendar/status: reports whether a credential is on
// file for the operator.
func (h *CalendarHandler) Status(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	_, err = h.Creds.Get(c.Request().Context(), userID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"connected": true})
	case errors.Is(err, repository.ErrNoCredential):
		return c.JSON(http.StatusOK, echo.Map{"connected": false})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
}

// Disconnect handles DELETE /v1/calendar: drops the stored credential.
func (h *CalendarHandler) Disconnect(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Creds.Clear(c.Request().Context(), userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "disconnect failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Callback handles GET /oauth/google/callback.  Google redirects the
// operator's browser here after consent.  Whatever happens, the response is
// a small self-closing page that posts the outcome to the opener window; a
// 5xx would strand the user on a blank popup.
func (h *CalendarHandler) Callback(c echo.Context) error {
	if h.API == nil {
		return callbackPage(c, false, "calendar integration not configured")
	}
	if errParam := c.QueryParam("error"); errParam != "" {
		return callbackPage(c, false, "consent denied")
	}
	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		return callbackPage(c, false, "missing code or state")
	}
	userID, err := strconv.ParseUint(state, 10, 64)
	if err != nil || userID == 0 {
		return callbackPage(c, false, "invalid state")
	}

	tok, err := h.API.Exchange(c.Request().Context(), code)
	if err != nil {
		return callbackPage(c, false, "token exchange failed")
	}
	cred := repository.Credential{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		// expires_in is a relative lifetime in seconds; anchor it now.
		ExpiresAt: time.Now().UTC().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}
	if err := h.Creds.Upsert(c.Request().Context(), cred); err != nil {
		return callbackPage(c, false, "could not store credential")
	}
	return callbackPage(c, true, "")
}

func callbackPage(c echo.Context, ok bool, msg string) error {
	status := "error"
	if ok {
		status = "connected"
	}
	html := fmt.Sprintf(`<!DOCTYPE html>
<html><body>
<script>
if (window.opener) {
  window.opener.postMessage({source: "calendar-oauth", status: %q, message: %q}, "*");
}
window.close();
</script>
<p>Calendar connection %s. You can close this window.</p>
</body></html>`, status, msg, status)
	return c.HTML(http.StatusOK, html)
}

// SyncVisit handles POST /v1/visits/:id/calendar-sync: mirrors one visit to
// the operator's Google Calendar.  The handler always answers 200 with a
// structured sync result; failure modes are data, not transport errors.
func (h *CalendarHandler) SyncVisit(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Bridge == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "calendar integration not configured"})
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

	summary := "Pool maintenance visit"
	description := visit.Notes
	if cl, err := h.Clients.GetByID(c.Request().Context(), visit.ClientID); err == nil {
		summary = "Pool maintenance: " + cl.Name
		if cl.Address != "" {
			if description != "" {
				description += "\n"
			}
			description += cl.Address
		}
	}
	if pool, err := h.Pools.GetByIDAndUser(c.Request().Context(), visit.PoolID, userID); err == nil && pool.Label != "" {
		summary += " (" + pool.Label + ")"
	}

	result := h.Bridge.SyncVisit(c.Request().Context(), gcal.SyncRequest{
		UserID:      userID,
		VisitID:     visit.ID,
		Summary:     summary,
		Description: description,
		Start:       visit.ScheduledAt,
		End:         visit.ScheduledAt.Add(visitDurationDefault),
	})
	return c.JSON(http.StatusOK, result)
}
