package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Devlipesilva17/studio-sub000/internal/notify"
)

// EventsHandler streams record-change notices to the UI as Server-Sent
// Events.
type EventsHandler struct {
	Notifier *notify.Notifier
}

func NewEventsHandler(n *notify.Notifier) *EventsHandler {
	return &EventsHandler{Notifier: n}
}

// Stream handles GET /v1/events.  One subscription per connection; the
// subscription is torn down when the client disconnects.
func (h *EventsHandler) Stream(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	changes, cancel, err := h.Notifier.Subscribe(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "change feed unavailable"})
	}
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	flusher, ok := res.Writer.(http.Flusher)
	if !ok {
		return nil
	}

	// Initial comment so proxies and the EventSource client see bytes
	// immediately.
	fmt.Fprint(res, ": connected\n\n")
	flusher.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ch, open := <-changes:
			if !open {
				return nil
			}
			body, err := json.Marshal(ch)
			if err != nil {
				continue
			}
			fmt.Fprintf(res, "event: change\ndata: %s\n\n", body)
			flusher.Flush()
		}
	}
}
