package gcal

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Devlipesilva17/studio-sub000/internal/repository"
)

// SyncStatus is the outcome of one sync attempt.
type SyncStatus string

const (
	StatusCreated        SyncStatus = "created"
	StatusUpdated        SyncStatus = "updated"
	StatusError          SyncStatus = "error"
	StatusReauthRequired SyncStatus = "reauth_required"
)

// SyncRequest describes the visit window to mirror.  Timestamps are stored
// UTC and rendered in the bridge's fixed zone on the wire.
type SyncRequest struct {
	UserID      uint64
	VisitID     uint64
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// SyncResult reports what happened.  EventID is set on created/updated.
type SyncResult struct {
	Status  SyncStatus `json:"status"`
	EventID string     `json:"event_id,omitempty"`
	Message string     `json:"message,omitempty"`
}

// credentialStore is the subset of the credential repository the bridge
// needs; repository.CredentialRepo satisfies it, tests use fakes.
type credentialStore interface {
	Get(ctx context.Context, userID uint64) (repository.Credential, error)
	UpdateAccess(ctx context.Context, userID uint64, accessToken string, expiresAt time.Time) error
	Clear(ctx context.Context, userID uint64) error
}

// visitStore is the subset of the visit repository the bridge needs.
type visitStore interface {
	CalendarEventID(ctx context.Context, id uint64) (string, error)
	SetCalendarEventID(ctx context.Context, id uint64, eventID string) error
}

// Bridge implements the visit -> calendar sync protocol.
type Bridge struct {
	creds  credentialStore
	visits visitStore
	api    *Client
	loc    *time.Location
}

// NewBridge wires the bridge.  loc is the fixed IANA zone used for event
// times.
func NewBridge(creds credentialStore, visits visitStore, api *Client, loc *time.Location) *Bridge {
	return &Bridge{creds: creds, visits: visits, api: api, loc: loc}
}

// SyncVisit creates or updates the external calendar entry for a visit.
// Repeated calls for a visit that already carries an event id always update,
// never duplicate-create.  Credential expiry clears the stored tokens and
// reports reauth_required; every other failure reports error with the
// underlying message and leaves the credential untouched.  SyncVisit never
// returns a Go error: all outcomes fit the SyncResult contract.
func (b *Bridge) SyncVisit(ctx context.Context, req SyncRequest) SyncResult {
	cred, err := b.creds.Get(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNoCredential) {
			return SyncResult{Status: StatusError, Message: "no calendar connected; authorize Google Calendar first"}
		}
		return SyncResult{Status: StatusError, Message: "load credential: " + err.Error()}
	}

	access := cred.AccessToken
	// Refresh ahead of expiry so the API call itself rarely sees a 401.
	if time.Now().UTC().After(cred.ExpiresAt.Add(-time.Minute)) {
		var expiresAt time.Time
		access, expiresAt, err = b.api.RefreshAccess(ctx, cred.RefreshToken)
		if err != nil {
			return b.classify(ctx, req.UserID, err)
		}
		if err := b.creds.UpdateAccess(ctx, req.UserID, access, expiresAt); err != nil {
			log.Printf("calendar: persist refreshed access token: %v", err)
		}
	}

	eventID, err := b.visits.CalendarEventID(ctx, req.VisitID)
	if err != nil {
		return SyncResult{Status: StatusError, Message: "load visit: " + err.Error()}
	}

	ev := Event{Summary: req.Summary, Description: req.Description, Start: req.Start, End: req.End}

	if eventID != "" {
		if err := b.api.UpdateEvent(ctx, access, eventID, ev, b.loc); err != nil {
			return b.classify(ctx, req.UserID, err)
		}
		return SyncResult{Status: StatusUpdated, EventID: eventID}
	}

	newID, err := b.api.CreateEvent(ctx, access, ev, b.loc)
	if err != nil {
		return b.classify(ctx, req.UserID, err)
	}
	// The external entry now exists; failing to record its id would cause a
	// duplicate create on retry, so surface that as an error.
	if err := b.visits.SetCalendarEventID(ctx, req.VisitID, newID); err != nil {
		return SyncResult{Status: StatusError, EventID: newID,
			Message: "event created but saving its id failed: " + err.Error()}
	}
	return SyncResult{Status: StatusCreated, EventID: newID}
}

// classify maps an API failure to the result contract, clearing stored
// tokens on credential expiry.
func (b *Bridge) classify(ctx context.Context, userID uint64, err error) SyncResult {
	if errors.Is(err, ErrReauth) {
		if cerr := b.creds.Clear(ctx, userID); cerr != nil {
			log.Printf("calendar: clear revoked credential: %v", cerr)
		}
		return SyncResult{Status: StatusReauthRequired, Message: "calendar authorization expired; reconnect Google Calendar"}
	}
	return SyncResult{Status: StatusError, Message: err.Error()}
}
