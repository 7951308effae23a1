package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Devlipesilva17/studio-sub000/internal/repository"
)

// fakeCreds is an in-memory credential store.
type fakeCreds struct {
	cred    *repository.Credential
	cleared bool
}

func (f *fakeCreds) Get(ctx context.Context, userID uint64) (repository.Credential, error) {
	if f.cred == nil {
		return repository.Credential{}, repository.ErrNoCredential
	}
	return *f.cred, nil
}

func (f *fakeCreds) UpdateAccess(ctx context.Context, userID uint64, accessToken string, expiresAt time.Time) error {
	f.cred.AccessToken = accessToken
	f.cred.ExpiresAt = expiresAt
	return nil
}

func (f *fakeCreds) Clear(ctx context.Context, userID uint64) error {
	f.cred = nil
	f.cleared = true
	return nil
}

// fakeVisits records the event id like the real repository would.
type fakeVisits struct {
	eventID string
}

func (f *fakeVisits) CalendarEventID(ctx context.Context, id uint64) (string, error) {
	return f.eventID, nil
}

func (f *fakeVisits) SetCalendarEventID(ctx context.Context, id uint64, eventID string) error {
	f.eventID = eventID
	return nil
}

// calendarFake fakes the token endpoint and the events API, counting calls.
type calendarFake struct {
	creates, updates int
	refreshes        int
	revokedRefresh   bool // token endpoint answers invalid_grant
	apiUnauthorized  bool // events API answers 401
}

func (cf *calendarFake) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		cf.refreshes++
		w.Header().Set("Content-Type", "application/json")
		if cf.revokedRefresh {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fresh-access", "expires_in": 3600,
		})
	})
	mux.HandleFunc("/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if cf.apiUnauthorized {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		cf.creates++
		_ = json.NewEncoder(w).Encode(map[string]string{"id": fmt.Sprintf("evt-%d", cf.creates)})
	})
	mux.HandleFunc("/calendars/primary/events/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if cf.apiUnauthorized {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		cf.updates++
		id := strings.TrimPrefix(r.URL.Path, "/calendars/primary/events/")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
	})
	return httptest.NewServer(mux)
}

func newTestBridge(t *testing.T, srv *httptest.Server, creds *fakeCreds, visits *fakeVisits) *Bridge {
	t.Helper()
	api := NewClient(Options{
		ClientID:     "cid",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/token",
		CalendarURL:  srv.URL,
	})
	return NewBridge(creds, visits, api, time.UTC)
}

func validCred() *repository.Credential {
	return &repository.Credential{
		UserID:       1,
		AccessToken:  "stored-access",
		RefreshToken: "stored-refresh",
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
	}
}

func syncReq() SyncRequest {
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	return SyncRequest{
		UserID:      1,
		VisitID:     7,
		Summary:     "Pool visit",
		Description: "Weekly maintenance",
		Start:       start,
		End:         start.Add(time.Hour),
	}
}

func TestSyncVisit_NoCredential(t *testing.T) {
	cf := &calendarFake{}
	srv := cf.server(t)
	defer srv.Close()

	b := newTestBridge(t, srv, &fakeCreds{}, &fakeVisits{})
	res := b.SyncVisit(context.Background(), syncReq())

	require.Equal(t, StatusError, res.Status)
	require.Contains(t, res.Message, "no calendar connected")
	require.Zero(t, cf.creates, "no partial attempt may be made")
	require.Zero(t, cf.refreshes)
}

func TestSyncVisit_CreateThenUpdate(t *testing.T) {
	cf := &calendarFake{}
	srv := cf.server(t)
	defer srv.Close()

	creds := &fakeCreds{cred: validCred()}
	visits := &fakeVisits{}
	b := newTestBridge(t, srv, creds, visits)

	first := b.SyncVisit(context.Background(), syncReq())
	require.Equal(t, StatusCreated, first.Status)
	require.Equal(t, "evt-1", first.EventID)
	require.Equal(t, "evt-1", visits.eventID, "event id must be persisted on the visit")

	second := b.SyncVisit(context.Background(), syncReq())
	require.Equal(t, StatusUpdated, second.Status)
	require.Equal(t, "evt-1", second.EventID)

	require.Equal(t, 1, cf.creates, "second call must never duplicate-create")
	require.Equal(t, 1, cf.updates)
}

func TestSyncVisit_ExpiredAccessIsRefreshed(t *testing.T) {
	cf := &calendarFake{}
	srv := cf.server(t)
	defer srv.Close()

	cred := validCred()
	cred.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	creds := &fakeCreds{cred: cred}
	b := newTestBridge(t, srv, creds, &fakeVisits{})

	res := b.SyncVisit(context.Background(), syncReq())
	require.Equal(t, StatusCreated, res.Status)
	require.Equal(t, 1, cf.refreshes)
	require.Equal(t, "fresh-access", creds.cred.AccessToken)
}

func TestSyncVisit_RevokedRefreshClearsCredential(t *testing.T) {
	cf := &calendarFake{revokedRefresh: true}
	srv := cf.server(t)
	defer srv.Close()

	cred := validCred()
	cred.ExpiresAt = time.Now().UTC().Add(-time.Hour) // forces the refresh path
	creds := &fakeCreds{cred: cred}
	b := newTestBridge(t, srv, creds, &fakeVisits{})

	res := b.SyncVisit(context.Background(), syncReq())
	require.Equal(t, StatusReauthRequired, res.Status)
	require.True(t, creds.cleared, "stored credential must be cleared entirely")
	require.Zero(t, cf.creates)
}

func TestSyncVisit_APIUnauthorizedClearsCredential(t *testing.T) {
	cf := &calendarFake{apiUnauthorized: true}
	srv := cf.server(t)
	defer srv.Close()

	creds := &fakeCreds{cred: validCred()}
	b := newTestBridge(t, srv, creds, &fakeVisits{})

	res := b.SyncVisit(context.Background(), syncReq())
	require.Equal(t, StatusReauthRequired, res.Status)
	require.True(t, creds.cleared)
}

func TestSyncVisit_TransientFailureKeepsCredential(t *testing.T) {
	// A server that always 500s on the events API.
	mux := http.NewServeMux()
	mux.HandleFunc("/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend exploded", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := &fakeCreds{cred: validCred()}
	b := newTestBridge(t, srv, creds, &fakeVisits{})

	res := b.SyncVisit(context.Background(), syncReq())
	require.Equal(t, StatusError, res.Status)
	require.NotEmpty(t, res.Message)
	require.False(t, creds.cleared, "credential must be left untouched on transient failures")
}

func TestAuthURL(t *testing.T) {
	api := NewClient(Options{ClientID: "cid", RedirectURL: "https://app.example/oauth/google/callback"})
	u := api.AuthURL("42")
	require.Contains(t, u, defaultAuthURL)
	require.Contains(t, u, "client_id=cid")
	require.Contains(t, u, "state=42")
	require.Contains(t, u, "access_type=offline")
	require.Contains(t, u, "calendar.events")
}
