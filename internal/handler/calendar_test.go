package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Devlipesilva17/studio-sub000/internal/gcal"
	"github.com/Devlipesilva17/studio-sub000/internal/repository"
)

// fakeCredStore is an in-memory credential store recording upserts.
type fakeCredStore struct {
	cred    *repository.Credential
	upserts int
}

func (f *fakeCredStore) Get(ctx context.Context, userID uint64) (repository.Credential, error) {
	if f.cred == nil {
		return repository.Credential{}, repository.ErrNoCredential
	}
	return *f.cred, nil
}

func (f *fakeCredStore) Upsert(ctx context.Context, c repository.Credential) error {
	f.cred = &c
	f.upserts++
	return nil
}

func (f *fakeCredStore) Clear(ctx context.Context, userID uint64) error {
	f.cred = nil
	return nil
}

// tokenServer fakes the OAuth token endpoint.  The code "good-code" trades
// for a token pair; anything else answers invalid_grant.
func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.FormValue("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"bad code"}`))
			return
		}
		w.Write([]byte(`{"access_token":"acc-1","refresh_token":"ref-1","expires_in":3600}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func callbackContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newCallbackHandler(t *testing.T) (*CalendarHandler, *fakeCredStore) {
	t.Helper()
	srv := tokenServer(t)
	api := gcal.NewClient(gcal.Options{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/oauth/google/callback",
		TokenURL:     srv.URL + "/token",
	})
	creds := &fakeCredStore{}
	return &CalendarHandler{API: api, Creds: creds}, creds
}

func TestCallbackStoresCredential(t *testing.T) {
	h, creds := newCallbackHandler(t)
	c, rec := callbackContext("/oauth/google/callback?code=good-code&state=7")

	before := time.Now().UTC()
	require.NoError(t, h.Callback(c))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "connected")

	require.Equal(t, 1, creds.upserts)
	require.NotNil(t, creds.cred)
	require.Equal(t, uint64(7), creds.cred.UserID)
	require.Equal(t, "acc-1", creds.cred.AccessToken)
	require.Equal(t, "ref-1", creds.cred.RefreshToken)
	// expires_in=3600 anchored at exchange time
	require.WithinDuration(t, before.Add(time.Hour), creds.cred.ExpiresAt, 10*time.Second)
}

func TestCallbackRejectsNonNumericState(t *testing.T) {
	h, creds := newCallbackHandler(t)
	c, rec := callbackContext("/oauth/google/callback?code=good-code&state=abc")

	require.NoError(t, h.Callback(c))
	require.Equal(t, http.StatusOK, rec.Code) // always the self-closing page
	require.Contains(t, rec.Body.String(), "error")
	require.Equal(t, 0, creds.upserts)
}

func TestCallbackMissingCode(t *testing.T) {
	h, creds := newCallbackHandler(t)
	c, rec := callbackContext("/oauth/google/callback?state=7")

	require.NoError(t, h.Callback(c))
	require.Contains(t, rec.Body.String(), "error")
	require.Equal(t, 0, creds.upserts)
}

func TestCallbackConsentDenied(t *testing.T) {
	h, creds := newCallbackHandler(t)
	c, rec := callbackContext("/oauth/google/callback?error=access_denied")

	require.NoError(t, h.Callback(c))
	require.Contains(t, rec.Body.String(), "consent denied")
	require.Equal(t, 0, creds.upserts)
}

func TestCallbackExchangeFailureKeepsPageUp(t *testing.T) {
	h, creds := newCallbackHandler(t)
	c, rec := callbackContext("/oauth/google/callback?code=wrong&state=7")

	require.NoError(t, h.Callback(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "token exchange failed")
	require.Equal(t, 0, creds.upserts)
}
