// Package gcal mirrors visits to Google Calendar.  It contains the OAuth
// code/token exchange, a thin REST client over the Calendar v3 API, and the
// sync bridge that decides between create and update per visit.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Default Google endpoints.  Overridable so tests can point the client at a
// local httptest server.
const (
	defaultAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultCalendarURL = "https://www.googleapis.com/calendar/v3"
)

// ErrReauth signals that the stored credential is expired or revoked and the
// user must go through the OAuth flow again.  Callers clear stored tokens
// when they see it.
var ErrReauth = errors.New("calendar credential expired or revoked")

// Options configures a Client.  Zero-value endpoint fields fall back to the
// public Google URLs.
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	CalendarURL  string
}

func (o *Options) fill() {
	if o.AuthURL == "" {
		o.AuthURL = defaultAuthURL
	}
	if o.TokenURL == "" {
		o.TokenURL = defaultTokenURL
	}
	if o.CalendarURL == "" {
		o.CalendarURL = defaultCalendarURL
	}
}

// Client talks to the Google OAuth token endpoint and the Calendar REST API.
type Client struct {
	opts Options
	http *resty.Client
}

// NewClient builds a calendar API client.
func NewClient(opts Options) *Client {
	opts.fill()
	http := resty.New().
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{opts: opts, http: http}
}

// Token is the OAuth token response subset this service cares about.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// tokenError mirrors the OAuth error body.
type tokenError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Exchange trades an authorization code for an access/refresh token pair.
func (c *Client) Exchange(ctx context.Context, code string) (Token, error) {
	var (
		tok  Token
		oerr tokenError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "authorization_code",
			"code":          code,
			"client_id":     c.opts.ClientID,
			"client_secret": c.opts.ClientSecret,
			"redirect_uri":  c.opts.RedirectURL,
		}).
		SetResult(&tok).
		SetError(&oerr).
		Post(c.opts.TokenURL)
	if err != nil {
		return Token{}, fmt.Errorf("token exchange request: %w", err)
	}
	if resp.IsError() {
		return Token{}, fmt.Errorf("token exchange failed: %s (%s)", oerr.Error, oerr.ErrorDescription)
	}
	return tok, nil
}

// RefreshAccess obtains a fresh access token from a stored refresh token.
// Google answers invalid_grant when the refresh token was revoked or
// expired; that is surfaced as ErrReauth.
func (c *Client) RefreshAccess(ctx context.Context, refreshToken string) (access string, expiresAt time.Time, err error) {
	var (
		tok  Token
		oerr tokenError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
			"client_id":     c.opts.ClientID,
			"client_secret": c.opts.ClientSecret,
		}).
		SetResult(&tok).
		SetError(&oerr).
		Post(c.opts.TokenURL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token refresh request: %w", err)
	}
	if resp.IsError() {
		if oerr.Error == "invalid_grant" || resp.StatusCode() == 401 {
			return "", time.Time{}, ErrReauth
		}
		return "", time.Time{}, fmt.Errorf("token refresh failed: %s (%s)", oerr.Error, oerr.ErrorDescription)
	}
	return tok.AccessToken, time.Now().UTC().Add(time.Duration(tok.ExpiresIn) * time.Second), nil
}

// Event is the calendar entry payload for one visit.
type Event struct {
	Summary     string    `json:"-"`
	Description string    `json:"-"`
	Start       time.Time `json:"-"`
	End         time.Time `json:"-"`
}

// eventBody is the wire form expected by the Calendar API.
type eventBody struct {
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Start       eventDateTime `json:"start"`
	End         eventDateTime `json:"end"`
}

type eventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type eventResp struct {
	ID string `json:"id"`
}

func buildBody(ev Event, loc *time.Location) eventBody {
	tz := loc.String()
	return eventBody{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       eventDateTime{DateTime: ev.Start.In(loc).Format(time.RFC3339), TimeZone: tz},
		End:         eventDateTime{DateTime: ev.End.In(loc).Format(time.RFC3339), TimeZone: tz},
	}
}

// CreateEvent inserts a new event on the user's primary calendar and returns
// the external event id.
func (c *Client) CreateEvent(ctx context.Context, accessToken string, ev Event, loc *time.Location) (string, error) {
	var out eventResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(buildBody(ev, loc)).
		SetResult(&out).
		Post(c.opts.CalendarURL + "/calendars/primary/events")
	if err != nil {
		return "", fmt.Errorf("create event request: %w", err)
	}
	if err := apiError(resp); err != nil {
		return "", err
	}
	return out.ID, nil
}

// UpdateEvent rewrites an existing event in place.
func (c *Client) UpdateEvent(ctx context.Context, accessToken, eventID string, ev Event, loc *time.Location) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(buildBody(ev, loc)).
		Put(c.opts.CalendarURL + "/calendars/primary/events/" + eventID)
	if err != nil {
		return fmt.Errorf("update event request: %w", err)
	}
	return apiError(resp)
}

func apiError(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	if resp.StatusCode() == 401 {
		return ErrReauth
	}
	return fmt.Errorf("calendar API error: %s: %s", resp.Status(), resp.String())
}
