package gcal

import "net/url"

// Scopes requested during the OAuth flow: enough to write calendar events
// and read the basic profile.
const oauthScopes = "https://www.googleapis.com/auth/calendar.events https://www.googleapis.com/auth/userinfo.profile"

// AuthURL builds the authorization URL the UI opens in a popup.  state
// carries the user identifier through the round trip and comes back on the
// callback.  access_type=offline with prompt=consent forces Google to issue
// a refresh token.
func (c *Client) AuthURL(state string) string {
	q := url.Values{
		"client_id":     {c.opts.ClientID},
		"redirect_uri":  {c.opts.RedirectURL},
		"response_type": {"code"},
		"scope":         {oauthScopes},
		"access_type":   {"offline"},
		"prompt":        {"consent"},
		"state":         {state},
	}
	return c.opts.AuthURL + "?" + q.Encode()
}
