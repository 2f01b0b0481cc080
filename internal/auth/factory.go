package auth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ClientFactory builds per-request authorization clients from the static
// client identity loaded once at startup. The factory itself is immutable
// and safe for concurrent use; the clients it produces are not shared.
type ClientFactory struct {
	clientID     string
	clientSecret string
	redirectURI  string
}

// NewClientFactory creates a factory bound to the process-wide OAuth client
// identity.
func NewClientFactory(clientID, clientSecret, redirectURI string) *ClientFactory {
	return &ClientFactory{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
	}
}

// Client is an authorization capability scoped to a single request. It is
// constructed fresh for every call and must be discarded when the request
// completes; nothing in this package retains a reference to it.
type Client struct {
	conf  *oauth2.Config
	token *oauth2.Token
}

// NewClient constructs a fresh authorization client for one request's
// credentials. Optional credential fields are copied only when present;
// absent fields stay at their zero value rather than being defaulted.
func (f *ClientFactory) NewClient(creds UserCredentials) *Client {
	token := &oauth2.Token{
		AccessToken: creds.AccessToken,
	}
	if creds.RefreshToken != "" {
		token.RefreshToken = creds.RefreshToken
	}
	if creds.ExpiryDate > 0 {
		token.Expiry = time.UnixMilli(creds.ExpiryDate)
	}
	if creds.TokenType != "" {
		token.TokenType = creds.TokenType
	}

	extra := make(map[string]any)
	if creds.Scope != "" {
		extra["scope"] = creds.Scope
	}
	if creds.IDToken != "" {
		extra["id_token"] = creds.IDToken
	}
	if len(extra) > 0 {
		token = token.WithExtra(extra)
	}

	return &Client{
		conf: &oauth2.Config{
			ClientID:     f.clientID,
			ClientSecret: f.clientSecret,
			RedirectURL:  f.redirectURI,
			Endpoint:     google.Endpoint,
		},
		token: token,
	}
}

// Token returns the token this client was configured with.
func (c *Client) Token() *oauth2.Token {
	return c.token
}

// HTTPClient returns an HTTP client that authorizes requests with this
// client's token. The returned client lives only as long as the request.
func (c *Client) HTTPClient(ctx context.Context) *http.Client {
	return c.conf.Client(ctx, c.token)
}
