package auth

import (
	"context"
	"log/slog"

	"github.com/inletmail/gmail-mcp/internal/logging"
)

// Delegate runs a tool's business function against a per-request
// authorization client. Implementations receive arguments that have already
// been sanitized.
type Delegate interface {
	Run(ctx context.Context, args map[string]any, client *Client) (string, error)
}

// Middleware orchestrates the per-request authentication flow:
// extract -> validate -> build client -> sanitize -> invoke delegate.
type Middleware struct {
	factory *ClientFactory
	logger  *slog.Logger
}

// NewMiddleware creates the authentication middleware around a client
// factory.
func NewMiddleware(factory *ClientFactory, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{factory: factory, logger: logger}
}

// ExecuteWithUserAuth runs delegate with a fresh authorization client built
// from the credentials carried in args. Credential failures are collapsed
// into a single authentication error kind; all other errors propagate
// unchanged. There is no retry here: a credential failure is fatal to the
// current request.
func (m *Middleware) ExecuteWithUserAuth(ctx context.Context, args map[string]any, delegate Delegate) (string, error) {
	creds, err := ExtractUserCredentials(args)
	if err != nil {
		return "", m.authFailure(err)
	}

	if err := ValidateCredentials(creds); err != nil {
		return "", m.authFailure(err)
	}

	client := m.factory.NewClient(creds)
	clean := SanitizeArgs(args)

	return delegate.Run(ctx, clean, client)
}

// HasUserCredentials reports whether args carry credentials in any of the
// recognized locations. It never validates; callers use it for mode
// selection only.
func (m *Middleware) HasUserCredentials(args map[string]any) bool {
	return HasUserCredentials(args)
}

func (m *Middleware) authFailure(err error) error {
	if !IsCredentialError(err) {
		return err
	}
	m.logger.Debug("request authentication failed", logging.Err(err))
	return WrapError(KindAuthentication, err, "authentication failed: %s", err.Error())
}
