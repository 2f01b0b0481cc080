package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/inletmail/gmail-mcp/internal/auth"
	"github.com/inletmail/gmail-mcp/internal/config"
	"github.com/inletmail/gmail-mcp/internal/gmail"
	"github.com/inletmail/gmail-mcp/internal/instrumentation"
)

// ServerContext holds the process-wide server state shared by both
// transports.
type ServerContext struct {
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     *config.Config
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	version string
	started time.Time

	mu       sync.Mutex
	fallback *gmail.Client
	shutdown bool
}

// NewServerContext assembles the server state. The fallback Gmail client is
// not constructed here; it is built lazily on the first request that needs
// it, so user-credential deployments never require a token file.
func NewServerContext(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics, version string) *ServerContext {
	if logger == nil {
		logger = slog.Default()
	}
	baseCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:     baseCtx,
		cancel:  cancel,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		version: version,
		started: time.Now(),
	}
}

// Config returns the startup configuration.
func (sc *ServerContext) Config() *config.Config {
	return sc.cfg
}

// UserCredentialMode reports whether per-request credentials are enabled.
func (sc *ServerContext) UserCredentialMode() bool {
	return sc.cfg.UseUserCredentials
}

// Version returns the build version string.
func (sc *ServerContext) Version() string {
	return sc.version
}

// Uptime returns the time since the server context was created.
func (sc *ServerContext) Uptime() time.Duration {
	return time.Since(sc.started)
}

// GmailClient returns the process-wide fallback Gmail client, constructing
// it from the stored token on first use. The client is bound to the server
// lifetime, not to the calling request, and is never mutated after
// construction. Implements the dispatcher's ClientProvider.
func (sc *ServerContext) GmailClient(ctx context.Context) (*gmail.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.fallback != nil {
		return sc.fallback, nil
	}

	token, err := config.LoadToken(sc.cfg.CredentialsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, auth.NewError(auth.KindAuthentication,
				"no server credentials found at %s; run the auth command to authorize", sc.cfg.CredentialsPath)
		}
		return nil, auth.WrapError(auth.KindInternal, err, "failed to load server credentials")
	}

	conf := &oauth2.Config{
		ClientID:     sc.cfg.Identity.ClientID,
		ClientSecret: sc.cfg.Identity.ClientSecret,
		RedirectURL:  sc.cfg.Identity.RedirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmailapi.MailGoogleComScope},
	}

	// The token source lives as long as the server, so it is bound to the
	// server context rather than the first caller's request context.
	base := &http.Client{Transport: sc.metrics.Transport(nil)}
	clientCtx := context.WithValue(sc.ctx, oauth2.HTTPClient, base)

	client, err := gmail.NewClient(sc.ctx, conf.Client(clientCtx, token))
	if err != nil {
		return nil, err
	}

	sc.logger.Info("fallback Gmail client initialized")
	sc.fallback = client
	return client, nil
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.shutdown
}

// Shutdown cancels the server context. Safe to call more than once.
func (sc *ServerContext) Shutdown() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.shutdown {
		return
	}
	sc.shutdown = true
	sc.cancel()
}
