package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/inletmail/gmail-mcp/internal/auth"
	"github.com/inletmail/gmail-mcp/internal/gmail"
	"github.com/inletmail/gmail-mcp/internal/logging"
)

// ClientProvider supplies the process-wide fallback Gmail client used when a
// request carries no per-request credentials.
type ClientProvider interface {
	GmailClient(ctx context.Context) (*gmail.Client, error)
}

// Recorder receives per-call metrics. Implementations must tolerate being
// called from concurrent requests.
type Recorder interface {
	RecordToolCall(ctx context.Context, tool, status string, duration time.Duration)
}

// Dispatcher routes a validated tool call to its handler, selecting between
// per-request user credentials and the fallback server credential.
type Dispatcher struct {
	middleware *auth.Middleware
	userMode   bool
	fallback   ClientProvider
	logger     *slog.Logger
	recorder   Recorder
}

// NewDispatcher wires the dispatcher. middleware may be nil when user-
// credential mode is disabled; recorder may be nil to disable metrics.
func NewDispatcher(middleware *auth.Middleware, userMode bool, fallback ClientProvider, logger *slog.Logger, recorder Recorder) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		middleware: middleware,
		userMode:   userMode,
		fallback:   fallback,
		logger:     logger,
		recorder:   recorder,
	}
}

// Call validates args against the tool's schema and invokes its handler with
// an authorization client. Unknown tool names return a not-found error.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	def, ok := Lookup(name)
	if !ok {
		return "", auth.NewError(auth.KindNotFound, "unknown tool: %s", name)
	}
	return d.Dispatch(ctx, def, args)
}

// Dispatch runs an already-resolved tool definition.
func (d *Dispatcher) Dispatch(ctx context.Context, def Definition, args map[string]any) (string, error) {
	if err := ValidateArgs(def, args); err != nil {
		return "", err
	}

	start := time.Now()
	result, err := d.invoke(ctx, def, args)
	d.record(ctx, def.Name, err, time.Since(start))
	return result, err
}

func (d *Dispatcher) invoke(ctx context.Context, def Definition, args map[string]any) (string, error) {
	if d.userMode && d.middleware != nil && d.middleware.HasUserCredentials(args) {
		return d.middleware.ExecuteWithUserAuth(ctx, args, &delegate{handler: def.Handler})
	}

	if d.fallback == nil {
		return "", auth.NewError(auth.KindMissingCredentials,
			"no server credentials configured and no user credentials supplied")
	}
	client, err := d.fallback.GmailClient(ctx)
	if err != nil {
		return "", err
	}
	return def.Handler(ctx, auth.SanitizeArgs(args), client)
}

func (d *Dispatcher) record(ctx context.Context, tool string, err error, duration time.Duration) {
	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
	}
	d.logger.Debug("tool call finished",
		logging.Tool(tool),
		logging.Status(status),
		slog.Duration(logging.KeyDuration, duration),
		logging.Err(err),
	)
	if d.recorder != nil {
		d.recorder.RecordToolCall(ctx, tool, status, duration)
	}
}

// delegate adapts a ToolFunc to the middleware's Delegate interface: it binds
// the per-request authorization client to a Gmail client and invokes the
// business function with the sanitized arguments.
type delegate struct {
	handler ToolFunc
}

func (r *delegate) Run(ctx context.Context, args map[string]any, client *auth.Client) (string, error) {
	gc, err := gmail.NewClient(ctx, client.HTTPClient(ctx))
	if err != nil {
		return "", err
	}
	return r.handler(ctx, args, gc)
}
