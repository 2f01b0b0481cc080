package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/inletmail/gmail-mcp/internal/config"
)

const authFlowTimeout = 5 * time.Minute

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize gmail-mcp with a Google account",
		Long: `Run the interactive OAuth authorization flow.

Starts a local listener on the redirect URI from the OAuth keys file
(default http://localhost:3000/oauth2callback), prints the consent URL,
waits for Google to redirect back with an authorization code, exchanges it
and writes the token file. The serve command then uses that token for all
requests that do not carry their own credentials.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd.Context())
		},
	}
}

func runAuth(ctx context.Context) error {
	cfg, err := config.Load(config.DefaultRedirectURI)
	if err != nil {
		return err
	}

	redirect, err := url.Parse(cfg.Identity.RedirectURI)
	if err != nil {
		return fmt.Errorf("invalid redirect URI %s: %w", cfg.Identity.RedirectURI, err)
	}

	conf := &oauth2.Config{
		ClientID:     cfg.Identity.ClientID,
		ClientSecret: cfg.Identity.ClientSecret,
		RedirectURL:  cfg.Identity.RedirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmailapi.MailGoogleComScope},
	}

	state, err := randomState()
	if err != nil {
		return err
	}

	code, err := receiveAuthCode(ctx, redirect, conf, state)
	if err != nil {
		return err
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if err := config.SaveToken(cfg.CredentialsPath, token); err != nil {
		return err
	}

	fmt.Printf("Authorization successful. Credentials saved to %s\n", cfg.CredentialsPath)
	return nil
}

// receiveAuthCode starts the loopback listener, prints the consent URL and
// blocks until the redirect delivers an authorization code or the flow
// times out.
func receiveAuthCode(ctx context.Context, redirect *url.URL, conf *oauth2.Config, state string) (string, error) {
	type callbackResult struct {
		code string
		err  error
	}
	results := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if errMsg := q.Get("error"); errMsg != "" {
			http.Error(w, "Authorization failed: "+errMsg, http.StatusBadRequest)
			results <- callbackResult{err: fmt.Errorf("authorization denied: %s", errMsg)}
			return
		}
		if q.Get("state") != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			results <- callbackResult{err: errors.New("state parameter mismatch in OAuth callback")}
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code", http.StatusBadRequest)
			results <- callbackResult{err: errors.New("no authorization code in OAuth callback")}
			return
		}
		fmt.Fprintln(w, "Authorization successful! You can close this window.")
		results <- callbackResult{code: code}
	})

	srv := &http.Server{
		Addr:              redirect.Host,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listenErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErr <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Println("Open the following URL in your browser to authorize gmail-mcp:")
	fmt.Println()
	fmt.Println("  " + authURL)
	fmt.Println()
	fmt.Printf("Waiting for the redirect on %s ...\n", redirect.String())

	select {
	case res := <-results:
		return res.code, res.err
	case err := <-listenErr:
		return "", fmt.Errorf("failed to start callback listener on %s: %w", redirect.Host, err)
	case <-time.After(authFlowTimeout):
		return "", fmt.Errorf("authorization timed out after %s", authFlowTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate OAuth state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
