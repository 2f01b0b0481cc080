// Package config loads the process-wide configuration: the OAuth client
// identity from the key file and, in server-credential mode, the stored
// token. Both files are read at startup or during interactive
// authorization; request handlers never write them.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultRedirectURI is the loopback redirect used by the interactive
	// authorization flow.
	DefaultRedirectURI = "http://localhost:3000/oauth2callback"

	oauthKeysFilename  = "gcp-oauth.keys.json"
	credentialsFile    = "credentials.json"
	configDirName      = ".gmail-mcp"
	envOAuthPath       = "GMAIL_OAUTH_PATH"
	envCredentialsPath = "GMAIL_CREDENTIALS_PATH"
	envUserCredentials = "USE_USER_CREDENTIALS"
)

// ClientIdentity is the static OAuth client configuration shared by every
// request. It is loaded once at startup and never mutated afterwards.
type ClientIdentity struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Config holds everything the server needs at startup.
type Config struct {
	Identity        ClientIdentity
	OAuthPath       string
	CredentialsPath string

	// UseUserCredentials enables stateless per-request credential mode.
	UseUserCredentials bool
}

// Dir returns the configuration directory; creating it is left to callers.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configDirName
	}
	return filepath.Join(home, configDirName)
}

// OAuthPath returns the OAuth key file location, honoring the environment
// override.
func OAuthPath() string {
	if p := os.Getenv(envOAuthPath); p != "" {
		return p
	}
	return filepath.Join(Dir(), oauthKeysFilename)
}

// CredentialsPath returns the stored token location, honoring the
// environment override.
func CredentialsPath() string {
	if p := os.Getenv(envCredentialsPath); p != "" {
		return p
	}
	return filepath.Join(Dir(), credentialsFile)
}

// UserCredentialsEnabled reports whether per-request credential mode is
// switched on via the environment.
func UserCredentialsEnabled() bool {
	return os.Getenv(envUserCredentials) == "true"
}

// Load reads the OAuth key file and assembles the startup configuration.
// A key file found in the current working directory is copied into the
// config directory first, so a fresh checkout works without manual setup.
func Load(redirectURI string) (*Config, error) {
	oauthPath := OAuthPath()

	if local := filepath.Join(mustGetwd(), oauthKeysFilename); fileExists(local) && local != oauthPath {
		if err := copyFile(local, oauthPath); err != nil {
			return nil, fmt.Errorf("failed to copy local OAuth keys to %s: %w", oauthPath, err)
		}
	}

	identity, err := LoadKeys(oauthPath, redirectURI)
	if err != nil {
		return nil, err
	}

	return &Config{
		Identity:           identity,
		OAuthPath:          oauthPath,
		CredentialsPath:    CredentialsPath(),
		UseUserCredentials: UserCredentialsEnabled(),
	}, nil
}

// keyFile matches the Google Cloud OAuth key download, which nests the
// client identity under either "installed" or "web".
type keyFile struct {
	Installed *keySection `json:"installed"`
	Web       *keySection `json:"web"`
}

type keySection struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURIs []string `json:"redirect_uris"`
}

// LoadKeys parses the OAuth key file into a client identity. redirectURI
// overrides the file's redirect when non-empty.
func LoadKeys(path, redirectURI string) (ClientIdentity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClientIdentity{}, fmt.Errorf("OAuth keys file not found at %s: %w", path, err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return ClientIdentity{}, fmt.Errorf("invalid OAuth keys file %s: %w", path, err)
	}

	section := kf.Installed
	if section == nil {
		section = kf.Web
	}
	if section == nil {
		return ClientIdentity{}, fmt.Errorf("invalid OAuth keys file %s: expected %q or %q credentials", path, "installed", "web")
	}

	identity := ClientIdentity{
		ClientID:     section.ClientID,
		ClientSecret: section.ClientSecret,
		RedirectURI:  redirectURI,
	}
	if identity.RedirectURI == "" {
		if len(section.RedirectURIs) > 0 {
			identity.RedirectURI = section.RedirectURIs[0]
		} else {
			identity.RedirectURI = DefaultRedirectURI
		}
	}
	return identity, nil
}

// storedToken matches the token file shape written by the authorization
// flow: snake_case fields with an epoch-millisecond expiry.
type storedToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiryDate   int64  `json:"expiry_date,omitempty"`
}

// LoadToken reads the stored server-side token. Returns os.ErrNotExist when
// no token has been authorized yet.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("invalid credentials file %s: %w", path, err)
	}

	token := &oauth2.Token{
		AccessToken:  st.AccessToken,
		RefreshToken: st.RefreshToken,
		TokenType:    st.TokenType,
	}
	if st.ExpiryDate > 0 {
		token.Expiry = time.UnixMilli(st.ExpiryDate)
	}
	return token, nil
}

// SaveToken writes the token file after a successful interactive
// authorization. This is the only writer of the credentials file.
func SaveToken(path string, token *oauth2.Token) error {
	st := storedToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
	}
	if !token.Expiry.IsZero() {
		st.ExpiryDate = token.Expiry.UnixMilli()
	}

	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
