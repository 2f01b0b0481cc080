package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadKeys(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		redirectURI  string
		wantClientID string
		wantRedirect string
		wantErr      bool
	}{
		{
			name:         "installed section",
			content:      `{"installed":{"client_id":"id-1","client_secret":"sec-1","redirect_uris":["http://localhost:3000/oauth2callback"]}}`,
			wantClientID: "id-1",
			wantRedirect: "http://localhost:3000/oauth2callback",
		},
		{
			name:         "web section",
			content:      `{"web":{"client_id":"id-2","client_secret":"sec-2","redirect_uris":["https://example.com/cb"]}}`,
			wantClientID: "id-2",
			wantRedirect: "https://example.com/cb",
		},
		{
			name:         "explicit redirect overrides file",
			content:      `{"installed":{"client_id":"id-3","client_secret":"sec-3","redirect_uris":["http://localhost:9999/cb"]}}`,
			redirectURI:  "http://localhost:4000/cb",
			wantClientID: "id-3",
			wantRedirect: "http://localhost:4000/cb",
		},
		{
			name:         "no redirect anywhere falls back to default",
			content:      `{"installed":{"client_id":"id-4","client_secret":"sec-4"}}`,
			wantClientID: "id-4",
			wantRedirect: DefaultRedirectURI,
		},
		{
			name:    "neither installed nor web",
			content: `{"something":{}}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			content: `{not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "gcp-oauth.keys.json", tt.content)

			identity, err := LoadKeys(path, tt.redirectURI)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantClientID, identity.ClientID)
			assert.Equal(t, tt.wantRedirect, identity.RedirectURI)
		})
	}
}

func TestLoadKeysMissingFile(t *testing.T) {
	_, err := LoadKeys(filepath.Join(t.TempDir(), "nope.json"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")

	expiry := time.Now().Add(time.Hour).Truncate(time.Millisecond)
	in := &oauth2.Token{
		AccessToken:  "ya29.access",
		RefreshToken: "1//refresh",
		TokenType:    "Bearer",
		Expiry:       expiry,
	}

	require.NoError(t, SaveToken(path, in))

	out, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, in.AccessToken, out.AccessToken)
	assert.Equal(t, in.RefreshToken, out.RefreshToken)
	assert.Equal(t, in.TokenType, out.TokenType)
	assert.Equal(t, expiry.UnixMilli(), out.Expiry.UnixMilli())
}

func TestSaveTokenFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "tok"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadTokenFileShape(t *testing.T) {
	// The file uses snake_case keys and an epoch-millisecond expiry.
	path := writeFile(t, t.TempDir(), "credentials.json",
		`{"access_token":"tok","refresh_token":"refresh","token_type":"Bearer","expiry_date":1700000000000}`)

	token, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "tok", token.AccessToken)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.Equal(t, int64(1700000000000), token.Expiry.UnixMilli())
}

func TestLoadTokenZeroExpiry(t *testing.T) {
	path := writeFile(t, t.TempDir(), "credentials.json", `{"access_token":"tok"}`)

	token, err := LoadToken(path)
	require.NoError(t, err)
	assert.True(t, token.Expiry.IsZero())
}

func TestLoadTokenMissing(t *testing.T) {
	_, err := LoadToken(filepath.Join(t.TempDir(), "credentials.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadTokenInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "credentials.json", `{corrupt`)
	_, err := LoadToken(path)
	require.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrNotExist))
}

func TestPathOverrides(t *testing.T) {
	t.Setenv(envOAuthPath, "/custom/keys.json")
	t.Setenv(envCredentialsPath, "/custom/creds.json")
	t.Setenv(envUserCredentials, "true")

	assert.Equal(t, "/custom/keys.json", OAuthPath())
	assert.Equal(t, "/custom/creds.json", CredentialsPath())
	assert.True(t, UserCredentialsEnabled())
}

func TestPathDefaults(t *testing.T) {
	t.Setenv(envOAuthPath, "")
	t.Setenv(envCredentialsPath, "")
	t.Setenv(envUserCredentials, "")

	assert.Contains(t, OAuthPath(), configDirName)
	assert.Contains(t, CredentialsPath(), configDirName)
	assert.False(t, UserCredentialsEnabled())
}
