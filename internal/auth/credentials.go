package auth

import (
	"time"
)

// Request argument keys that may carry credential material. They are checked
// in this order during extraction and all of them are removed by SanitizeArgs.
const (
	keyUserCredentials       = "_userCredentials"
	keyUserCredentialsLegacy = "userCredentials"
	keyUserContext           = "_userContext"
	keyUserID                = "userId"
	keySessionID             = "sessionId"
)

// expiryBuffer is subtracted from the token expiry before comparison, to
// absorb clock skew and in-flight latency.
const expiryBuffer = 5 * time.Minute

// timeNow is stubbed in tests.
var timeNow = time.Now

// UserCredentials carries the OAuth material for exactly one request. It is
// never persisted or cached; the value lives only as long as the request
// that supplied it.
type UserCredentials struct {
	AccessToken  string
	RefreshToken string
	ExpiryDate   int64 // epoch milliseconds; zero means unknown
	TokenType    string
	Scope        string
	IDToken      string
}

// ExtractUserCredentials pulls credentials out of raw tool arguments.
// Three locations are recognized, in priority order: "_userCredentials",
// "userCredentials", and "_userContext.credentials". The first non-empty
// object wins.
func ExtractUserCredentials(args map[string]any) (UserCredentials, error) {
	if m := credentialObject(args[keyUserCredentials]); m != nil {
		return credentialsFromMap(m), nil
	}
	if m := credentialObject(args[keyUserCredentialsLegacy]); m != nil {
		return credentialsFromMap(m), nil
	}
	if uc, ok := args[keyUserContext].(map[string]any); ok {
		if m := credentialObject(uc["credentials"]); m != nil {
			return credentialsFromMap(m), nil
		}
	}
	return UserCredentials{}, NewError(KindMissingCredentials,
		"user credentials are required but not found in request; include credentials in the %q field", keyUserCredentials)
}

// HasUserCredentials mirrors the extraction locations without validating
// anything. Callers use it to choose between per-request and server
// credential mode.
func HasUserCredentials(args map[string]any) bool {
	if credentialObject(args[keyUserCredentials]) != nil {
		return true
	}
	if credentialObject(args[keyUserCredentialsLegacy]) != nil {
		return true
	}
	if uc, ok := args[keyUserContext].(map[string]any); ok {
		return credentialObject(uc["credentials"]) != nil
	}
	return false
}

// ValidateCredentials checks that the credentials are usable right now.
// Credentials without an expiry are accepted; expiry cannot be determined,
// so they fail later at the upstream API if stale.
func ValidateCredentials(creds UserCredentials) error {
	if creds.AccessToken == "" {
		return NewError(KindMissingAccessToken, "missing access token in user credentials")
	}
	if creds.ExpiryDate > 0 {
		expiry := time.UnixMilli(creds.ExpiryDate)
		if !timeNow().Before(expiry.Add(-expiryBuffer)) {
			return NewError(KindExpiredCredentials, "access token has expired; refresh your credentials")
		}
	}
	return nil
}

// SanitizeArgs returns a copy of args with all auth-related keys removed so
// credential material never reaches tool handlers or their logs. The input
// map is not mutated.
func SanitizeArgs(args map[string]any) map[string]any {
	clean := make(map[string]any, len(args))
	for k, v := range args {
		switch k {
		case keyUserCredentials, keyUserCredentialsLegacy, keyUserContext, keyUserID, keySessionID:
			continue
		}
		clean[k] = v
	}
	return clean
}

// credentialObject returns v as a non-empty map, or nil.
func credentialObject(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	return m
}

// credentialsFromMap resolves a loosely-shaped credential object into the
// canonical struct. Numbers arrive as float64 from JSON decoding but int64
// is accepted too for callers constructing arguments in Go.
func credentialsFromMap(m map[string]any) UserCredentials {
	return UserCredentials{
		AccessToken:  stringField(m, "accessToken"),
		RefreshToken: stringField(m, "refreshToken"),
		ExpiryDate:   int64Field(m, "expiryDate"),
		TokenType:    stringField(m, "tokenType"),
		Scope:        stringField(m, "scope"),
		IDToken:      stringField(m, "idToken"),
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func int64Field(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
