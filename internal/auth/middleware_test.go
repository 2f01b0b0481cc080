package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDelegate struct {
	args   map[string]any
	client *Client
	result string
	err    error
	calls  int
}

func (d *recordingDelegate) Run(ctx context.Context, args map[string]any, client *Client) (string, error) {
	d.calls++
	d.args = args
	d.client = client
	return d.result, d.err
}

func testMiddleware() *Middleware {
	factory := NewClientFactory("client-id", "client-secret", "http://localhost:3000/oauth2callback")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMiddleware(factory, logger)
}

func TestExecuteWithUserAuth(t *testing.T) {
	mw := testMiddleware()
	delegate := &recordingDelegate{result: "done"}

	args := map[string]any{
		"messageId": "abc",
		"_userCredentials": map[string]any{
			"accessToken": "tok",
			"expiryDate":  float64(time.Now().Add(time.Hour).UnixMilli()),
		},
		"sessionId": "sess-1",
	}

	result, err := mw.ExecuteWithUserAuth(context.Background(), args, delegate)
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, 1, delegate.calls)

	// The delegate sees sanitized arguments and a client carrying the
	// request's token.
	assert.Equal(t, map[string]any{"messageId": "abc"}, delegate.args)
	require.NotNil(t, delegate.client)
	assert.Equal(t, "tok", delegate.client.Token().AccessToken)
}

func TestExecuteWithUserAuthCredentialFailures(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{
			name: "no credentials",
			args: map[string]any{"messageId": "abc"},
		},
		{
			name: "missing access token",
			args: map[string]any{
				"_userCredentials": map[string]any{"refreshToken": "refresh"},
			},
		},
		{
			name: "expired token",
			args: map[string]any{
				"_userCredentials": map[string]any{
					"accessToken": "tok",
					"expiryDate":  float64(time.Now().Add(-time.Hour).UnixMilli()),
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := testMiddleware()
			delegate := &recordingDelegate{}

			_, err := mw.ExecuteWithUserAuth(context.Background(), tt.args, delegate)
			require.Error(t, err)
			assert.Equal(t, KindAuthentication, KindOf(err))
			assert.Zero(t, delegate.calls, "delegate must not run on credential failure")
		})
	}
}

func TestExecuteWithUserAuthDelegateErrorPropagates(t *testing.T) {
	mw := testMiddleware()
	boom := errors.New("upstream exploded")
	delegate := &recordingDelegate{err: boom}

	_, err := mw.ExecuteWithUserAuth(context.Background(), map[string]any{
		"_userCredentials": map[string]any{"accessToken": "tok"},
	}, delegate)

	// Delegate errors are not credential errors and pass through unchanged.
	require.ErrorIs(t, err, boom)
	assert.NotEqual(t, KindAuthentication, KindOf(err))
}

func TestFactoryNewClientToken(t *testing.T) {
	factory := NewClientFactory("id", "secret", "http://localhost:3000/oauth2callback")

	expiry := time.Now().Add(time.Hour).UnixMilli()
	client := factory.NewClient(UserCredentials{
		AccessToken:  "tok",
		RefreshToken: "refresh",
		ExpiryDate:   expiry,
		TokenType:    "Bearer",
		Scope:        "https://mail.google.com/",
		IDToken:      "id-token",
	})

	token := client.Token()
	assert.Equal(t, "tok", token.AccessToken)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, time.UnixMilli(expiry).Unix(), token.Expiry.Unix())
	assert.Equal(t, "https://mail.google.com/", token.Extra("scope"))
	assert.Equal(t, "id-token", token.Extra("id_token"))
}

func TestFactoryNewClientOptionalFieldsStayZero(t *testing.T) {
	factory := NewClientFactory("id", "secret", "http://localhost:3000/oauth2callback")

	token := factory.NewClient(UserCredentials{AccessToken: "tok"}).Token()
	assert.Empty(t, token.RefreshToken)
	assert.True(t, token.Expiry.IsZero())
	assert.Nil(t, token.Extra("scope"))
}
