package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/Veraticus/audithawk/internal/common"
)

// Google sign-in errors.
var (
	ErrNoIDToken     = errors.New("google did not return an id_token")
	ErrStateMismatch = errors.New("oauth state mismatch")
	ErrNoAuthCode    = errors.New("no authorization code received")
)

// DefaultCallbackAddr is where the local OAuth2 callback listens.
const DefaultCallbackAddr = "127.0.0.1:8085"

const callbackPath = "/callback"

// GoogleConfig configures the federated sign-in code flow.
type GoogleConfig struct {
	// OpenURL presents the consent URL to the user. Nil logs it.
	OpenURL      func(authURL string)
	Endpoint     oauth2.Endpoint
	ClientID     string
	ClientSecret string
	CallbackAddr string
	Timeout      time.Duration
	// Verify checks the id_token signature and audience before it is sent
	// to the identity service.
	Verify bool
}

func (c GoogleConfig) oauthConfig(redirectURL string) *oauth2.Config {
	endpoint := c.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

type callbackResult struct {
	err  error
	code string
}

// GoogleIDToken runs the authorization-code flow against Google with a
// local callback server and returns the raw id_token.
func GoogleIDToken(ctx context.Context, cfg GoogleConfig) (string, error) {
	if cfg.ClientID == "" {
		return "", fmt.Errorf("%w: auth.google.client_id", common.ErrMissingConfig)
	}
	addr := cfg.CallbackAddr
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to start callback server: %w", err)
	}

	oauthConfig := cfg.oauthConfig("http://" + ln.Addr().String() + callbackPath)
	state := uuid.NewString()

	results := make(chan callbackResult, 1)
	deliver := func(r callbackResult) {
		select {
		case results <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		switch {
		case query.Get("state") != state:
			deliver(callbackResult{err: ErrStateMismatch})
			writeCallbackPage(w, http.StatusBadRequest, "Authentication Failed", "The sign-in response did not match this request.")
		case query.Get("code") == "":
			deliver(callbackResult{err: ErrNoAuthCode})
			writeCallbackPage(w, http.StatusBadRequest, "Authentication Failed", "No authorization code received. Please try again.")
		default:
			deliver(callbackResult{code: query.Get("code")})
			writeCallbackPage(w, http.StatusOK, "Authentication Successful!", "You can close this window and return to the terminal.")
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deliver(callbackResult{err: fmt.Errorf("callback server failed: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Error shutting down callback server", "error", err)
		}
	}()

	authURL := oauthConfig.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
	if cfg.OpenURL != nil {
		cfg.OpenURL(authURL)
	} else {
		slog.Info("Please visit this URL to sign in with Google", "url", authURL)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var code string
	select {
	case r := <-results:
		if r.err != nil {
			return "", r.err
		}
		code = r.code
	case <-timer.C:
		return "", fmt.Errorf("authentication timeout: no response received within %s", timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	raw, _ := token.Extra("id_token").(string)
	if raw == "" {
		return "", ErrNoIDToken
	}

	if cfg.Verify {
		if _, err := idtoken.Validate(ctx, raw, cfg.ClientID); err != nil {
			return "", fmt.Errorf("invalid id_token: %w", err)
		}
	}
	return raw, nil
}

func writeCallbackPage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `<html><body>
	<h1>%s</h1>
	<p>%s</p>
	<script>window.setTimeout(function(){window.close();}, 3000);</script>
</body></html>`, title, message)
}
