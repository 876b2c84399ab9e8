// Package auth talks to the external identity service and keeps the local
// credential state written after a successful sign-in.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/audithawk/internal/common"
)

// Identity service errors.
var (
	ErrRejected   = errors.New("authentication rejected")
	ErrGraphQL    = errors.New("identity service returned errors")
	ErrNoEndpoint = errors.New("auth endpoint is not configured")
)

const (
	loginMutation = `mutation Login($email: String!, $password: String!) {
  login(email: $email, password: $password) {
    success
    message
    token
    user { id email provider }
  }
}`

	signupMutation = `mutation Signup($email: String!, $password: String!) {
  signup(email: $email, password: $password) {
    success
    message
    token
    user { id email provider }
  }
}`

	googleAuthMutation = `mutation GoogleAuth($idToken: String!) {
  googleAuth(idToken: $idToken) {
    success
    message
    token
    user { id email provider }
  }
}`
)

// User is the account record returned by the identity service.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
}

// AuthPayload is the result of every sign-in operation.
type AuthPayload struct {
	User    *User  `json:"user"`
	Message string `json:"message"`
	Token   string `json:"token"`
	Success bool   `json:"success"`
}

type graphQLRequest struct {
	Variables map[string]any `json:"variables"`
	Query     string         `json:"query"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   map[string]*AuthPayload `json:"data"`
	Errors []graphQLError          `json:"errors"`
}

// ClientConfig configures a Client.
type ClientConfig struct {
	HTTPClient *http.Client
	Endpoint   string
	Retry      common.RetryOptions
}

// Client posts GraphQL documents to the identity service.
type Client struct {
	httpClient *http.Client
	endpoint   string
	retry      common.RetryOptions
}

// NewClient creates a client for the configured endpoint.
func NewClient(cfg ClientConfig) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		retry:      cfg.Retry,
	}, nil
}

// Login signs in with an email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	return c.do(ctx, "login", loginMutation, map[string]any{
		"email":    email,
		"password": password,
	})
}

// Signup creates an account and signs in to it.
func (c *Client) Signup(ctx context.Context, email, password string) (*AuthPayload, error) {
	return c.do(ctx, "signup", signupMutation, map[string]any{
		"email":    email,
		"password": password,
	})
}

// GoogleAuth exchanges a Google ID token for a service token.
func (c *Client) GoogleAuth(ctx context.Context, idToken string) (*AuthPayload, error) {
	return c.do(ctx, "googleAuth", googleAuthMutation, map[string]any{
		"idToken": idToken,
	})
}

func (c *Client) do(ctx context.Context, field, query string, variables map[string]any) (*AuthPayload, error) {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", field, err)
	}

	var resp graphQLResponse
	err = common.WithRetry(ctx, func() error {
		resp = graphQLResponse{}
		return c.post(ctx, body, &resp)
	}, c.retry)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", field, err)
	}

	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return nil, fmt.Errorf("%w: %s", ErrGraphQL, strings.Join(messages, "; "))
	}

	payload := resp.Data[field]
	if payload == nil {
		return nil, fmt.Errorf("%w: response has no %s field", ErrGraphQL, field)
	}
	if !payload.Success {
		return nil, common.NewUserError(payload.Message, ErrRejected)
	}
	return payload, nil
}

func (c *Client) post(ctx context.Context, body []byte, out *graphQLResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %w", common.ErrAuthUnavailable, err),
			Retryable: ctx.Err() == nil,
		}
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return common.ErrRateLimit
	case res.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", common.ErrAuthUnavailable, res.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// GraphQL servers often report errors with a 4xx status and a JSON body.
	if err := json.Unmarshal(data, out); err != nil {
		if res.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("identity service returned status %d", res.StatusCode)
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
