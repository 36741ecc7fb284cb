// Package authadmin talks to the Supabase Auth (GoTrue) admin API.
package authadmin

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

	"github.com/Kinfe123/supabase-auth-seeder/pkg/seeder"
)

const createUserPath = "/auth/v1/admin/users"

// Config holds client configuration
type Config struct {
	BaseURL        string
	ServiceRoleKey string
	Timeout        time.Duration

	// HTTPClient overrides the default client. Tests use this to point
	// at an httptest server.
	HTTPClient *http.Client
}

// Client creates users through the admin endpoint
type Client struct {
	http    *http.Client
	baseURL string
	key     string
}

// NewClient creates a new admin API client
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		key:     cfg.ServiceRoleKey,
	}
}

type createUserRequest struct {
	Email        string          `json:"email"`
	Password     string          `json:"password"`
	EmailConfirm bool            `json:"email_confirm"`
	UserMetadata seeder.Metadata `json:"user_metadata"`
}

// APIError is a non-2xx response from the admin API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match an APIError against the seeder sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case seeder.ErrCreateFailed:
		return true
	case seeder.ErrDuplicateEmail:
		return e.isDuplicate()
	case seeder.ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

func (e *APIError) isDuplicate() bool {
	if e.Code == "email_exists" || e.Code == "user_already_exists" {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "already been registered") || strings.Contains(msg, "already registered")
}

// Create creates one pre-confirmed user
func (c *Client) Create(ctx context.Context, record seeder.AccountRecord) error {
	body, err := json.Marshal(createUserRequest{
		Email:        record.Email,
		Password:     record.Password,
		EmailConfirm: true,
		UserMetadata: record.Metadata,
	})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createUserPath, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("apikey", c.key)
	httpReq.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %w", seeder.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// Drain so the keep-alive connection is reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%w: reading error body: %w", seeder.ErrTransport, err)
	}
	return parseAPIError(resp.StatusCode, bodyBytes)
}

// parseAPIError decodes the error body. GoTrue has used several shapes
// over time: {"code","msg"}, {"error_code","msg"}, {"error","error_description"}.
func parseAPIError(status int, body []byte) error {
	var payload struct {
		Code             json.RawMessage `json:"code"`
		ErrorCode        string          `json:"error_code"`
		Msg              string          `json:"msg"`
		Message          string          `json:"message"`
		Error            string          `json:"error"`
		ErrorDescription string          `json:"error_description"`
	}

	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}

	apiErr.Code = payload.ErrorCode
	if apiErr.Code == "" && len(payload.Code) > 0 {
		var code string
		if json.Unmarshal(payload.Code, &code) == nil {
			apiErr.Code = code
		}
	}
	if apiErr.Code == "" {
		apiErr.Code = payload.Error
	}

	for _, m := range []string{payload.Msg, payload.Message, payload.ErrorDescription, payload.Error} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// AsAPIError unwraps err to an *APIError if there is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
