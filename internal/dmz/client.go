package dmz

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

	"registration-sync-go/internal/models"

	"go.uber.org/zap"
)

// Client talks to the DMZ allow-list API. Both Upsert and Remove are
// idempotent: "already in desired state" responses count as success.
type Client struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
}

func NewClient(cfg models.AllowListConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("dmz base URL is empty")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("dmz api key is empty")
	}

	apiKeyHeader := cfg.APIKeyHeader
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: timeout},
	}, nil
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method string, payload interface{}) (int, *apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(c.apiKeyHdr, c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	parsed := &apiResponse{}
	// Error bodies are not always JSON; a decode failure keeps the status code.
	_ = json.Unmarshal(raw, parsed)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := parsed.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return resp.StatusCode, parsed, fmt.Errorf("dmz api error %d: %s", resp.StatusCode, msg)
	}
	return resp.StatusCode, parsed, nil
}

// Upsert adds an identity to the allow-list. A conflict response means the
// identity is already present, which is the desired end state, so it is
// success, not failure.
func (c *Client) Upsert(ctx context.Context, identity models.AllowListIdentity) error {
	status, _, err := c.do(ctx, http.MethodPost, identity)
	if err != nil {
		if status == http.StatusConflict {
			zap.L().Info("Identity already present in allow-list", zap.String("email", identity.Email))
			return nil
		}
		zap.L().Error("Failed to add identity to allow-list",
			zap.String("email", identity.Email), zap.Error(err))
		return err
	}

	zap.L().Info("Identity added to allow-list", zap.String("email", identity.Email))
	return nil
}

// Remove deletes an identity from the allow-list by email. A not-found
// response already satisfies the desired end state and is not an error.
func (c *Client) Remove(ctx context.Context, email string) error {
	status, _, err := c.do(ctx, http.MethodDelete, map[string]string{"email": email})
	if err != nil {
		if status == http.StatusNotFound {
			zap.L().Info("Identity already absent from allow-list", zap.String("email", email))
			return nil
		}
		zap.L().Error("Failed to remove identity from allow-list",
			zap.String("email", email), zap.Error(err))
		return err
	}

	zap.L().Info("Identity removed from allow-list", zap.String("email", email))
	return nil
}

// Swap replaces one identity with another, used when an email or university
// changes. The removal of the old identity is best-effort; the add of the
// new identity runs unconditionally.
func (c *Client) Swap(ctx context.Context, oldEmail string, identity models.AllowListIdentity) error {
	if err := c.Remove(ctx, oldEmail); err != nil {
		zap.L().Warn("Old identity could not be removed, proceeding with add",
			zap.String("old_email", oldEmail), zap.Error(err))
	}
	return c.Upsert(ctx, identity)
}
