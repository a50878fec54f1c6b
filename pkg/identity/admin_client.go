package identity

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

	"github.com/latra/medicsystem-gta-backend/pkg/circuitbreaker"
)

var (
	ErrProviderRequest = errors.New("identity provider request failed")
	ErrAccountExists   = errors.New("account already exists")
)

// AdminClientConfig configures the provider admin API client.
type AdminClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// AdminClient provisions accounts through the identity provider's
// admin API. Calls go through a circuit breaker so a dead provider does
// not hold registration requests for the full timeout each time.
type AdminClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
}

func NewAdminClient(cfg AdminClientConfig) *AdminClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &AdminClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker: circuitbreaker.New(circuitbreaker.Settings{
			Name:        "identity-admin",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
	}
}

// do sends the request through the breaker. Only transport failures
// trip it; HTTP error statuses are handled by the callers.
func (c *AdminClient) do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := c.breaker.Execute(func() error {
		var doErr error
		resp, doErr = c.httpClient.Do(req)
		return doErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderRequest, err)
	}
	return resp, nil
}

type createAccountPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Enabled     bool   `json:"enabled"`
}

type accountResponse struct {
	UID string `json:"uid"`
}

func (c *AdminClient) CreateAccount(ctx context.Context, req AccountRequest) (string, error) {
	payload := createAccountPayload{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Enabled:     true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode account request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/accounts", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict:
		return "", ErrAccountExists
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrProviderRequest, resp.StatusCode, string(respBody))
	}

	var account accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderRequest, err)
	}
	if account.UID == "" {
		return "", fmt.Errorf("%w: empty uid in response", ErrProviderRequest)
	}

	return account.UID, nil
}

func (c *AdminClient) DisableAccount(ctx context.Context, subjectID string) error {
	return c.setAccountState(ctx, subjectID, "disable")
}

func (c *AdminClient) EnableAccount(ctx context.Context, subjectID string) error {
	return c.setAccountState(ctx, subjectID, "enable")
}

func (c *AdminClient) setAccountState(ctx context.Context, subjectID, action string) error {
	url := fmt.Sprintf("%s/v1/accounts/%s/%s", c.baseURL, subjectID, action)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: status %d", ErrProviderRequest, resp.StatusCode)
	}
	return nil
}
