package ownerservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client клиент каталога владельцев EV
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetOwner получает владельца по NIC
func (c *Client) GetOwner(ctx context.Context, nic string) (*Owner, error) {
	endpoint := fmt.Sprintf("%s/internal/evowners/%s", c.baseURL, url.PathEscape(nic))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrOwnerNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var owner Owner
	if err := json.NewDecoder(resp.Body).Decode(&owner); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	return &owner, nil
}

// EnsureActive проверяет, что владелец существует и активен.
// При недоступности каталога возвращает ErrServiceDegraded: вызывающий решает,
// продолжать ли без проверки.
func (c *Client) EnsureActive(ctx context.Context, nic string) error {
	owner, err := c.GetOwner(ctx, nic)
	if err != nil {
		if errors.Is(err, ErrOwnerNotFound) {
			c.log.Warn("EnsureActive: owner nic=%s not found", nic)
			return err
		}
		c.log.Error("OwnerService unavailable, applying graceful degradation for nic=%s: %v", nic, err)
		return fmt.Errorf("%w: nic=%s, error=%v", ErrServiceDegraded, nic, err)
	}

	if !owner.IsActive {
		c.log.Warn("EnsureActive: owner nic=%s is inactive", nic)
		return ErrOwnerInactive
	}
	return nil
}
