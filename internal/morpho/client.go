// Package morpho fetches vault, market, position and liquidation data from
// the Morpho GraphQL API and maps the wire shapes into domain types.
package morpho

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
)

// Default configuration values.
const (
	DefaultEndpoint = "https://api.morpho.org/graphql"
	DefaultTimeout  = 30 * time.Second

	// Retries are off by default: the builder treats any fetch failure as
	// a failed build and the caller decides whether to re-run it.
	DefaultMaxRetries = 0

	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Defaults for the mainnet deployment this service usually targets.
const (
	DefaultChainID      = 1
	DefaultVaultAddress = "0xdd0f28e19c1780eb6396170735d45153d261490d"
)

// ErrVaultNotFound is returned when the API has no vault at the requested
// address and chain.
var ErrVaultNotFound = errors.New("vault not found")

// Querier executes one GraphQL query and decodes the data payload into out.
type Querier interface {
	Query(ctx context.Context, query string, variables map[string]any, out any) error
}

// QuerierFunc adapts a function to the Querier interface.
type QuerierFunc func(ctx context.Context, query string, variables map[string]any, out any) error

func (f QuerierFunc) Query(ctx context.Context, query string, variables map[string]any, out any) error {
	return f(ctx, query, variables, out)
}

// Client is an HTTP GraphQL client for the Morpho API.
type Client struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for transport-level failures.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new Morpho GraphQL client.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// graphqlRequest is the POST body of a GraphQL call.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// graphqlResponse is the envelope of a GraphQL response.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []graphqlError  `json:"errors,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

// Query performs one GraphQL call. GraphQL-level errors are never retried;
// transport failures retry only when configured.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("morpho api request failed (%d)", resp.StatusCode)
			continue
		}

		var envelope graphqlResponse
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		// GraphQL errors describe the query, not the transport.
		if len(envelope.Errors) > 0 {
			messages := make([]string, len(envelope.Errors))
			for i, e := range envelope.Errors {
				messages[i] = e.Message
			}
			return errors.New(strings.Join(messages, "; "))
		}

		if envelope.Data == nil {
			return errors.New("morpho api returned empty data")
		}

		if out != nil {
			if err := json.Unmarshal(envelope.Data, out); err != nil {
				return fmt.Errorf("unmarshal data: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}
