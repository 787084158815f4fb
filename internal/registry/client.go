// Package registry registers release metadata with the version registry service.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	cierr "github.com/kyleking/gh-ci-helpers/internal/errors"
	"github.com/kyleking/gh-ci-helpers/internal/release"
)

// Defaults for the registry endpoint.
const (
	DefaultURL        = "https://api.supertokens.io/0/core"
	DefaultAPIVersion = "0"
	DefaultMaxRetries = 4
)

const maxBodyLen = 4096

// Client sends registrations to the registry.
type Client struct {
	url        string
	apiVersion string
	httpClient *http.Client
	newBackOff func() backoff.BackOff
	maxRetries uint64
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBackOff replaces the retry schedule; the factory is called once per Register.
func WithBackOff(factory func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = factory
	}
}

// WithMaxRetries bounds the number of retries after the first attempt.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a registry client for url.
func NewClient(url, apiVersion string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}

	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	c := &Client{
		url:        url,
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		newBackOff: defaultBackOff,
		maxRetries: DefaultMaxRetries,
		logger:     slog.Default(),
	}

	for _, o := range opts {
		o(c)
	}

	return c
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxElapsedTime = time.Minute

	return b
}

// URL returns the registry endpoint.
func (c *Client) URL() string {
	return c.url
}

// Register PUTs the registration. Transport failures and 5xx/429 responses are
// retried; any other non-200 response fails immediately.
func (c *Client) Register(ctx context.Context, reg release.Registration) error {
	body, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to marshal registration: %w", err)
	}

	attempt := 0
	operation := func() error {
		attempt++
		return c.put(ctx, body)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	notify := func(err error, next time.Duration) {
		c.logger.Warn("registry request failed, retrying", "attempt", attempt, "retry_in", next, "error", err)
	}

	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return err
	}

	c.logger.Info("registered version", "version", reg.Version, "attempts", attempt)

	return nil
}

func (c *Client) put(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(&cierr.RegistryError{URL: c.url, Err: fmt.Errorf("creating request: %w", err)})
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-version", c.apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &cierr.RegistryError{URL: c.url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyLen))

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	regErr := &cierr.RegistryError{
		URL:        c.url,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(respBody)),
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return regErr
	}

	return backoff.Permanent(regErr)
}
