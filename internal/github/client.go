// Package github provides read access to the GitHub Actions runs API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/cli/go-gh/v2/pkg/repository"

	cierr "github.com/kyleking/gh-ci-helpers/internal/errors"
)

// DefaultPerPage is the page size requested from the runs listing.
const DefaultPerPage = 30

// Client wraps the GitHub REST API client for a single repository.
type Client struct {
	rest    *api.RESTClient
	owner   string
	repo    string
	perPage int
}

// NewClient creates a GitHub API client for the specified repository.
func NewClient(repoFullName string, opts api.ClientOptions) (*Client, error) {
	parsed, err := repository.Parse(repoFullName)
	if err != nil {
		return nil, fmt.Errorf("invalid repository %q (expected owner/repo): %w", repoFullName, err)
	}

	if opts.Host == "" {
		opts.Host = parsed.Host
	}

	rest, err := api.NewRESTClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create REST client: %w", err)
	}

	return &Client{
		rest:    rest,
		owner:   parsed.Owner,
		repo:    parsed.Name,
		perPage: DefaultPerPage,
	}, nil
}

// WithPerPage sets the page size of the runs listing.
func (c *Client) WithPerPage(n int) *Client {
	if n > 0 {
		c.perPage = n
	}

	return c
}

// ListWorkflowRuns fetches the most recent workflow runs of the repository.
func (c *Client) ListWorkflowRuns(ctx context.Context) ([]WorkflowRun, error) {
	path := fmt.Sprintf("repos/%s/%s/actions/runs?per_page=%d", c.owner, c.repo, c.perPage)

	resp, err := c.rest.RequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, providerError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &cierr.ProviderError{Operation: "read workflow runs", StatusCode: resp.StatusCode, Err: err}
	}

	var runsResp RunsResponse
	if err := json.Unmarshal(body, &runsResp); err != nil {
		return nil, &cierr.ProviderError{Operation: "parse workflow runs", StatusCode: resp.StatusCode, Err: err}
	}

	return runsResp.WorkflowRuns, nil
}

// Owner returns the repository owner.
func (c *Client) Owner() string {
	return c.owner
}

// Repo returns the repository name.
func (c *Client) Repo() string {
	return c.repo
}

// FullName returns the repository in owner/repo format.
func (c *Client) FullName() string {
	return c.owner + "/" + c.repo
}

func providerError(err error) error {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		return &cierr.ProviderError{Operation: "list workflow runs", StatusCode: httpErr.StatusCode, Err: err}
	}

	return &cierr.ProviderError{Operation: "list workflow runs", Err: err}
}
