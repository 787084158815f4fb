package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"

	"github.com/kyleking/gh-ci-helpers/internal/github"
)

// RunFixture creates a workflow run record.
func RunFixture(id int64, name, sha, status, conclusion string) github.WorkflowRun {
	return github.WorkflowRun{
		ID:         id,
		Name:       name,
		HeadSHA:    sha,
		HeadBranch: "master",
		Status:     status,
		Conclusion: conclusion,
		HTMLURL:    fmt.Sprintf("https://github.com/owner/repo/actions/runs/%d", id),
		CreatedAt:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2024, 1, 1, 12, 5, 0, 0, time.UTC),
	}
}

// RunsResponse builds a 200 response listing the given runs.
func RunsResponse(t *testing.T, runs ...github.WorkflowRun) Response {
	t.Helper()

	if runs == nil {
		runs = []github.WorkflowRun{}
	}

	body := MustMarshalJSON(t, github.RunsResponse{TotalCount: len(runs), WorkflowRuns: runs})

	return Response{Status: http.StatusOK, Body: body}
}

// ErrorResponse builds an API error response with the given status.
func ErrorResponse(status int, message string) Response {
	return Response{Status: status, Body: fmt.Sprintf(`{"message":%q}`, message)}
}

// NewGitHubClient creates a github.Client for owner/repo backed by transport.
func NewGitHubClient(t *testing.T, transport http.RoundTripper) *github.Client {
	t.Helper()

	client, err := github.NewClient("owner/repo", ClientOptions(transport))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	return client
}

// ClientOptions returns go-gh options that never touch the network or local gh config.
func ClientOptions(transport http.RoundTripper) api.ClientOptions {
	return api.ClientOptions{
		Host:      "github.com",
		AuthToken: "test-token",
		Transport: transport,
		Headers:   map[string]string{"User-Agent": "gh-ci-helpers-test"},
	}
}

// MustMarshalJSON marshals v to JSON, failing the test if an error occurs.
func MustMarshalJSON(t *testing.T, v any) string {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}

	return string(data)
}

// WriteFile writes content to name inside dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}

	return path
}
