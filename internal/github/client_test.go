package github_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cierr "github.com/kyleking/gh-ci-helpers/internal/errors"
	"github.com/kyleking/gh-ci-helpers/internal/github"
	"github.com/kyleking/gh-ci-helpers/internal/testutil"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		repoName    string
		expectError bool
		wantOwner   string
		wantRepo    string
	}{
		{
			name:      "valid repo format",
			repoName:  "owner/repo",
			wantOwner: "owner",
			wantRepo:  "repo",
		},
		{
			name:      "with organization",
			repoName:  "supertokens/supertokens-core",
			wantOwner: "supertokens",
			wantRepo:  "supertokens-core",
		},
		{
			name:        "invalid format - no slash",
			repoName:    "invalid",
			expectError: true,
		},
		{
			name:        "invalid format - empty",
			repoName:    "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := github.NewClient(tt.repoName, testutil.ClientOptions(testutil.NewFakeTransport()))

			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, client.Owner())
			assert.Equal(t, tt.wantRepo, client.Repo())
			assert.Equal(t, tt.wantOwner+"/"+tt.wantRepo, client.FullName())
		})
	}
}

func TestClient_ListWorkflowRuns(t *testing.T) {
	transport := testutil.NewFakeTransport(testutil.RunsResponse(t,
		testutil.RunFixture(1, "Publish Dev Docker Image", "abc123", github.StatusCompleted, github.ConclusionSuccess),
		testutil.RunFixture(2, "Run tests", "abc123", github.StatusInProgress, ""),
	))
	client := testutil.NewGitHubClient(t, transport)

	runs, err := client.ListWorkflowRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, int64(1), runs[0].ID)
	assert.Equal(t, "abc123", runs[0].HeadSHA)
	assert.True(t, runs[0].IsSuccess())
	assert.False(t, runs[1].IsCompleted())

	require.Equal(t, 1, transport.Calls())
	req := transport.Requests[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/repos/owner/repo/actions/runs", req.URL.Path)
	assert.Equal(t, "30", req.URL.Query().Get("per_page"))
	assert.Equal(t, "gh-ci-helpers-test", req.Header.Get("User-Agent"))
}

func TestClient_ListWorkflowRuns_PerPage(t *testing.T) {
	transport := testutil.NewFakeTransport(testutil.RunsResponse(t))
	client := testutil.NewGitHubClient(t, transport).WithPerPage(100)

	runs, err := client.ListWorkflowRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.Equal(t, "100", transport.Requests[0].URL.Query().Get("per_page"))
}

func TestClient_ListWorkflowRuns_Errors(t *testing.T) {
	tests := []struct {
		name       string
		response   testutil.Response
		wantStatus int
	}{
		{
			name:       "not found",
			response:   testutil.ErrorResponse(http.StatusNotFound, "Not Found"),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "server error",
			response:   testutil.ErrorResponse(http.StatusBadGateway, "Bad Gateway"),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "invalid JSON response",
			response:   testutil.Response{Status: http.StatusOK, Body: "invalid json"},
			wantStatus: http.StatusOK,
		},
		{
			name:     "transport failure",
			response: testutil.Response{Err: errors.New("connection refused")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testutil.NewGitHubClient(t, testutil.NewFakeTransport(tt.response))

			_, err := client.ListWorkflowRuns(context.Background())
			require.Error(t, err)

			var providerErr *cierr.ProviderError
			require.ErrorAs(t, err, &providerErr)
			assert.Equal(t, tt.wantStatus, providerErr.StatusCode)
		})
	}
}

func TestFindRun(t *testing.T) {
	runs := []github.WorkflowRun{
		testutil.RunFixture(1, "Publish Dev Docker Image", "other", github.StatusCompleted, github.ConclusionSuccess),
		testutil.RunFixture(2, "Run tests", "abc123", github.StatusCompleted, github.ConclusionSuccess),
		testutil.RunFixture(3, "Publish Dev Docker Image", "abc123", github.StatusInProgress, ""),
		testutil.RunFixture(4, "Publish Dev Docker Image", "abc123", github.StatusCompleted, github.ConclusionFailure),
	}

	run, ok := github.FindRun(runs, "abc123", "Publish Dev Docker Image")
	require.True(t, ok)
	assert.Equal(t, int64(3), run.ID, "first match in listing order wins")

	_, ok = github.FindRun(runs, "abc123", "Missing")
	assert.False(t, ok)

	_, ok = github.FindRun(nil, "abc123", "Run tests")
	assert.False(t, ok)
}

func TestNamesForCommit(t *testing.T) {
	runs := []github.WorkflowRun{
		testutil.RunFixture(1, "Run tests", "abc123", github.StatusCompleted, ""),
		testutil.RunFixture(2, "Lint", "other", github.StatusCompleted, ""),
		testutil.RunFixture(3, "Run tests", "abc123", github.StatusCompleted, ""),
		testutil.RunFixture(4, "Publish Dev Docker Image", "abc123", github.StatusQueued, ""),
	}

	assert.Equal(t, []string{"Run tests", "Publish Dev Docker Image"}, github.NamesForCommit(runs, "abc123"))
	assert.Empty(t, github.NamesForCommit(runs, "nope"))
}
