package waiter_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	cierr "github.com/kyleking/gh-ci-helpers/internal/errors"
	"github.com/kyleking/gh-ci-helpers/internal/github"
	"github.com/kyleking/gh-ci-helpers/internal/testutil"
	"github.com/kyleking/gh-ci-helpers/internal/waiter"
)

const (
	testSHA      = "abc123"
	testWorkflow = "Publish Dev Docker Image"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type listResponse struct {
	runs []github.WorkflowRun
	err  error
}

// scriptedLister replays listings in order, repeating the last one.
type scriptedLister struct {
	responses []listResponse
	clock     *testutil.FakeClock
	pollTimes []time.Time
}

func (s *scriptedLister) ListWorkflowRuns(_ context.Context) ([]github.WorkflowRun, error) {
	idx := len(s.pollTimes)
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}

	s.pollTimes = append(s.pollTimes, s.clock.Now())
	r := s.responses[idx]

	return r.runs, r.err
}

func newScripted(clock *testutil.FakeClock, responses ...listResponse) *scriptedLister {
	return &scriptedLister{responses: responses, clock: clock}
}

func runs(r ...github.WorkflowRun) listResponse {
	return listResponse{runs: r}
}

func query() waiter.RunQuery {
	return waiter.RunQuery{Repository: "owner/repo", CommitSHA: testSHA, WorkflowName: testWorkflow}
}

func newWaiter(lister waiter.RunLister, clock *testutil.FakeClock) *waiter.Waiter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return waiter.New(lister, waiter.DefaultOptions(), waiter.WithClock(clock), waiter.WithLogger(logger))
}

func TestWait_SuccessOnFirstPoll(t *testing.T) {
	clock := testutil.NewFakeClock()
	lister := newScripted(clock, runs(
		testutil.RunFixture(10, testWorkflow, testSHA, github.StatusCompleted, github.ConclusionSuccess),
	))

	outcome := newWaiter(lister, clock).Wait(context.Background(), query())

	assert.Equal(t, waiter.OutcomeSuccess, outcome.Kind)
	require.NoError(t, outcome.Err())
	assert.Equal(t, 1, outcome.Polls)
	require.NotNil(t, outcome.Run)
	assert.Equal(t, int64(10), outcome.Run.ID)
	assert.Equal(t, []time.Duration{waiter.DefaultGraceDelay}, clock.Sleeps)
	assert.Equal(t, 0, cierr.ExitCode(outcome.Err()))
}

func TestWait_NotFoundIsFatalOnFirstPoll(t *testing.T) {
	clock := testutil.NewFakeClock()
	lister := newScripted(clock, runs(
		testutil.RunFixture(1, testWorkflow, "other-sha", github.StatusCompleted, github.ConclusionSuccess),
		testutil.RunFixture(2, "Run tests", testSHA, github.StatusInProgress, ""),
	))

	outcome := newWaiter(lister, clock).Wait(context.Background(), query())

	assert.Equal(t, waiter.OutcomeFailure, outcome.Kind)
	assert.Equal(t, 1, outcome.Polls)

	var notFound *cierr.RunNotFoundError
	require.ErrorAs(t, outcome.Err(), &notFound)
	assert.Equal(t, testSHA, notFound.CommitSHA)
	assert.Equal(t, testWorkflow, notFound.Workflow)
	assert.Len(t, clock.Sleeps, 1, "no interval sleep after not-found")
}

func TestWait_FailedConclusions(t *testing.T) {
	conclusions := []string{
		github.ConclusionFailure,
		github.ConclusionCancelled,
		github.ConclusionTimedOut,
		github.ConclusionSkipped,
		"",
	}

	for _, conclusion := range conclusions {
		t.Run("conclusion="+conclusion, func(t *testing.T) {
			clock := testutil.NewFakeClock()
			lister := newScripted(clock, runs(
				testutil.RunFixture(5, testWorkflow, testSHA, github.StatusCompleted, conclusion),
			))

			outcome := newWaiter(lister, clock).Wait(context.Background(), query())

			assert.Equal(t, waiter.OutcomeFailure, outcome.Kind)
			assert.Equal(t, 1, outcome.Polls)

			var failed *cierr.RunFailedError
			require.ErrorAs(t, outcome.Err(), &failed)
			assert.Equal(t, conclusion, failed.Conclusion)
			assert.Equal(t, int64(5), failed.RunID)
			assert.Equal(t, 1, cierr.ExitCode(outcome.Err()))
		})
	}
}

func TestWait_PendingThenSuccess(t *testing.T) {
	clock := testutil.NewFakeClock()
	inProgress := testutil.RunFixture(7, testWorkflow, testSHA, github.StatusInProgress, "")
	lister := newScripted(clock,
		runs(inProgress),
		runs(inProgress),
		runs(testutil.RunFixture(7, testWorkflow, testSHA, github.StatusCompleted, github.ConclusionSuccess)),
	)

	outcome := newWaiter(lister, clock).Wait(context.Background(), query())

	assert.Equal(t, waiter.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, 3, outcome.Polls)
	assert.Equal(t, []time.Duration{
		waiter.DefaultGraceDelay,
		waiter.DefaultPollInterval,
		waiter.DefaultPollInterval,
	}, clock.Sleeps)
	assert.Equal(t, 20*time.Second, outcome.Elapsed)
}

func TestWait_TimeoutWhileStillPending(t *testing.T) {
	clock := testutil.NewFakeClock()
	lister := newScripted(clock, runs(
		testutil.RunFixture(8, testWorkflow, testSHA, github.StatusQueued, ""),
	))
	graceEnd := clock.Now().Add(waiter.DefaultGraceDelay)

	outcome := newWaiter(lister, clock).Wait(context.Background(), query())

	assert.Equal(t, waiter.OutcomeTimeout, outcome.Kind)
	assert.Equal(t, 61, outcome.Polls)
	assert.GreaterOrEqual(t, outcome.Elapsed, waiter.DefaultTimeout)

	var timeoutErr *cierr.TimeoutError
	require.ErrorAs(t, outcome.Err(), &timeoutErr)
	assert.Equal(t, waiter.DefaultTimeout, timeoutErr.Timeout)
	assert.Equal(t, 61, timeoutErr.Polls)
	assert.NotEmpty(t, timeoutErr.RunURL)

	require.NotEmpty(t, lister.pollTimes)
	assert.Equal(t, graceEnd, lister.pollTimes[0], "first poll right after grace delay")

	for i := 1; i < len(lister.pollTimes); i++ {
		gap := lister.pollTimes[i].Sub(lister.pollTimes[i-1])
		assert.LessOrEqual(t, gap, waiter.DefaultPollInterval)
	}
}

func TestWait_EmptyListingUntilTimeout(t *testing.T) {
	clock := testutil.NewFakeClock()
	lister := newScripted(clock, runs())

	outcome := newWaiter(lister, clock).Wait(context.Background(), query())

	assert.Equal(t, waiter.OutcomeTimeout, outcome.Kind)
	assert.Nil(t, outcome.Run)
	assert.Equal(t, 1, cierr.ExitCode(outcome.Err()))
	assert.Equal(t, cierr.CategoryTimeout, cierr.CategoryOf(outcome.Err()))
}

func TestWait_ProviderErrorAbortsImmediately(t *testing.T) {
	clock := testutil.NewFakeClock()
	pending := runs(testutil.RunFixture(9, testWorkflow, testSHA, github.StatusInProgress, ""))
	lister := newScripted(clock,
		pending,
		pending,
		listResponse{err: &cierr.ProviderError{Operation: "list workflow runs", StatusCode: http.StatusBadGateway}},
		pending,
	)

	outcome := newWaiter(lister, clock).Wait(context.Background(), query())

	assert.Equal(t, waiter.OutcomeFailure, outcome.Kind)
	assert.Equal(t, 3, outcome.Polls)
	assert.Less(t, outcome.Elapsed, waiter.DefaultTimeout)

	var providerErr *cierr.ProviderError
	require.ErrorAs(t, outcome.Err(), &providerErr)
	assert.Equal(t, http.StatusBadGateway, providerErr.StatusCode)
}

func TestWait_CancelledDuringGraceDelay(t *testing.T) {
	clock := testutil.NewFakeClock()
	lister := newScripted(clock, runs())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := newWaiter(lister, clock).Wait(ctx, query())

	assert.Equal(t, waiter.OutcomeFailure, outcome.Kind)
	assert.Equal(t, 0, outcome.Polls)
	assert.Empty(t, lister.pollTimes)

	var aborted *cierr.WaitAbortedError
	require.ErrorAs(t, outcome.Err(), &aborted)
	assert.ErrorIs(t, outcome.Err(), context.Canceled)
}

func TestWait_CancelledBetweenPolls(t *testing.T) {
	clock := testutil.NewFakeClock()
	lister := newScripted(clock, runs(testutil.RunFixture(3, testWorkflow, testSHA, github.StatusInProgress, "")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock.OnSleep = func(_ time.Time) {
		if len(lister.pollTimes) == 1 {
			cancel()
		}
	}

	outcome := newWaiter(lister, clock).Wait(ctx, query())

	assert.Equal(t, waiter.OutcomeFailure, outcome.Kind)
	assert.Equal(t, 2, outcome.Polls)
	assert.ErrorIs(t, outcome.Err(), context.Canceled)
}

func TestWait_NotFoundSuggestsClosestName(t *testing.T) {
	tests := []struct {
		name     string
		workflow string
		want     string
	}{
		{"truncated name", "Publish Dev Docker", testWorkflow},
		{"longer name", testWorkflow + " (arm64)", testWorkflow},
		{"unrelated name", "zzz", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := testutil.NewFakeClock()
			lister := newScripted(clock, runs(
				testutil.RunFixture(1, "Run tests", testSHA, github.StatusCompleted, github.ConclusionSuccess),
				testutil.RunFixture(2, testWorkflow, testSHA, github.StatusCompleted, github.ConclusionSuccess),
			))

			q := query()
			q.WorkflowName = tt.workflow
			outcome := newWaiter(lister, clock).Wait(context.Background(), q)

			var notFound *cierr.RunNotFoundError
			require.ErrorAs(t, outcome.Err(), &notFound)
			assert.Equal(t, tt.want, notFound.Suggestion)
		})
	}
}

func TestPoll_Classification(t *testing.T) {
	tests := []struct {
		name    string
		listing []github.WorkflowRun
		want    waiter.RunStatus
	}{
		{"empty listing", nil, waiter.StatusPending},
		{"no match", []github.WorkflowRun{
			testutil.RunFixture(1, "Other", testSHA, github.StatusCompleted, github.ConclusionSuccess),
		}, waiter.StatusNotFound},
		{"queued", []github.WorkflowRun{
			testutil.RunFixture(1, testWorkflow, testSHA, github.StatusQueued, ""),
		}, waiter.StatusPending},
		{"in progress", []github.WorkflowRun{
			testutil.RunFixture(1, testWorkflow, testSHA, github.StatusInProgress, ""),
		}, waiter.StatusPending},
		{"success", []github.WorkflowRun{
			testutil.RunFixture(1, testWorkflow, testSHA, github.StatusCompleted, github.ConclusionSuccess),
		}, waiter.StatusSuccess},
		{"failure", []github.WorkflowRun{
			testutil.RunFixture(1, testWorkflow, testSHA, github.StatusCompleted, github.ConclusionFailure),
		}, waiter.StatusFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := testutil.NewFakeClock()
			w := newWaiter(newScripted(clock, runs(tt.listing...)), clock)

			result, err := w.Poll(context.Background(), query())
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Status, "got %s", result.Status)
			assert.Equal(t, len(tt.listing), result.Listed)
		})
	}
}

func TestWait_WithGitHubClient(t *testing.T) {
	inProgress := testutil.RunFixture(77, testWorkflow, testSHA, github.StatusInProgress, "")
	transport := testutil.NewFakeTransport(
		testutil.RunsResponse(t, inProgress),
		testutil.RunsResponse(t, inProgress),
		testutil.RunsResponse(t, testutil.RunFixture(77, testWorkflow, testSHA, github.StatusCompleted, github.ConclusionSuccess)),
	)
	client := testutil.NewGitHubClient(t, transport)
	clock := testutil.NewFakeClock()

	outcome := newWaiter(client, clock).Wait(context.Background(), query())

	require.NoError(t, outcome.Err())
	assert.Equal(t, 3, outcome.Polls)
	assert.Equal(t, 3, transport.Calls())
}

func TestWait_WithGitHubClient_ErrorStatus(t *testing.T) {
	transport := testutil.NewFakeTransport(testutil.ErrorResponse(http.StatusServiceUnavailable, "Service Unavailable"))
	client := testutil.NewGitHubClient(t, transport)
	clock := testutil.NewFakeClock()

	outcome := newWaiter(client, clock).Wait(context.Background(), query())

	assert.Equal(t, waiter.OutcomeFailure, outcome.Kind)
	assert.Equal(t, 1, transport.Calls())
	assert.Equal(t, cierr.CategoryProvider, cierr.CategoryOf(outcome.Err()))
}

func TestRunStatus_String(t *testing.T) {
	assert.Equal(t, "not-found", waiter.StatusNotFound.String())
	assert.Equal(t, "pending", waiter.StatusPending.String())
	assert.Equal(t, "completed-success", waiter.StatusSuccess.String())
	assert.Equal(t, "completed-failure", waiter.StatusFailure.String())
	assert.Equal(t, "timeout", waiter.OutcomeTimeout.String())
}
