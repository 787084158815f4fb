// Package waiter blocks until a named workflow run for a commit reaches a terminal
// state or a timeout elapses.
package waiter

import (
	"context"
	"log/slog"
	"time"

	"github.com/sahilm/fuzzy"

	cierr "github.com/kyleking/gh-ci-helpers/internal/errors"
	"github.com/kyleking/gh-ci-helpers/internal/github"
)

// RunLister lists the recent workflow runs of one repository.
type RunLister interface {
	ListWorkflowRuns(ctx context.Context) ([]github.WorkflowRun, error)
}

// Waiter polls a RunLister until the queried run finishes.
type Waiter struct {
	client RunLister
	opts   Options
	clock  Clock
	logger *slog.Logger
}

// Option customizes a Waiter.
type Option func(*Waiter)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(w *Waiter) {
		w.clock = c
	}
}

// WithLogger sets the logger used for progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(w *Waiter) {
		w.logger = l
	}
}

// New creates a Waiter.
func New(client RunLister, opts Options, options ...Option) *Waiter {
	w := &Waiter{
		client: client,
		opts:   opts,
		clock:  SystemClock(),
		logger: slog.Default(),
	}

	for _, o := range options {
		o(w)
	}

	return w
}

// Poll issues one listing request and classifies the queried run.
// The returned error is always a *errors.ProviderError.
func (w *Waiter) Poll(ctx context.Context, q RunQuery) (PollResult, error) {
	runs, err := w.client.ListWorkflowRuns(ctx)
	if err != nil {
		return PollResult{}, err
	}

	result := PollResult{Listed: len(runs)}

	// Nothing listed at all means the provider has not registered the run yet.
	if len(runs) == 0 {
		result.Status = StatusPending
		return result, nil
	}

	run, ok := github.FindRun(runs, q.CommitSHA, q.WorkflowName)
	if !ok {
		result.Status = StatusNotFound
		result.Candidates = github.NamesForCommit(runs, q.CommitSHA)

		return result, nil
	}

	result.Run = run

	switch {
	case !run.IsCompleted():
		result.Status = StatusPending
	case run.IsSuccess():
		result.Status = StatusSuccess
	default:
		result.Status = StatusFailure
	}

	return result, nil
}

// Wait sleeps the grace delay, then polls every interval until the run reaches a
// terminal state or the timeout, measured from the end of the grace delay, elapses.
func (w *Waiter) Wait(ctx context.Context, q RunQuery) Outcome {
	w.logger.Info("waiting before first poll",
		"workflow", q.WorkflowName, "sha", q.CommitSHA, "grace_delay", w.opts.GraceDelay)

	if err := w.clock.Sleep(ctx, w.opts.GraceDelay); err != nil {
		return Outcome{Kind: OutcomeFailure, Reason: &cierr.WaitAbortedError{Cause: err}}
	}

	start := w.clock.Now()
	polls := 0

	for {
		result, err := w.Poll(ctx, q)
		polls++
		elapsed := w.clock.Now().Sub(start)
		remaining := w.opts.Timeout - elapsed

		if err != nil {
			if ctx.Err() != nil {
				err = &cierr.WaitAbortedError{Cause: ctx.Err()}
			}

			w.logger.Error("poll failed", "poll", polls, "error", err)

			return Outcome{Kind: OutcomeFailure, Reason: err, Polls: polls, Elapsed: elapsed}
		}

		w.logger.Info("polled workflow runs",
			"poll", polls, "status", result.Status.String(), "listed", result.Listed,
			"elapsed", elapsed.Truncate(time.Second), "remaining", remaining.Truncate(time.Second))

		switch result.Status {
		case StatusSuccess:
			return Outcome{Kind: OutcomeSuccess, Polls: polls, Elapsed: elapsed, Run: &result.Run}
		case StatusFailure:
			return Outcome{
				Kind: OutcomeFailure,
				Reason: &cierr.RunFailedError{
					Workflow:   q.WorkflowName,
					RunID:      result.Run.ID,
					RunURL:     result.Run.HTMLURL,
					Conclusion: result.Run.Conclusion,
				},
				Polls:   polls,
				Elapsed: elapsed,
				Run:     &result.Run,
			}
		case StatusNotFound:
			return Outcome{
				Kind: OutcomeFailure,
				Reason: &cierr.RunNotFoundError{
					CommitSHA:  q.CommitSHA,
					Workflow:   q.WorkflowName,
					Suggestion: closestName(q.WorkflowName, result.Candidates),
				},
				Polls:   polls,
				Elapsed: elapsed,
			}
		}

		if remaining <= 0 {
			timeoutErr := &cierr.TimeoutError{
				Workflow: q.WorkflowName,
				Timeout:  w.opts.Timeout,
				Elapsed:  elapsed,
				Polls:    polls,
				RunURL:   result.Run.HTMLURL,
			}

			return Outcome{Kind: OutcomeTimeout, Reason: timeoutErr, Polls: polls, Elapsed: elapsed, Run: runOrNil(result)}
		}

		if err := w.clock.Sleep(ctx, w.opts.PollInterval); err != nil {
			return Outcome{
				Kind:    OutcomeFailure,
				Reason:  &cierr.WaitAbortedError{Cause: err},
				Polls:   polls,
				Elapsed: w.clock.Now().Sub(start),
			}
		}
	}
}

func runOrNil(result PollResult) *github.WorkflowRun {
	if result.Run.ID == 0 {
		return nil
	}

	return &result.Run
}

// closestName returns the candidate that best fuzzy-matches name.
func closestName(name string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	matches := fuzzy.Find(name, candidates)
	if len(matches) > 0 {
		return matches[0].Str
	}

	// A name longer than every candidate never matches as a pattern, so try the reverse.
	for _, candidate := range candidates {
		if len(fuzzy.Find(candidate, []string{name})) > 0 {
			return candidate
		}
	}

	return ""
}
