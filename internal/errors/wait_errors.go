package errors

import (
	"errors"
	"fmt"
	"time"
)

// RunNotFoundError indicates the run listing had no run for the commit and workflow.
type RunNotFoundError struct {
	CommitSHA string
	Workflow  string
	// Suggestion is the closest workflow name recorded for the same commit, if any.
	Suggestion string
}

func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("no run of workflow %q found for commit %s", e.Workflow, e.CommitSHA)
}

func (e *RunNotFoundError) Category() Category {
	return CategoryNotFound
}

// RunFailedError indicates the matching run completed without success.
type RunFailedError struct {
	Workflow   string
	RunID      int64
	RunURL     string
	Conclusion string
}

func (e *RunFailedError) Error() string {
	conclusion := e.Conclusion
	if conclusion == "" {
		conclusion = "no conclusion"
	}
	if e.RunURL != "" {
		return fmt.Sprintf("run %d of %q completed with %s [run: %s]", e.RunID, e.Workflow, conclusion, e.RunURL)
	}
	return fmt.Sprintf("run %d of %q completed with %s", e.RunID, e.Workflow, conclusion)
}

func (e *RunFailedError) Category() Category {
	return CategoryRunFailed
}

// TimeoutError indicates the run was still pending when the wait budget ran out.
type TimeoutError struct {
	Workflow string
	Timeout  time.Duration
	Elapsed  time.Duration
	Polls    int
	RunURL   string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("workflow %q did not complete within %s (%d polls over %s)",
		e.Workflow, e.Timeout, e.Polls, e.Elapsed.Truncate(time.Second))
}

func (e *TimeoutError) Category() Category {
	return CategoryTimeout
}

// WaitAbortedError indicates the wait was interrupted before reaching a terminal state.
type WaitAbortedError struct {
	Cause error
}

func (e *WaitAbortedError) Error() string {
	return fmt.Sprintf("wait aborted: %v", e.Cause)
}

func (e *WaitAbortedError) Unwrap() error {
	return e.Cause
}

func (e *WaitAbortedError) Category() Category {
	return CategoryAborted
}

// GetRunURL extracts the run URL from an error chain if present.
func GetRunURL(err error) string {
	var failedErr *RunFailedError
	if errors.As(err, &failedErr) && failedErr.RunURL != "" {
		return failedErr.RunURL
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) && timeoutErr.RunURL != "" {
		return timeoutErr.RunURL
	}
	return ""
}

// GetSuggestion extracts a suggestion from an error chain if present.
func GetSuggestion(err error) string {
	var notFound *RunNotFoundError
	if errors.As(err, &notFound) && notFound.Suggestion != "" {
		return fmt.Sprintf("Did you mean workflow %q?", notFound.Suggestion)
	}
	var tagErr *TagExistsError
	if errors.As(err, &tagErr) {
		return "Bump the version in the build file before registering a new dev tag"
	}
	return ""
}
