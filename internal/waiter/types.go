package waiter

import (
	"time"

	"github.com/kyleking/gh-ci-helpers/internal/github"
)

// Default timing of a wait.
const (
	DefaultGraceDelay   = 30 * time.Second
	DefaultPollInterval = 10 * time.Second
	DefaultTimeout      = 600 * time.Second
)

// DefaultWorkflowName is the workflow waited for when none is configured.
const DefaultWorkflowName = "Publish Dev Docker Image"

// RunQuery identifies the run to wait for.
type RunQuery struct {
	Repository   string
	CommitSHA    string
	WorkflowName string
}

// RunStatus is the state of the queried run as seen by one poll.
type RunStatus int

const (
	StatusNotFound RunStatus = iota
	StatusPending
	StatusSuccess
	StatusFailure
)

func (s RunStatus) String() string {
	switch s {
	case StatusNotFound:
		return "not-found"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "completed-success"
	case StatusFailure:
		return "completed-failure"
	default:
		return "unknown"
	}
}

// PollResult is the classification of one runs listing.
type PollResult struct {
	Status RunStatus
	// Run is the matched run; zero when Status is StatusNotFound or the listing was empty.
	Run github.WorkflowRun
	// Listed is the number of runs in the listing.
	Listed int
	// Candidates are the workflow names recorded for the commit.
	Candidates []string
}

// OutcomeKind is the terminal result class of a wait.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailure
	OutcomeTimeout
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one Wait.
type Outcome struct {
	Kind OutcomeKind
	// Reason is nil on success.
	Reason  error
	Polls   int
	Elapsed time.Duration
	Run     *github.WorkflowRun
}

// Err returns nil on success and the failure reason otherwise.
func (o Outcome) Err() error {
	if o.Kind == OutcomeSuccess {
		return nil
	}

	return o.Reason
}

// Options controls the timing of a wait.
type Options struct {
	GraceDelay   time.Duration
	PollInterval time.Duration
	Timeout      time.Duration
}

// DefaultOptions returns the standard 30s grace delay, 10s interval and 600s timeout.
func DefaultOptions() Options {
	return Options{
		GraceDelay:   DefaultGraceDelay,
		PollInterval: DefaultPollInterval,
		Timeout:      DefaultTimeout,
	}
}
