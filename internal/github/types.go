package github

import "time"

// Run status values reported by the Actions API.
const (
	StatusQueued     = "queued"
	StatusInProgress = "in_progress"
	StatusWaiting    = "waiting"
	StatusRequested  = "requested"
	StatusPending    = "pending"
	StatusCompleted  = "completed"
)

// Run conclusion values reported once a run is completed.
const (
	ConclusionSuccess   = "success"
	ConclusionFailure   = "failure"
	ConclusionCancelled = "cancelled"
	ConclusionSkipped   = "skipped"
	ConclusionTimedOut  = "timed_out"
	ConclusionNeutral   = "neutral"
)

// WorkflowRun is one execution record of a workflow.
type WorkflowRun struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	HeadSHA    string    `json:"head_sha"`
	HeadBranch string    `json:"head_branch"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	HTMLURL    string    `json:"html_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsCompleted returns true once the run reached a terminal status.
func (r WorkflowRun) IsCompleted() bool {
	return r.Status == StatusCompleted
}

// IsSuccess returns true if the run completed successfully.
func (r WorkflowRun) IsSuccess() bool {
	return r.IsCompleted() && r.Conclusion == ConclusionSuccess
}

// RunsResponse is the body of the runs listing endpoint.
type RunsResponse struct {
	TotalCount   int           `json:"total_count"`
	WorkflowRuns []WorkflowRun `json:"workflow_runs"`
}

// FindRun returns the first run recorded for the commit under the workflow name.
func FindRun(runs []WorkflowRun, commitSHA, workflowName string) (WorkflowRun, bool) {
	for _, run := range runs {
		if run.HeadSHA == commitSHA && run.Name == workflowName {
			return run, true
		}
	}

	return WorkflowRun{}, false
}

// NamesForCommit returns the distinct workflow names recorded for a commit, in listing order.
func NamesForCommit(runs []WorkflowRun, commitSHA string) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)

	for _, run := range runs {
		if run.HeadSHA != commitSHA || seen[run.Name] {
			continue
		}

		seen[run.Name] = true
		names = append(names, run.Name)
	}

	return names
}
