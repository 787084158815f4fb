package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/kyleking/gh-ci-helpers/internal/ui"
	"github.com/kyleking/gh-ci-helpers/internal/waiter"
	"github.com/kyleking/gh-ci-helpers/internal/workflow"
)

type waitFlags struct {
	sha      string
	workflow string
	repo     string
	timeout  time.Duration
	interval time.Duration
	grace    time.Duration
	perPage  int
}

func (a *app) newWaitCmd() *cobra.Command {
	var f waitFlags

	cmd := &cobra.Command{
		Use:   "wait-for-run",
		Short: "Wait for a workflow run of a commit to finish",
		Long: `Polls the GitHub Actions runs of the repository until the run of the
workflow for the commit completes. Exits 0 when it succeeds and 1 when it
fails, is not found, the provider errors, or the timeout elapses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.applyWaitFlags(cmd, f)
			return a.runWait(cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.sha, "sha", "", "Commit SHA to match (default $GITHUB_SHA)")
	flags.StringVar(&f.workflow, "workflow", "", "Workflow name to match (default \""+waiter.DefaultWorkflowName+"\")")
	flags.StringVar(&f.repo, "repo", "", "Repository in owner/repo format")
	flags.DurationVar(&f.timeout, "timeout", waiter.DefaultTimeout, "Overall wait after the grace delay")
	flags.DurationVar(&f.interval, "interval", waiter.DefaultPollInterval, "Delay between polls")
	flags.DurationVar(&f.grace, "grace", waiter.DefaultGraceDelay, "Delay before the first poll")
	flags.IntVar(&f.perPage, "per-page", 0, "Runs requested per poll")

	return cmd
}

func (a *app) applyWaitFlags(cmd *cobra.Command, f waitFlags) {
	flags := cmd.Flags()

	if flags.Changed("sha") {
		a.cfg.Wait.CommitSHA = f.sha
	}

	if flags.Changed("workflow") {
		a.cfg.Wait.Workflow = f.workflow
	}

	if flags.Changed("repo") {
		a.cfg.Repository = f.repo
	}

	if flags.Changed("timeout") {
		a.cfg.Wait.Timeout = f.timeout
	}

	if flags.Changed("interval") {
		a.cfg.Wait.PollInterval = f.interval
	}

	if flags.Changed("grace") {
		a.cfg.Wait.GraceDelay = f.grace
	}

	if flags.Changed("per-page") {
		a.cfg.Wait.PerPage = f.perPage
	}
}

func (a *app) runWait(cmd *cobra.Command) error {
	if err := a.cfg.ValidateWait(); err != nil {
		return err
	}

	a.checkLocalWorkflow()

	lister, err := a.deps.NewRunLister(a.cfg, a.userAgent())
	if err != nil {
		return err
	}

	options := []waiter.Option{waiter.WithLogger(a.logger)}
	if a.deps.Clock != nil {
		options = append(options, waiter.WithClock(a.deps.Clock))
	}

	q := a.cfg.Query()
	outcome := waiter.New(lister, a.cfg.WaiterOptions(), options...).Wait(cmd.Context(), q)

	if err := outcome.Err(); err != nil {
		return err
	}

	msg := ui.Success("%s succeeded for %s after %d polls", q.WorkflowName, q.CommitSHA, outcome.Polls)
	if outcome.Run != nil && outcome.Run.HTMLURL != "" {
		msg += "\n  " + ui.LinkStyle.Render(outcome.Run.HTMLURL)
	}

	cmd.Println(msg)

	return nil
}

// checkLocalWorkflow warns when the checkout defines workflows but none with
// the awaited name. The provider listing stays authoritative.
func (a *app) checkLocalWorkflow() {
	if a.deps.RepoRoot == "" {
		return
	}

	defs, err := workflow.Discover(a.deps.RepoRoot)
	if err != nil || len(defs) == 0 {
		return
	}

	if _, ok := workflow.Find(defs, a.cfg.Wait.Workflow); !ok {
		a.logger.Warn("workflow is not defined in this checkout",
			"workflow", a.cfg.Wait.Workflow,
			"defined", workflow.Names(defs))
	}
}
