package cli

import (
	"fmt"
	"io"

	cierr "github.com/kyleking/gh-ci-helpers/internal/errors"
	"github.com/kyleking/gh-ci-helpers/internal/ui"
)

// Report prints the diagnostic for err and returns the process exit code.
func Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	diag := ui.Diagnostic{
		Category:   string(cierr.CategoryOf(err)),
		Message:    err.Error(),
		Suggestion: cierr.GetSuggestion(err),
		RunURL:     cierr.GetRunURL(err),
	}

	fmt.Fprintln(w, diag.Render())

	return cierr.ExitCode(err)
}
