package runner

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// WriteFailures prints every rejected declaration and failed binding to w,
// followed by the hints attached to each error.
func WriteFailures(w io.Writer, r *Result) {
	for _, err := range r.Problems {
		writeFailure(w, err)
	}
	if r.Report == nil {
		return
	}
	for _, o := range r.Report.Failed() {
		writeFailure(w, o.Err)
	}
}

func writeFailure(w io.Writer, err error) {
	fmt.Fprintf(w, "✗ %v\n", err)
	if hint := errors.FlattenHints(err); hint != "" {
		for _, line := range strings.Split(hint, "\n") {
			fmt.Fprintf(w, "    hint: %s\n", line)
		}
	}
}
