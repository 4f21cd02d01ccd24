// Package diagfmt renders a diag.Bag for the CLI, in the two formats
// cmd/silgen's --format flag supports: one file per format.
package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"silgen/internal/diag"
)

// PrettyOpts controls Pretty's rendering.
type PrettyOpts struct {
	Color bool
}

// Pretty writes bag's diagnostics one per line as
// "<file>:<offset>: <SEVERITY> <code>: <message>", in the order bag.Sort
// left them. Severity is colorized when opts.Color is set.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	if bag == nil {
		return
	}
	for _, d := range bag.Items() {
		sev := d.Severity.String()
		if opts.Color {
			sev = severityColor(d.Severity).Sprint(sev)
		}
		loc := d.Primary.File
		if loc == "" {
			loc = "<unknown>"
		}
		fmt.Fprintf(w, "%s:%d: %s sil%04d: %s\n", loc, d.Primary.Offset, sev, d.Code, d.Message)
	}
}

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return color.New(color.FgRed, color.Bold)
	case diag.SevWarning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}
