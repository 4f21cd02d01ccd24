package diagfmt

import (
	"encoding/json"
	"io"

	"silgen/internal/diag"
)

type jsonDiagnostic struct {
	File     string `json:"file"`
	Offset   int    `json:"offset"`
	Severity string `json:"severity"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
}

// JSON writes bag's diagnostics as a JSON array, one object per
// diagnostic, in bag.Sort order.
func JSON(w io.Writer, bag *diag.Bag) error {
	out := make([]jsonDiagnostic, 0)
	if bag != nil {
		for _, d := range bag.Items() {
			out = append(out, jsonDiagnostic{
				File:     d.Primary.File,
				Offset:   d.Primary.Offset,
				Severity: d.Severity.String(),
				Code:     int(d.Code),
				Message:  d.Message,
			})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
