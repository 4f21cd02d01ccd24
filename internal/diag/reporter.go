package diag

// Reporter is the minimal contract a translation phase uses to emit
// advisory diagnostics without depending on how they are collected.
type Reporter interface {
	Report(sev Severity, code Code, primary Location, msg string)
}

// BagReporter adapts a *Bag to the Reporter interface.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(sev Severity, code Code, primary Location, msg string) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(Diagnostic{Severity: sev, Code: code, Message: msg, Primary: primary})
}

// NopReporter discards every diagnostic, for callers that don't care
// about advisories (most translator unit tests).
type NopReporter struct{}

func (NopReporter) Report(Severity, Code, Location, string) {}
