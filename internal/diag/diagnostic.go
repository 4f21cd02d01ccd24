// Package diag models advisory diagnostics the translator and its
// collaborators can attach to a translation run: downstream type/decl
// checker findings and the translator's own non-fatal
// observations (e.g. a builtin declared but never lowered). Fatal
// translation failures are *lower.Error, not a Diagnostic — those abort
// translation outright and return no partial IR.
package diag

// Location pins a diagnostic to a byte offset in the originating code
// object, mirroring the Loc the translator already carries through
// sil.QualifiedName and sil.Loc.
type Location struct {
	File   string
	Offset int
}

// Code distinguishes diagnostic kinds for downstream tooling (the CLI's
// --format json, a future SARIF exporter). Ranges are reserved the way
// convention reserves lexer/parser/sema ranges.
type Code uint16

const (
	UnknownCode Code = 0

	// Translator-originated advisories.
	DeclUnusedBuiltin    Code = 1001
	DeclUnannotatedParam Code = 1002
	DeclShadowedSymbol   Code = 1003

	// Downstream-reported, surfaced verbatim.
	DownstreamTypeError Code = 2001
	DownstreamDeclError Code = 2002
)

// Diagnostic is one finding attached to a translation run.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
}
