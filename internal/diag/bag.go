package diag

import "sort"

// Bag is a capped, ordered collection of diagnostics. The cap mirrors the
// CLI's --max-diagnostics flag (internal/config): once full, Add reports
// the diagnostic was dropped so callers can warn about truncation rather
// than grow unbounded on a pathological input.
type Bag struct {
	items []Diagnostic
	max   int
}

// NewBag returns an empty Bag capped at max diagnostics.
func NewBag(max int) *Bag {
	return &Bag{items: make([]Diagnostic, 0, max), max: max}
}

// Add appends d, returning false if the bag is already at capacity.
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// Len reports how many diagnostics are held.
func (b *Bag) Len() int { return len(b.items) }

// HasErrors reports whether any diagnostic reaches SevError.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity >= SevError {
			return true
		}
	}
	return false
}

// Items returns the held diagnostics. Callers must not mutate the
// returned slice; it aliases the Bag's backing array.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge appends other's diagnostics, growing the cap if needed so nothing
// already collected is dropped.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	if total := len(b.items) + len(other.items); b.max > 0 && total > b.max {
		b.max = total
	}
	b.items = append(b.items, other.items...)
}

// Sort orders diagnostics by file, then offset, then severity (descending:
// errors before warnings before info), then code — the stable, fully
// deterministic order the CLI prints in.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		a, c := b.items[i], b.items[j]
		if a.Primary.File != c.Primary.File {
			return a.Primary.File < c.Primary.File
		}
		if a.Primary.Offset != c.Primary.Offset {
			return a.Primary.Offset < c.Primary.Offset
		}
		if a.Severity != c.Severity {
			return a.Severity > c.Severity
		}
		return a.Code < c.Code
	})
}
