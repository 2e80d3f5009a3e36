// Package diag defines the diagnostic records shared by every stage of
// the Silk pipeline (scanner, parser, compiler). Each stage appends to
// its own slice rather than aborting on the first problem, so a
// downstream stage can still run on a best-effort upstream result.
package diag

import (
	"fmt"
	"strings"

	"github.com/kristofer/silk/pkg/token"
)

// Severity distinguishes diagnostics that block execution from ones
// that merely inform.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Diagnostic is a single reported problem; String renders it as
// "line:col: severity: message" (the file name is not part of it).
type Diagnostic struct {
	Severity Severity
	Location token.Position
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Location, d.Severity, d.Message)
}

// Bag accumulates diagnostics for one pipeline stage.
type Bag struct {
	items []Diagnostic
}

// Add appends a diagnostic with the given severity.
func (b *Bag) Add(sev Severity, loc token.Position, format string, args ...any) {
	b.items = append(b.items, Diagnostic{Severity: sev, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// Errorf is shorthand for Add(Error, ...).
func (b *Bag) Errorf(loc token.Position, format string, args ...any) {
	b.Add(Error, loc, format, args...)
}

// Warnf is shorthand for Add(Warning, ...).
func (b *Bag) Warnf(loc token.Position, format string, args ...any) {
	b.Add(Warning, loc, format, args...)
}

// HasErrors reports whether any diagnostic at Error severity was
// recorded. A non-zero error count blocks execution per the external
// interface's exit-code contract.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Items returns the accumulated diagnostics; the bag keeps them.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge appends another bag's items into this one.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

// Error renders every diagnostic, one per line, implementing the error
// interface so a Bag can be returned directly from a stage.
func (b *Bag) Error() string {
	var sb strings.Builder
	for i, d := range b.items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(d.String())
	}
	return sb.String()
}
