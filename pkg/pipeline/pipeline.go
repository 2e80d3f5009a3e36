// Package pipeline composes the scan→parse→compile→run stages into a
// single generic chain. The teacher's cmd/smog/main.go runs those four
// steps as a fixed sequence of function calls, each checking the
// previous one's error before proceeding; Stage generalizes that same
// shape into a composable type so a driver can build the chain once
// and run it uniformly, whether that's the full pipeline or a prefix
// of it (compile-only, parse-only diagnostics, and so on).
package pipeline

import "github.com/kristofer/silk/pkg/diag"

// Stage turns an In into an Out, reporting zero or more diagnostics
// along the way. A stage that fails outright still returns its best
// partial Out (the zero value is fine) so a caller inspecting
// diagnostics doesn't also have to juggle a separate error return.
type Stage[In, Out any] interface {
	Execute(In) (Out, []diag.Diagnostic)
}

// Func adapts a plain function into a Stage.
type Func[In, Out any] func(In) (Out, []diag.Diagnostic)

func (f Func[In, Out]) Execute(in In) (Out, []diag.Diagnostic) { return f(in) }

// Then chains two stages, feeding first's output into second's input
// and concatenating diagnostics from both in order. Composition
// short-circuits only on the caller's own HasError check of the
// returned diagnostics — a stage is free to return a usable Out even
// when it also reports errors, matching spec.md's "collect, don't
// abort" diagnostic philosophy.
func Then[A, B, C any](first Stage[A, B], second Stage[B, C]) Stage[A, C] {
	return Func[A, C](func(a A) (C, []diag.Diagnostic) {
		b, ds1 := first.Execute(a)
		c, ds2 := second.Execute(b)
		return c, append(ds1, ds2...)
	})
}

// HasError reports whether any diagnostic in ds is at Error severity.
func HasError(ds []diag.Diagnostic) bool {
	for _, d := range ds {
		if d.Severity == diag.Error {
			return true
		}
	}
	return false
}
