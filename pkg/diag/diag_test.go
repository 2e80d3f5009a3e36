package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kristofer/silk/pkg/token"
)

func TestBagHasErrorsOnlyOnErrorSeverity(t *testing.T) {
	var b Bag
	b.Warnf(token.Position{Line: 1}, "heads up")
	assert.False(t, b.HasErrors())

	b.Errorf(token.Position{Line: 2}, "boom")
	assert.True(t, b.HasErrors())
}

func TestBagItemsPreservesOrder(t *testing.T) {
	var b Bag
	b.Errorf(token.Position{Line: 1}, "first")
	b.Warnf(token.Position{Line: 2}, "second")

	items := b.Items()
	assert.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Message)
	assert.Equal(t, Warning, items[1].Severity)
}

func TestBagMergeAppendsOtherBag(t *testing.T) {
	var a, b Bag
	a.Errorf(token.Position{Line: 1}, "from a")
	b.Errorf(token.Position{Line: 2}, "from b")

	a.Merge(&b)
	assert.Len(t, a.Items(), 2)
}

func TestBagMergeNilIsNoOp(t *testing.T) {
	var a Bag
	a.Errorf(token.Position{Line: 1}, "x")
	a.Merge(nil)
	assert.Len(t, a.Items(), 1)
}

func TestDiagnosticStringIncludesLocationAndSeverity(t *testing.T) {
	d := Diagnostic{Severity: Error, Location: token.Position{Line: 5, Column: 2}, Message: "oops"}
	assert.Equal(t, "5:2: error: oops", d.String())
}
