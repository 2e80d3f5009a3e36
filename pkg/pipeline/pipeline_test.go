package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/silk/pkg/diag"
)

func TestThenChainsStagesAndConcatenatesDiagnostics(t *testing.T) {
	double := Func[int, int](func(n int) (int, []diag.Diagnostic) {
		return n * 2, []diag.Diagnostic{{Severity: diag.Warning, Message: "doubled"}}
	})
	addOne := Func[int, int](func(n int) (int, []diag.Diagnostic) {
		return n + 1, []diag.Diagnostic{{Severity: diag.Warning, Message: "added"}}
	})

	chain := Then[int, int, int](double, addOne)
	out, ds := chain.Execute(3)

	assert.Equal(t, 7, out)
	require.Len(t, ds, 2)
	assert.Equal(t, "doubled", ds[0].Message)
	assert.Equal(t, "added", ds[1].Message)
}

func TestHasErrorDetectsErrorSeverityOnly(t *testing.T) {
	warnings := []diag.Diagnostic{{Severity: diag.Warning}}
	assert.False(t, HasError(warnings))

	withError := append(warnings, diag.Diagnostic{Severity: diag.Error})
	assert.True(t, HasError(withError))
}

func TestCompilePipelineEndToEnd(t *testing.T) {
	prog, ds := CompilePipeline(false).Execute(Source{Path: "<test>", Text: "let x = 1 + 2; x;"})
	require.False(t, HasError(ds))
	require.NotNil(t, prog)
	assert.NotEmpty(t, prog.Bytes)
}

func TestCompilePipelineSurfacesParseErrors(t *testing.T) {
	_, ds := CompilePipeline(false).Execute(Source{Path: "<test>", Text: "let ;"})
	assert.True(t, HasError(ds))
}

func TestParseStageReturnsModuleAndDiagnostics(t *testing.T) {
	mod, ds := ParseStage{}.Execute(Source{Path: "<test>", Text: "1;"})
	assert.Empty(t, ds)
	require.NotNil(t, mod)
	assert.Len(t, mod.Tree, 1)
}
