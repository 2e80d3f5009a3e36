package pipeline

import (
	"github.com/kristofer/silk/pkg/ast"
	"github.com/kristofer/silk/pkg/compiler"
	"github.com/kristofer/silk/pkg/diag"
	"github.com/kristofer/silk/pkg/lexer"
	"github.com/kristofer/silk/pkg/parser"
	"github.com/kristofer/silk/pkg/program"
)

// Source is one named chunk of Silk source text, the input to the
// parse stage of the default pipeline.
type Source struct {
	Path string
	Text string
}

// ParseStage turns Source into an *ast.Module, running the lexer and
// Pratt parser in one step since neither is useful to a CLI driver in
// isolation from the other.
type ParseStage struct{}

func (ParseStage) Execute(src Source) (*ast.Module, []diag.Diagnostic) {
	l := lexer.New(src.Text)
	p := parser.New(l)
	mod := p.ParseModule(src.Path)
	return mod, append(l.Diagnostics.Items(), p.Diagnostics.Items()...)
}

// CompileStage lowers an *ast.Module into a *program.Program.
type CompileStage struct {
	FoldConstants bool
}

func (s CompileStage) Execute(mod *ast.Module) (*program.Program, []diag.Diagnostic) {
	c := compiler.New()
	c.FoldConstants = s.FoldConstants
	prog, err := c.Compile(mod)
	if err != nil {
		return prog, c.Diagnostics.Items()
	}
	return prog, c.Diagnostics.Items()
}

// CompilePipeline is the Source→*program.Program chain cmd/silk's
// compile and run subcommands both build on.
func CompilePipeline(foldConstants bool) Stage[Source, *program.Program] {
	return Then[Source, *ast.Module, *program.Program](
		ParseStage{},
		CompileStage{FoldConstants: foldConstants},
	)
}
