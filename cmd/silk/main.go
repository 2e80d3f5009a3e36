// Command silk is a thin CLI driver over the pkg/pipeline stages: run,
// compile, disassemble, and a REPL, plus a batch subcommand that
// fans compilation of many files out across a worker pool. It is
// deliberately minimal — all the real logic lives in pkg/* — mirroring
// the teacher's own cmd/smog/main.go, which is a dispatch table over
// os.Args calling straight into its pkg/parser, pkg/compiler, and
// pkg/vm.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kristofer/silk/internal/config"
	"github.com/kristofer/silk/pkg/bytecode"
	"github.com/kristofer/silk/pkg/opcode"
	"github.com/kristofer/silk/pkg/pipeline"
	"github.com/kristofer/silk/pkg/program"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		runREPL()
		return
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		fmt.Printf("silk version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	case "repl":
		runREPL()
	case "run":
		requireFile("run", os.Args)
		runFile(os.Args[2])
	case "compile":
		requireFile("compile", os.Args)
		out := ""
		if len(os.Args) >= 4 {
			out = os.Args[3]
		}
		compileFile(os.Args[2], out)
	case "disassemble", "disasm":
		requireFile("disassemble", os.Args)
		disassembleFile(os.Args[2])
	case "batch":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Error: no files specified")
			fmt.Fprintln(os.Stderr, "\nUsage: silk batch <file1.silk> [file2.silk ...]")
			os.Exit(1)
		}
		batchCompile(os.Args[2:])
	default:
		runFile(os.Args[1])
	}
}

func requireFile(cmd string, args []string) {
	if len(args) < 3 {
		fmt.Fprintf(os.Stderr, "Error: no file specified\n\nUsage: silk %s <file>\n", cmd)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("silk - Silk language driver, running on the Moth VM")
	fmt.Println("\nUsage:")
	fmt.Println("  silk                        Start interactive REPL")
	fmt.Println("  silk [file]                 Run a .silk or .slkc file")
	fmt.Println("  silk run [file]             Run a .silk or .slkc file")
	fmt.Println("  silk compile <in> [out]     Compile .silk to .slkc bytecode")
	fmt.Println("  silk disassemble <file>     Disassemble a .slkc bytecode file")
	fmt.Println("  silk batch <files...>       Compile many .silk files concurrently")
	fmt.Println("  silk repl                   Start interactive REPL")
	fmt.Println("  silk version                Show version")
	fmt.Println("  silk help                   Show this help")
	fmt.Println("\nFile Extensions:")
	fmt.Println("  .silk   Source code files (text)")
	fmt.Println("  .slkc   Compiled bytecode files (binary)")
}

func runFile(filename string) {
	if filepath.Ext(filename) == ".slkc" {
		runBytecodeFile(filename)
		return
	}
	runSourceFile(filename)
}

func runSourceFile(filename string) {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Default()
	prog, diags := pipeline.CompilePipeline(cfg.FoldConstants).Execute(pipeline.Source{Path: filename, Text: string(data)})
	if pipeline.HasError(diags) {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d)
		}
		os.Exit(1)
	}

	runProgram(cfg, prog)
}

func runBytecodeFile(filename string) {
	file, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	prog, err := bytecode.Decode(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading bytecode: %v\n", err)
		os.Exit(1)
	}

	runProgram(config.Default(), prog)
}

func runProgram(cfg config.Config, prog *program.Program) {
	v := cfg.NewVM()
	if err := v.Run(prog); err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
		os.Exit(1)
	}
}

func compileFile(inputFile, outputFile string) {
	if outputFile == "" {
		if filepath.Ext(inputFile) == ".silk" {
			outputFile = strings.TrimSuffix(inputFile, ".silk") + ".slkc"
		} else {
			outputFile = inputFile + ".slkc"
		}
	}

	data, err := os.ReadFile(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Default()
	prog, diags := pipeline.CompilePipeline(cfg.FoldConstants).Execute(pipeline.Source{Path: inputFile, Text: string(data)})
	if pipeline.HasError(diags) {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d)
		}
		os.Exit(1)
	}

	outFile, err := os.Create(outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer outFile.Close()

	if err := bytecode.Encode(outFile, prog); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing bytecode: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Compiled %s -> %s\n", inputFile, outputFile)
}

func disassembleFile(filename string) {
	var prog *program.Program

	if filepath.Ext(filename) == ".slkc" {
		file, err := os.Open(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		prog, err = bytecode.Decode(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading bytecode: %v\n", err)
			os.Exit(1)
		}
	} else {
		data, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
			os.Exit(1)
		}
		cfg := config.Default()
		p, diags := pipeline.CompilePipeline(cfg.FoldConstants).Execute(pipeline.Source{Path: filename, Text: string(data)})
		if pipeline.HasError(diags) {
			for _, d := range diags {
				fmt.Fprintln(os.Stderr, d)
			}
			os.Exit(1)
		}
		prog = p
	}

	fmt.Printf("=== Bytecode Disassembly: %s ===\n\n", filename)
	fmt.Println("Rodata:")
	if len(prog.Rodata) == 0 {
		fmt.Println("  (empty)")
	} else {
		for i, v := range prog.Rodata {
			fmt.Printf("  [%d] %s\n", i, v.String())
		}
	}
	fmt.Println("\nSymbols:")
	if len(prog.Symbols) == 0 {
		fmt.Println("  (empty)")
	} else {
		for i, s := range prog.Symbols {
			fmt.Printf("  [%d] %s\n", i, s.Name)
		}
	}
	fmt.Println("\nInstructions:")
	fmt.Print(opcode.Disassemble(prog.Bytes, prog.Rodata))
}

// batchCompile compiles each file in files concurrently, one goroutine
// per file via errgroup, and reports every failure rather than
// stopping at the first — a batch job spanning many files shouldn't
// let one malformed one hide the rest.
func batchCompile(files []string) {
	errs := make([]error, len(files))
	g, _ := errgroup.WithContext(context.Background())
	for i, f := range files {
		i, f := i, f
		g.Go(func() (err error) {
			defer func() { errs[i] = err }()
			data, err := os.ReadFile(f)
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			cfg := config.Default()
			prog, diags := pipeline.CompilePipeline(cfg.FoldConstants).Execute(pipeline.Source{Path: f, Text: string(data)})
			if pipeline.HasError(diags) {
				var sb strings.Builder
				for _, d := range diags {
					sb.WriteString(d.String())
					sb.WriteByte('\n')
				}
				return fmt.Errorf("%s:\n%s", f, sb.String())
			}
			out := strings.TrimSuffix(f, filepath.Ext(f)) + ".slkc"
			outFile, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			defer outFile.Close()
			if err := bytecode.Encode(outFile, prog); err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			fmt.Printf("Compiled %s -> %s\n", f, out)
			return nil
		})
	}
	g.Wait()
	if err := errors.Join(errs...); err != nil {
		fmt.Fprintf(os.Stderr, "batch compile failed: %v\n", err)
		os.Exit(1)
	}
}

func runREPL() {
	fmt.Printf("silk REPL v%s\n", version)
	fmt.Println("Type ':help' for help, ':quit' or ':exit' to exit")
	fmt.Println()

	cfg := config.Default()
	v := cfg.NewVM()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("silk> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case ":quit", ":exit":
			fmt.Println("Goodbye!")
			return
		case ":help":
			fmt.Println("Enter any Silk expression or statement; ':quit' to leave.")
			continue
		case "":
			continue
		}

		prog, diags := pipeline.CompilePipeline(cfg.FoldConstants).Execute(pipeline.Source{Path: "<repl>", Text: line})
		if pipeline.HasError(diags) {
			for _, d := range diags {
				fmt.Fprintln(os.Stderr, d)
			}
			continue
		}
		if err := v.Run(prog); err != nil {
			fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
			continue
		}
		fmt.Println(v.StackTop().String())
	}
}
