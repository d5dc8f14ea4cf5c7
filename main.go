//go:build !js

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"stackcc/pkg/compiler"
	"stackcc/pkg/cpu"
	"stackcc/pkg/utils"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process exit so it can be driven from tests.
// Exit codes: 0 ok, 1 compile or run failure, 2 usage.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stackcc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inPath := fs.String("in", "", "input source file path")
	expr := fs.String("e", "", "program source given inline")
	outPath := fs.String("out", "", "output assembly file path (default: stdout)")
	binPath := fs.String("bin", "", "also write the assembled machine code to this file")
	runProgram := fs.Bool("run", false, "run the compiled program on the virtual CPU and print a0")
	runBinPath := fs.String("run-bin", "", "run an existing binary file on the virtual CPU")
	maxSteps := fs.Int("steps", 1_000_000, "step budget for -run and -run-bin (0 = unlimited)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *runBinPath != "" {
		if *inPath != "" || *expr != "" || fs.NArg() > 0 {
			fmt.Fprintln(stderr, "use either a source program or -run-bin, not both")
			return 2
		}
		if err := runBinary(*runBinPath, *maxSteps, stdout); err != nil {
			fmt.Fprintf(stderr, "run failed for %q: %v\n", *runBinPath, err)
			return 1
		}
		return 0
	}

	src, err := loadSource(*inPath, *expr, fs.Args())
	if err != nil {
		fmt.Fprintln(stderr, err)
		if errors.Is(err, errUsage) {
			fs.Usage()
			return 2
		}
		return 1
	}

	res, err := compiler.Compile(src)
	if err != nil {
		fmt.Fprintf(stderr, "compilation failed: %v\n", err)
		return 1
	}

	// With -run, stdout carries the result; assembly goes out only to -out.
	if *outPath != "" || !*runProgram {
		if err := writeAssembly(*outPath, res.Assembly(), stdout); err != nil {
			fmt.Fprintf(stderr, "failed to write assembly %q: %v\n", *outPath, err)
			return 1
		}
	}

	if *binPath == "" && !*runProgram {
		return 0
	}

	prog, err := res.Assemble()
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	if *binPath != "" {
		if err := writeBinary(*binPath, prog.Code); err != nil {
			fmt.Fprintf(stderr, "failed to write binary file %q: %v\n", *binPath, err)
			return 1
		}
		fmt.Fprintf(stderr, "assembled %d bytes -> %s\n", len(prog.Code), *binPath)
	}

	if *runProgram {
		if err := execute(prog.Code, *maxSteps, stdout); err != nil {
			fmt.Fprintf(stderr, "run failed: %v\n", err)
			return 1
		}
	}
	return 0
}

var errUsage = errors.New("nothing to do: provide -in <file>, -e <source> or a source argument")

// loadSource picks the program text from -in, -e or the first positional
// argument, in that order. Exactly one must be given.
func loadSource(inPath, expr string, args []string) (string, error) {
	given := 0
	for _, set := range []bool{inPath != "", expr != "", len(args) > 0} {
		if set {
			given++
		}
	}
	switch {
	case given == 0:
		return "", errUsage
	case given > 1 || len(args) > 1:
		return "", fmt.Errorf("%w (only one)", errUsage)
	}

	switch {
	case inPath != "":
		src, _, err := utils.ReadSource(inPath)
		return src, err
	case expr != "":
		return expr, nil
	default:
		return args[0], nil
	}
}

func writeAssembly(path, text string, stdout io.Writer) error {
	if path == "" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

func writeBinary(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func readBinary(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func runBinary(path string, maxSteps int, stdout io.Writer) error {
	loadedBytes, err := readBinary(path)
	if err != nil {
		return err
	}
	return execute(loadedBytes, maxSteps, stdout)
}

func execute(code []byte, maxSteps int, stdout io.Writer) error {
	vm := cpu.NewCPU()
	if err := vm.Load(code); err != nil {
		return err
	}
	if err := vm.Run(maxSteps); err != nil {
		return fmt.Errorf("after %d steps: %w", vm.Steps, err)
	}

	fmt.Fprintln(stdout, vm.Result())
	return nil
}
