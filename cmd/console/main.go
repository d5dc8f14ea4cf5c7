package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"stackcc/pkg/compiler"
	"stackcc/pkg/cpu"
	"stackcc/pkg/utils"
)

const prompt = "stackcc> "

func main() {
	showAsm := flag.Bool("show-asm", false, "print the generated assembly before each result")
	maxSteps := flag.Int("steps", 1_000_000, "step budget per program (0 = unlimited)")
	flag.Parse()

	// With a file argument, run it once and exit like the batch driver.
	if flag.NArg() > 0 {
		src, fullPath, err := utils.ReadSource(flag.Arg(0))
		if err != nil {
			log.Fatalf("Failed to read source file: %v", err)
		}
		fmt.Println("Compiling source file:", fullPath)
		if err := evaluate(src, *showAsm, *maxSteps, os.Stdout); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	repl(os.Stdin, os.Stdout, *showAsm, *maxSteps)
}

// repl reads one complete program per line. ":asm" toggles the assembly
// listing and ":q" quits.
func repl(in io.Reader, out io.Writer, showAsm bool, maxSteps int) {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, prompt)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case ":q", ":quit":
			return
		case ":asm":
			showAsm = !showAsm
			fmt.Fprintf(out, "show assembly: %v\n", showAsm)
		default:
			if err := evaluate(line, showAsm, maxSteps, out); err != nil {
				fmt.Fprintln(out, "error:", err)
			}
		}
		fmt.Fprint(out, prompt)
	}
	fmt.Fprintln(out)
}

// evaluate compiles and runs src, then prints a0.
func evaluate(src string, showAsm bool, maxSteps int, out io.Writer) error {
	res, err := compiler.Compile(src)
	if err != nil {
		return err
	}
	if showAsm {
		fmt.Fprint(out, res.Assembly())
	}

	prog, err := res.Assemble()
	if err != nil {
		return err
	}

	vm := cpu.NewCPU()
	if err := vm.Load(prog.Code); err != nil {
		return err
	}
	if err := vm.Run(maxSteps); err != nil {
		return fmt.Errorf("run failed after %d steps: %w", vm.Steps, err)
	}

	fmt.Fprintln(out, vm.Result())
	return nil
}
