package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"

	"stackcc/pkg/compiler"
	"stackcc/pkg/utils"
)

const testSource = `x = 10;
y = 20;
if (x < y) x = x * 2; else y = 0;
return x + y;
`

func main() {
	dumpAST := flag.Bool("spew", false, "dump the full AST structure with go-spew")
	flag.Parse()

	src := testSource
	if flag.NArg() > 0 {
		data, _, err := utils.ReadSource(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = data
	}

	fmt.Printf("Source:\n%s\n", src)

	// Lex
	tokens, err := compiler.Lex(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lex error:", err)
		os.Exit(1)
	}

	fmt.Printf("Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Println(" ", tok)
	}
	fmt.Println()

	// Parse
	prog, err := compiler.Parse(tokens, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}

	fmt.Println("AST")
	for _, s := range prog.Stmts {
		fmt.Println(" ", s)
	}
	fmt.Println()

	if *dumpAST {
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
		cfg.Dump(prog.Stmts)
		fmt.Println()
	}

	// code Generation
	lines, err := compiler.Generate(prog)
	if err != nil {
		fmt.Fprintln(os.Stderr, "codegen error:", err)
		os.Exit(1)
	}

	fmt.Println("Generated Assembly")
	for _, line := range lines {
		fmt.Println(line)
	}
	fmt.Println()
	fmt.Print(prog.Locals)
}
