package main

import (
	"fmt"
	"os"

	"minicc/pkg/compiler"
)

const testSource = `int helper() {
	return 0x10 + 0o20 + 0b10000;
}

int main() {
	return -(1 + 2) * 3 >> 1;
}
`

func main() {
	src := testSource
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}
	backend := compiler.BackendAsm
	if len(os.Args) > 2 {
		backend = compiler.Backend(os.Args[2])
	}

	fmt.Printf("Source:\n%s\n", src)

	res, err := compiler.Compile(src, compiler.Options{Backend: backend, Diagnostics: os.Stderr})
	if err != nil {
		fmt.Fprintln(os.Stderr, "compile error:", err)
		os.Exit(1)
	}

	fmt.Printf("Tokens (%d)\n", len(res.Tokens))
	for _, tok := range res.Tokens {
		fmt.Println(" ", tok)
	}
	fmt.Println()

	fmt.Println("AST")
	fmt.Print(res.Program.Dump())
	fmt.Println()

	fmt.Printf("Generated %s\n", backend)
	fmt.Print(res.Text())
	fmt.Println()
	fmt.Print(res.Symbols)

	if len(res.Warnings) > 0 {
		fmt.Printf("\n%d warning(s)\n", len(res.Warnings))
	}
}
