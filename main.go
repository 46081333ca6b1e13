package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"minicc/pkg/asm"
	"minicc/pkg/compiler"
	"minicc/pkg/cpu"
	"minicc/pkg/utils"
)

func main() {
	inPath := flag.String("in", "", "input file: .c is compiled, anything else is assembled")
	outPath := flag.String("out", "", "output file path (default: input with .s, .ir or .bin extension)")
	backend := flag.String("backend", string(compiler.BackendAsm), "code generator for .c input: asm or ir")
	entry := flag.String("entry", compiler.DefaultEntry, "function called by the assembly preamble")
	runProgram := flag.Bool("run", false, "run the generated program on the simulator")
	runBinPath := flag.String("run-bin", "", "run an existing binary file on the simulator")
	maxSteps := flag.Uint64("steps", 10_000_000, "instruction limit when running")
	flag.Parse()

	if *runProgram && *runBinPath != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -run-bin, not both")
		os.Exit(2)
	}

	if *inPath == "" && *runBinPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to compile or assemble, or -run-bin <file> to run an existing binary")
		flag.Usage()
		os.Exit(2)
	}

	if *runBinPath != "" {
		words, err := utils.ReadWords(*runBinPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read binary file %q: %v\n", *runBinPath, err)
			os.Exit(1)
		}
		if err := run(*runBinPath, cpu.DefaultOrigin, cpu.DefaultOrigin, words, *maxSteps); err != nil {
			fmt.Fprintf(os.Stderr, "run failed for %q: %v\n", *runBinPath, err)
			os.Exit(1)
		}
		return
	}

	source, err := os.ReadFile(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read input file %q: %v\n", *inPath, err)
		os.Exit(1)
	}

	if !strings.HasSuffix(*inPath, ".c") {
		if err := assembleFile(*inPath, *outPath, string(source), *runProgram, *maxSteps); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	b := compiler.Backend(*backend)
	if *runProgram && b != compiler.BackendAsm {
		fmt.Fprintln(os.Stderr, "-run requires -backend asm")
		os.Exit(2)
	}

	res, err := compiler.Compile(string(source), compiler.Options{
		Backend:     b,
		Entry:       *entry,
		Diagnostics: os.Stderr,
	})
	if err != nil {
		if _, ok := compiler.AsDiagnostic(err); !ok {
			fmt.Fprintf(os.Stderr, "compilation failed: %v\n", err)
		}
		os.Exit(1)
	}

	output := *outPath
	if output == "" {
		ext := ".s"
		if b == compiler.BackendIR {
			ext = ".ir"
		}
		output = utils.ReplaceExt(*inPath, ext)
	}
	if err := os.WriteFile(output, []byte(res.Text()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write output file %q: %v\n", output, err)
		os.Exit(1)
	}
	fullPath, _, err := utils.GetPathInfo(output)
	if err != nil {
		fullPath = output
	}
	fmt.Printf("compiled %d lines (%d warnings) -> %s\n", len(res.Lines), len(res.Warnings), fullPath)

	if !*runProgram {
		return
	}

	img, err := asm.Assemble(res.Text())
	if err != nil {
		fmt.Fprintf(os.Stderr, "assembly failed: %v\n", err)
		os.Exit(1)
	}
	if err := run(output, img.Origin, img.Entry, img.Words, *maxSteps); err != nil {
		fmt.Fprintf(os.Stderr, "run failed for %q: %v\n", output, err)
		os.Exit(1)
	}
}

// assembleFile assembles source, writes the binary and optionally runs it.
func assembleFile(inPath, outPath, source string, runAfter bool, maxSteps uint64) error {
	img, err := asm.Assemble(source)
	if err != nil {
		return fmt.Errorf("assembly failed: %w", err)
	}

	if outPath == "" {
		outPath = utils.ReplaceExt(inPath, ".bin")
	}
	if img.Entry != img.Origin {
		fmt.Fprintf(os.Stderr, "warning: entry 0x%08X is not the load address; -run-bin will start at 0x%08X\n", img.Entry, img.Origin)
	}
	if err := utils.WriteWords(outPath, img.Words); err != nil {
		return fmt.Errorf("failed to write binary file %q: %w", outPath, err)
	}
	fmt.Printf("assembled %d bytes -> %s\n", len(img.Words)*4, outPath)

	if !runAfter {
		return nil
	}
	if err := run(outPath, img.Origin, img.Entry, img.Words, maxSteps); err != nil {
		return fmt.Errorf("run failed for %q: %w", outPath, err)
	}
	return nil
}

func run(name string, origin, entry uint32, words []uint32, maxSteps uint64) error {
	vm := cpu.NewCPU()
	if err := vm.LoadProgram(origin, entry, words); err != nil {
		return err
	}
	if err := vm.RunFor(maxSteps); err != nil {
		return err
	}

	fmt.Printf(
		"run complete (%s): steps=%d PC=0x%08X SP=0x%08X v0=0x%08X (%d)\n",
		name,
		vm.Steps,
		vm.PC,
		vm.Regs[cpu.RegSP],
		vm.Regs[cpu.RegV0],
		int32(vm.Regs[cpu.RegV0]),
	)
	return nil
}
