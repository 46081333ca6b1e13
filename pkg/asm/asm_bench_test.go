package asm

import (
	"fmt"
	"strings"
	"testing"
)

// generatedProgram builds a listing shaped like compiler output with n
// push/pop sequences.
func generatedProgram(n int) string {
	var sb strings.Builder
	sb.WriteString(".entry reset\n.text\n\nreset:\n\tli $sp, 0x801FFFF0\n\tjal _main\n\tnop\n\tmtc2 $zero, 0\n\n_main:\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "\tli $v0, %d\n", i*1000)
		sb.WriteString("\taddiu $sp, $sp, -4\n\tsw $v0, 0($sp)\n")
		fmt.Fprintf(&sb, "\tbeq $v0, $zero, Lnot_true_%d\n\tnop\n\tli $v0, 0\n\tj Lnot_end_%d\n\tnop\n", i, i)
		fmt.Fprintf(&sb, "Lnot_true_%d:\n\tli $v0, 1\nLnot_end_%d:\n", i, i)
		sb.WriteString("\tlw $t0, 0($sp)\n\taddiu $sp, $sp, 4\n\taddu $v0, $t0, $v0\n")
	}
	sb.WriteString("\tjr $ra\n\tnop\n")
	return sb.String()
}

func BenchmarkAssemble_Small(b *testing.B) {
	src := generatedProgram(10)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Assemble(src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Large(b *testing.B) {
	src := generatedProgram(1000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Assemble(src); err != nil {
			b.Fatal(err)
		}
	}
}
