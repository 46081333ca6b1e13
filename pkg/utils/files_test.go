package utils

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReplaceExt(t *testing.T) {
	tests := []struct {
		path, ext, want string
	}{
		{"prog.c", ".s", "prog.s"},
		{"dir/prog.c", ".ir", "dir/prog.ir"},
		{"prog", ".bin", "prog.bin"},
		{"prog.tar.c", ".s", "prog.tar.s"},
	}
	for _, tt := range tests {
		if got := ReplaceExt(tt.path, tt.ext); got != tt.want {
			t.Errorf("ReplaceExt(%q, %q) = %q; want %q", tt.path, tt.ext, got, tt.want)
		}
	}
}

func TestWordsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.bin")
	words := []uint32{0x3C1D801F, 0, 0xDEADBEEF}

	if err := WriteWords(path, words); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if data[0] != 0x1F || data[3] != 0x3C {
		t.Errorf("words are not little-endian: % X", data[:4])
	}

	got, err := ReadWords(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, words) {
		t.Errorf("expected %08X, got %08X", words, got)
	}
}

func TestReadWordsRejectsPartialWord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadWords(path); err == nil {
		t.Error("expected error for truncated binary")
	}
}

func TestGetPathInfo(t *testing.T) {
	full, parent, err := GetPathInfo("a/b/../c.s")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(full) || filepath.Base(full) != "c.s" || filepath.Base(parent) != "a" {
		t.Errorf("unexpected result: %q %q", full, parent)
	}
}
