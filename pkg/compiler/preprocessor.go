package compiler

import "strings"

// StripComments blanks out comments ahead of tokenization. A line comment is
// dropped up to its newline. Every character of a block comment, including
// the "/*" and "*/" delimiters, is replaced by a single space, except for
// newlines and tabs which are kept, so tokens after a comment keep their
// original line and offset.
func StripComments(src string, rep *Reporter) (string, error) {
	in := []rune(src)
	var out strings.Builder
	out.Grow(len(src))

	line, col := 1, 0
	for i := 0; i < len(in); {
		r := in[i]

		if r == '/' && i+1 < len(in) && in[i+1] == '/' {
			for i < len(in) && in[i] != '\n' {
				i++
			}
			continue
		}

		if r == '/' && i+1 < len(in) && in[i+1] == '*' {
			open := Pos{Line: line, Column: col, Length: 2}
			out.WriteString("  ")
			i += 2
			col += 2

			closed := false
			for i < len(in) {
				if in[i] == '*' && i+1 < len(in) && in[i+1] == '/' {
					out.WriteString("  ")
					i += 2
					col += 2
					closed = true
					break
				}
				switch in[i] {
				case '\n':
					out.WriteByte('\n')
					line++
					col = 0
				case '\t':
					out.WriteByte('\t')
					col++
				default:
					out.WriteByte(' ')
					col++
				}
				i++
			}
			if !closed {
				return "", rep.Errorf(open, "Unterminated block comment")
			}
			continue
		}

		out.WriteRune(r)
		if r == '\n' {
			line++
			col = 0
		} else {
			col++
		}
		i++
	}
	return out.String(), nil
}
