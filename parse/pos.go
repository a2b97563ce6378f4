package parse

import "fmt"

// Pos is a position in the source text. Line and Col are 1-based.
type Pos struct {
	Offset int
	Line   int
	Col    int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// posAt computes the line and column of a byte offset. Only the error
// path pays for this, so a scan is fine.
func posAt(src []byte, off int) Pos {
	if off > len(src) {
		off = len(src)
	}
	line, lineStart := 1, 0
	for i := 0; i < off; i++ {
		if src[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return Pos{Offset: off, Line: line, Col: off - lineStart + 1}
}
