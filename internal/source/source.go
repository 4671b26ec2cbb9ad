// Package source owns the lifetime of Quark source files: their raw
// bytes, canonical path, and a line-start index used to translate byte
// offsets into line/column pairs for diagnostics.
package source

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// File is a single loaded .k source file. It is created once per
// canonical path and shared by the lexer, parser, and diagnostics for
// the lifetime of one compilation.
type File struct {
	CanonicalPath string
	Bytes         []byte
	lineStarts    []int // byte offset of the start of each line; lineStarts[0] == 0
}

// Load reads path from disk, resolves it to an absolute canonical
// path, and builds its line index.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return New(abs, data), nil
}

// New builds a File directly from in-memory bytes, for virtual
// filenames passed to compile_source.
func New(canonicalPath string, data []byte) *File {
	f := &File{CanonicalPath: canonicalPath, Bytes: data}
	f.indexLines()
	return f
}

func (f *File) indexLines() {
	f.lineStarts = []int{0}
	for i, b := range f.Bytes {
		if b == '\n' {
			f.lineStarts = append(f.lineStarts, i+1)
		}
	}
}

// Position converts a 0-based byte offset into a 1-based (line, column).
func (f *File) Position(offset int) (line, column int) {
	lo, hi := 0, len(f.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	line = lo + 1
	column = offset-f.lineStarts[lo] + 1
	return line, column
}

// Line returns the raw text of the given 1-based line number, without
// its trailing newline. Used by diagnostics to render caret excerpts.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.lineStarts) {
		return ""
	}
	start := f.lineStarts[n-1]
	var end int
	if n < len(f.lineStarts) {
		end = f.lineStarts[n] - 1
	} else {
		end = len(f.Bytes)
	}
	if end < start {
		end = start
	}
	line := f.Bytes[start:end]
	return string(bytes.TrimRight(line, "\r"))
}

// Slice returns the raw text between two byte offsets, used when a
// diagnostic needs the literal offending lexeme.
func (f *File) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(f.Bytes) {
		end = len(f.Bytes)
	}
	if start > end {
		return ""
	}
	return string(f.Bytes[start:end])
}
