package source

import (
	"bytes"
	"path/filepath"
	"slices"
)

var (
	crlf = []byte("\r\n")
	lf   = []byte("\n")
	bom  = []byte("\xEF\xBB\xBF")
)

// normalizeCRLF turns \r\n into \n; lone \r is kept.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !bytes.Contains(content, crlf) {
		return content, false
	}
	return bytes.ReplaceAll(content, crlf, lf), true
}

func removeBOM(content []byte) ([]byte, bool) {
	return bytes.CutPrefix(content, bom)
}

// buildLineIndex records the offset of every '\n'.
func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, bytes.Count(content, lf))
	for off := 0; ; {
		i := bytes.IndexByte(content[off:], '\n')
		if i < 0 {
			return out
		}
		out = append(out, uint32(off+i)) //nolint:gosec // Add rejects content over 4GiB
		off += i + 1
	}
}

// lineStart is the offset of the first byte of the 0-based line.
func lineStart(lineIdx []uint32, line int) uint32 {
	if line == 0 {
		return 0
	}
	return lineIdx[line-1] + 1
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// newlines strictly before off
	line, _ := slices.BinarySearch(lineIdx, off)
	return LineCol{
		Line: uint32(line + 1), //nolint:gosec // bounded by len(lineIdx)
		Col:  off - lineStart(lineIdx, line) + 1,
	}
}

func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// RelativePath returns path relative to base with forward slashes.
func RelativePath(path, base string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// AbsolutePath returns the absolute path with forward slashes.
func AbsolutePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	return filepath.ToSlash(abs), err
}

func BaseName(path string) string { return filepath.Base(path) }
