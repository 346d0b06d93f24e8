package source

import (
	"bytes"
	"path/filepath"
)

// normalizeCRLF заменяет \r\n на \n, одиночные \r не трогает.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !bytes.Contains(content, []byte("\r\n")) {
		return content, false
	}
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n")), true
}

func removeBOM(content []byte) ([]byte, bool) {
	if bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}) {
		return content[3:], true
	}
	return content, false
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, bytes.Count(content, []byte{'\n'}))
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i)) // #nosec G115 -- length checked by FileSet.Add
		}
	}
	return out
}

// lineStart returns the offset of the first byte of a 1-based line.
func lineStart(lineIdx []uint32, line uint32) (uint32, bool) {
	switch {
	case line == 0:
		return 0, false
	case line == 1:
		return 0, true
	case int(line-2) < len(lineIdx):
		return lineIdx[line-2] + 1, true
	default:
		return 0, false
	}
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// бинпоиск: количество переводов строки строго до off
	lo, hi := 0, len(lineIdx)
	for lo < hi {
		mid := (lo + hi) >> 1
		if lineIdx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	start, _ := lineStart(lineIdx, uint32(lo+1)) // #nosec G115
	return LineCol{Line: uint32(lo + 1), Col: off - start + 1} // #nosec G115
}

func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// PathMode selects how file paths are printed.
type PathMode uint8

const (
	PathAuto PathMode = iota
	PathAbsolute
	PathRelative
	PathBasename
)

// ParsePathMode accepts auto|absolute|relative|basename.
func ParsePathMode(s string) PathMode {
	switch s {
	case "absolute":
		return PathAbsolute
	case "relative":
		return PathRelative
	case "basename":
		return PathBasename
	default:
		return PathAuto
	}
}
