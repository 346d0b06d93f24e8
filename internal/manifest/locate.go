package manifest

import (
	"strings"

	"injekt/internal/source"
)

// locator maps decoded values back to the text they came from. Decoders drop
// positions, so values are found by searching the file, preferring the
// first occurrence after a hint offset.
type locator struct {
	file source.FileID
	text string
}

func newLocator(f *source.File) *locator {
	return &locator{file: f.ID, text: string(f.Content)}
}

// find returns the span of value at or after from, falling back to the first
// occurrence anywhere and then to the start of the file.
func (l *locator) find(value string, from int) source.Span {
	if sp, ok := l.search(value, from); ok {
		return sp
	}
	if sp, ok := l.search(value, 0); ok {
		return sp
	}
	return offsetSpan(l.file, 0, 0)
}

func (l *locator) search(value string, from int) (source.Span, bool) {
	if value == "" || from < 0 || from > len(l.text) {
		return source.Span{}, false
	}
	i := strings.Index(l.text[from:], value)
	if i < 0 {
		return source.Span{}, false
	}
	return offsetSpan(l.file, from+i, len(value)), true
}

// within narrows sp to the n bytes at offset off inside it.
func within(sp source.Span, off, n int) source.Span {
	width := int(sp.End - sp.Start)
	if off < 0 || off > width {
		return sp
	}
	return offsetSpan(sp.File, int(sp.Start)+off, min(n, width-off))
}
