package source

import (
	"fmt"
	"math"
)

// NoFileID is never handed out by a FileSet.
const NoFileID FileID = math.MaxUint32

// NoSpan locates diagnostics that belong to no file, such as load failures
// and timings.
var NoSpan = Span{File: NoFileID}

// Span — полуинтервал байтов [Start, End) внутри одного файла.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

func (s Span) Empty() bool { return s.Start >= s.End }

func (s Span) Len() uint32 {
	if s.Empty() {
		return 0
	}
	return s.End - s.Start
}

// Text returns the bytes s covers in content. ok is false when s is
// inverted or runs past the end of content.
func (s Span) Text(content []byte) (text string, ok bool) {
	if s.End < s.Start || uint64(s.End) > uint64(len(content)) {
		return "", false
	}
	return string(content[s.Start:s.End]), true
}

func (s Span) String() string {
	if s.File == NoFileID {
		return "-"
	}
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}
