package source

// FileID indexes a FileSet; ids are dense and start at 0.
type FileID uint32

// FileFlags records how content was obtained and what loading changed.
type FileFlags uint8

const (
	FileVirtual        FileFlags = 1 << iota // тело HTTP-запроса, stdin, тесты
	FileHadBOM                               // a UTF-8 BOM was stripped
	FileNormalizedCRLF                       // CRLF line ends became LF
)

func (f FileFlags) Has(flag FileFlags) bool { return f&flag == flag }

// File is one loaded world file. Content is already normalized; spans and
// Hash refer to the normalized bytes.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offset of every '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based position; Col counts bytes.
type LineCol struct {
	Line uint32
	Col  uint32
}
