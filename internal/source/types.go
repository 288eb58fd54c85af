package source

// FileID names a file inside a FileSet. IDs start at 1 so that the zero
// Span never resolves.
type FileID uint32

const NoFileID FileID = 0

// FileFlags record where content came from and what Load did to it.
type FileFlags uint8

const (
	FileVirtual FileFlags = 1 << iota // added from memory: lesson, stdin or test
	FileHadBOM
	FileNormalizedCRLF
)

func (f FileFlags) Has(flag FileFlags) bool { return f&flag != 0 }

// File is one loaded script. LineIdx holds the offset of every line start
// after the first; Hash is the SHA-256 of Content.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based position; Col counts bytes.
type LineCol struct {
	Line uint32
	Col  uint32
}
