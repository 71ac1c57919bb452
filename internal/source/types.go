package source

type (
	// FileID identifies a file within a FileSet. Zero is NoFileID.
	FileID uint32
	// FileFlags records how a file's bytes were obtained and normalized.
	FileFlags uint8
)

const (
	// FileVirtual marks content added from memory: tests, stdin, generated.
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File is one loaded crate description. Content is stored after BOM
// removal and CRLF normalization, so offsets in spans refer to it.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // смещения всех '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// IsVirtual reports whether f was not read from disk.
func (f *File) IsVirtual() bool { return f.Flags&FileVirtual != 0 }

// Lines returns the number of lines in f. A trailing newline does not
// start a new line.
func (f *File) Lines() int {
	n := len(f.LineIdx)
	if len(f.Content) > 0 && f.Content[len(f.Content)-1] != '\n' {
		n++
	}
	return n
}

// LineCol is a 1-based line and column.
type LineCol struct {
	Line uint32
	Col  uint32
}
