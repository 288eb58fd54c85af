package ast

import "ownlab/internal/source"

// File is the root node of one script. Doc holds the /// lines in front of
// the first item.
type File struct {
	Span  source.Span
	Items []ItemID
	Doc   []string
}

type Files struct {
	Arena *Arena[File]
}

func NewFiles(capHint uint) *Files { return &Files{Arena: NewArena[File](capHint)} }

func (f *Files) New(sp source.Span) FileID { return FileID(f.Arena.Push(File{Span: sp})) }

func (f *Files) Get(id FileID) *File { return f.Arena.Get(uint32(id)) }
