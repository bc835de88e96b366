package document

import "errors"

var (
	// ErrUnsupportedFormat is returned when a file is not a .docx, HTML or
	// plain text document.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrInvalidDocx is returned when a .docx archive has no main document part.
	ErrInvalidDocx = errors.New("invalid docx: word/document.xml not found")

	// ErrArchiveFull is returned when no free archive name is left for a
	// source document.
	ErrArchiveFull = errors.New("no free archive name")
)
