package stpdocx

import (
	"errors"

	"github.com/alnah/go-stpdocx/internal/docxwriter"
	"github.com/alnah/go-stpdocx/internal/numbering"
)

// Sentinel errors for library operations. Errors returned by Convert and
// ConvertFile match one of these with errors.Is. Policy, section and image
// sentinels are shared with the stage that raises them, so their text is
// not repeated in the message.
var (
	ErrEmptyInput            = errors.New("input content cannot be empty")
	ErrInputNotFound         = errors.New("input file not found")
	ErrUnsupportedExtension  = errors.New("unsupported input extension")
	ErrParse                 = errors.New("failed to parse input")
	ErrInvalidPolicy         = numbering.ErrInvalidPolicy
	ErrMissingSectionContext = numbering.ErrMissingSectionContext
	ErrImageNotFound         = docxwriter.ErrImageNotFound
	ErrRender                = errors.New("DOCX rendering failed")
	ErrWrite                 = errors.New("failed to write output")
	ErrPreview               = errors.New("HTML preview failed")
)
