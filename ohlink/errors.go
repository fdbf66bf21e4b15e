package ohlink

import "errors"

// Error kinds per the container codec's error handling design. Parse
// failures that carry a byte offset use types.ParseError instead.
var (
	ErrInvalidMagic        = errors.New("ohlink: invalid magic")
	ErrUnsupportedCpuType  = errors.New("ohlink: unsupported cpu type")
	ErrUnsupportedFileType = errors.New("ohlink: unsupported file type")
)
