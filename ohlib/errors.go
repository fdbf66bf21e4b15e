package ohlib

import "errors"

var ErrInvalidMagic = errors.New("ohlib: invalid magic")
