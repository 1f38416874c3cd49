package domain

import "errors"

var (
	// ErrInputNotFound signals a missing corpus file.
	ErrInputNotFound = errors.New("input file not found")
	// ErrDecode signals that the corpus bytes are not valid in the requested encoding.
	ErrDecode = errors.New("decode failed")
	// ErrUnknownEncoding signals an encoding name the tool does not support.
	ErrUnknownEncoding = errors.New("unknown encoding")
	// ErrOutputWrite signals a failure to persist the output document.
	ErrOutputWrite = errors.New("output write failed")
	// ErrTranslationFailed signals a translation provider failure for a single fragment.
	ErrTranslationFailed = errors.New("translation failed")
	// ErrInvalidPattern signals a citation pattern that does not compile.
	ErrInvalidPattern = errors.New("invalid citation pattern")
)
