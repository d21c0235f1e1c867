package document

import "errors"

var (
	ErrMissingTexture   = errors.New("referenced texture is not part of the pipeline")
	ErrMissingAttribute = errors.New("missing required attribute")
	ErrUnknownFormat    = errors.New("unknown pipeline document format")
	ErrSchema           = errors.New("pipeline document does not match schema")
)
