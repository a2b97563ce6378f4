package emit

import (
	"errors"
	"fmt"
)

var (
	// ErrEmit is the base class of all emission failures.
	ErrEmit = errors.New("emit error")

	// ErrEmitJSON reports a construct JSON cannot represent: tags,
	// anchors, aliases, multi-document streams. This is a legality
	// check, not a lossy best-effort conversion.
	ErrEmitJSON = fmt.Errorf("%w: cannot represent in JSON", ErrEmit)

	// ErrBufferTooSmall reports that a fixed output buffer could not
	// hold the serialized text.
	ErrBufferTooSmall = fmt.Errorf("%w: buffer too small", ErrEmit)
)
