package manifest

import "errors"

var (
	ErrUnknownEntry             = errors.New("unknown entry")
	ErrUnknownContainer         = errors.New("unknown container")
	ErrUnknownTarget            = errors.New("unknown target")
	ErrDuplicateEntry           = errors.New("duplicate entry")
	ErrDuplicateMembership      = errors.New("duplicate membership")
	ErrEntryInUse               = errors.New("entry still referenced")
	ErrConflictingPlacement     = errors.New("container both included and excluded")
	ErrIdentifierSpaceExhausted = errors.New("identifier space exhausted")
	ErrMalformedManifest        = errors.New("malformed manifest")
	ErrDanglingReference        = errors.New("dangling reference")
	ErrSerialization            = errors.New("serialization error")
)
