package services

import "errors"

// Service-level error taxonomy. Handlers map these onto HTTP statuses.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrNameConflict     = errors.New("name already exists at this level")
	ErrInvalidParent    = errors.New("parent must be a folder node")
	ErrHasChildren      = errors.New("node has children and cannot be deleted")
	ErrInvalidNodeKind  = errors.New("operation not valid for this node kind")
	ErrInvalidEnumValue = errors.New("invalid enumeration value")
	ErrNotCancellable   = errors.New("execution is not in a cancellable state")
)
