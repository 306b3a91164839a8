package network

import "errors"

var (
	ErrNotFound          = errors.New("node not found")
	ErrNotConnected      = errors.New("nodes are not connected")
	ErrArityMismatch     = errors.New("input count does not match input nodes")
	ErrInvalidDepth      = errors.New("max depth must be >= 0")
	ErrUnknownActivation = errors.New("unknown activation")
	ErrUnknownField      = errors.New("unknown field")
	ErrParse             = errors.New("cannot parse field value")
	ErrNoRandSource      = errors.New("random source is required")
	ErrDuplicateNode     = errors.New("node id already in use")
)
