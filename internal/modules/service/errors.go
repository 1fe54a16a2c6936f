package service

import "errors"

// Sentinel errors the handlers map onto HTTP statuses. Validation errors
// from the assetcode package (format, check digit, prefix) pass through
// wrapped in ErrInvalidCode so callers can branch on one sentinel.
var (
	ErrInvalidCode           = errors.New("invalid asset code")
	ErrUnknownCodeType       = errors.New("unknown asset code type")
	ErrGenerationUnsupported = errors.New("code type does not support generation")
	ErrExhaustedRetries      = errors.New("code generation retries exhausted")

	ErrCycleDetected          = errors.New("placement would create a cycle")
	ErrNonEmptyNode           = errors.New("node still has children")
	ErrNotContainer           = errors.New("target node cannot hold children")
	ErrContainerStateConflict = errors.New("model has placed nodes with children")
	ErrAlreadyPlaced          = errors.New("asset already has a tree position")
	ErrNotPlaced              = errors.New("asset has no tree position")
	ErrInvalidTargetState     = errors.New("asset state does not allow placement")
)
