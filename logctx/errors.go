package logctx

import "errors"

var (
	// ErrNoFlow indicates the context carries no flow to mutate.
	ErrNoFlow = errors.New("logctx: context has no flow")

	// ErrInvalidKey indicates a Key outside RequestID, TaskID and Step.
	ErrInvalidKey = errors.New("logctx: invalid key")
)
