package llm

import (
	"errors"
)

var (
	// ErrModelNotFound is returned when the requested model record is absent
	ErrModelNotFound = errors.New("model not found")
	// ErrUnsupportedProvider is returned when no adapter is registered for
	// the model's provider tag
	ErrUnsupportedProvider = errors.New("unsupported provider")
	// ErrMissingCredential is returned before any network call when the
	// resolved provider has no API key configured
	ErrMissingCredential = errors.New("provider credential not configured")
)
