package beatlab

import (
	"errors"
)

// Orchestration errors
var (
	// Registration errors
	ErrModuleNil               = errors.New("module is nil")
	ErrModuleTypeInvalid       = errors.New("module type is not a known variant")
	ErrModuleAlreadyRegistered = errors.New("module instance is already registered")
	ErrModuleNotFound          = errors.New("module not found")

	// Lifecycle errors
	ErrModuleDestroyed   = errors.New("module is destroyed")
	ErrBehaviorNil       = errors.New("module behavior is nil")
	ErrUpdateUnsupported = errors.New("update not supported by this module variant")

	// Event bus errors
	ErrListenerNil     = errors.New("listener is nil")
	ErrListenerIDEmpty = errors.New("listener id is empty")
	ErrEventNameEmpty  = errors.New("event name is empty")
)
