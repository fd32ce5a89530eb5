package beatlab

// Logger defines the interface for orchestration logging.
// The core uses structured logging with key-value pairs so consuming
// applications can plug in slog, zerolog, zap or any compatible backend.
//
// The variadic arguments are alternating key-value pairs:
//
//	logger.Info("module registered", "id", id, "type", mod.Type())
type Logger interface {
	// Info logs a normal orchestration event (registration, activation,
	// initialization completion).
	Info(msg string, args ...any)

	// Error logs a failure that was contained (listener panic, teardown
	// failure, unhealthy initialization).
	Error(msg string, args ...any)

	// Warn logs an unusual but expected condition, such as a propagation
	// target that is not registered.
	Warn(msg string, args ...any)

	// Debug logs detailed diagnostic information.
	Debug(msg string, args ...any)
}

// NopLogger discards every message. It is the fallback when a component
// is constructed without a logger.
type NopLogger struct{}

func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Debug(string, ...any) {}
