package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// zerologAdapter bridges zerolog to the beatlab.Logger contract.
type zerologAdapter struct {
	log zerolog.Logger
}

func newLogger(level string) *zerologAdapter {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return &zerologAdapter{log: log}
}

func (l *zerologAdapter) Info(msg string, args ...any)  { l.emit(l.log.Info(), msg, args) }
func (l *zerologAdapter) Error(msg string, args ...any) { l.emit(l.log.Error(), msg, args) }
func (l *zerologAdapter) Warn(msg string, args ...any)  { l.emit(l.log.Warn(), msg, args) }
func (l *zerologAdapter) Debug(msg string, args ...any) { l.emit(l.log.Debug(), msg, args) }

// emit maps alternating key-value pairs onto zerolog fields. A trailing
// key without a value is logged under "extra".
func (l *zerologAdapter) emit(ev *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			ev = ev.Interface("field", args[i]).Interface("value", args[i+1])
			continue
		}
		ev = ev.Interface(key, args[i+1])
	}
	if len(args)%2 != 0 {
		ev = ev.Interface("extra", args[len(args)-1])
	}
	ev.Msg(msg)
}
