// Package store provides the key-value persistence contract used by the
// pattern library, with memory, file and sqlite backed drivers. The
// orchestration core never touches a store directly; modules own their
// persistence behind this interface.
package store

import (
	"context"
	"errors"
)

var (
	ErrKeyNotFound   = errors.New("key not found")
	ErrKeyEmpty      = errors.New("key is empty")
	ErrStoreClosed   = errors.New("store is closed")
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Store is a minimal key-value contract. Values are opaque bytes; the
// caller owns serialization. Get reports ErrKeyNotFound for missing keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open constructs a store for the named driver. The path is ignored by
// the memory driver; for the file driver it is a directory, for sqlite a
// database file.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverFile:
		return NewFileStore(path)
	case DriverSQLite:
		return OpenSQLite(path)
	}
	return nil, ErrUnknownDriver
}
