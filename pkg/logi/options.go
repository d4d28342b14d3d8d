// Package logi provides the public API for the logi interpreter.
package logi

import "nickandperla.net/logi/internal/store"

// Option configures a Runtime.
type Option func(*Runtime)

// WithSQLiteStore configures SQLite persistence at the given path.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		s, err := store.NewSQLite(path)
		if err == nil {
			r.store = s
		}
	}
}

// WithMemoryStore configures an in-memory store (for testing).
func WithMemoryStore() Option {
	return func(r *Runtime) {
		r.store = store.NewMemory()
	}
}

// WithStore configures a caller-supplied store.
func WithStore(s store.Store) Option {
	return func(r *Runtime) {
		r.store = s
	}
}
