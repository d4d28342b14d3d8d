// Package store provides persistence for logi module sources.
package store

import "time"

// Entry is one stored module: its name and its raw YAML source.
type Entry struct {
	Name      string
	Source    string
	UpdatedAt time.Time
}

// Info is a directory listing entry.
type Info struct {
	Name      string
	UpdatedAt time.Time
}

// Store is the interface for module persistence.
type Store interface {
	// Get retrieves a module by name. Returns nil if not found.
	Get(name string) (*Entry, error)
	// Put stores a module source by name, overwriting if it exists.
	Put(name, source string) error
	// Delete removes a module by name.
	Delete(name string) error
	// List returns every stored module, ordered by name.
	List() ([]Info, error)
	// Close releases resources.
	Close() error
}

// MetadataStore extends Store with metadata operations.
type MetadataStore interface {
	Store
	GetMetadata(key string) (string, error)
	SetMetadata(key, value string) error
}
