// Package storage provides backends for publishing built firmware images.
package storage

import (
	"context"
	"io"
)

// Backend defines the interface for artifact publication backends
type Backend interface {
	// Upload uploads data to storage under the given key
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)

	// Ping checks if the storage is accessible
	Ping(ctx context.Context) error

	// Type returns the storage backend type
	Type() string

	// Location returns a human-readable location description
	Location() string
}

// Config holds the storage configuration
type Config struct {
	// Type is the storage backend type: "s3", "local", or "" (publication disabled)
	Type string

	// Local storage configuration
	Local LocalConfig

	// S3 storage configuration
	S3 S3Config
}

// Enabled reports whether artifact publication is configured
func (c Config) Enabled() bool {
	return c.Type != ""
}

// New creates a new storage backend based on configuration
func New(cfg Config) (Backend, error) {
	switch cfg.Type {
	case "s3":
		return NewS3(cfg.S3)
	default:
		return NewLocal(cfg.Local)
	}
}
