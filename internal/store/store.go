package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no mapping.
var ErrNotFound = errors.New("link not found")

// Store - represents a key to destination-URL mapping backing the redirector.
// Targets are stored scheme-less; the transport layer prefixes the scheme
// when redirecting. Writing an existing key overwrites it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, target string) error
	List(ctx context.Context) (map[string]string, error)
	Close() error
}
