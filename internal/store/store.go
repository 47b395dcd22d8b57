// Package store keeps the live state of rounds and sessions between requests.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned for unknown ids and for ids owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned by Create when the id is already taken.
	ErrExists = errors.New("already exists")
)

// Store persists serializable values keyed by id and scoped to an owner.
// Implementations may be backed by memory or SQL.
type Store[T any] interface {
	// Save inserts or replaces the value stored under id.
	Save(ctx context.Context, owner, id string, v *T) error

	// Create inserts v under id only if id is unused, whoever owns it.
	// It returns ErrExists otherwise and leaves the stored value alone.
	Create(ctx context.Context, owner, id string, v *T) error

	// Get retrieves a decoded copy of the value.
	Get(ctx context.Context, owner, id string) (*T, error)

	// Update applies fn to a copy of the stored value and persists the result
	// only if fn returns nil. Updates to one id never interleave. On fn error
	// the unsaved value is returned alongside the error.
	Update(ctx context.Context, owner, id string, fn func(*T) error) (*T, error)

	// Prune deletes values not written since before and reports how many.
	// Live state is not history; nothing outlives its TTL.
	Prune(ctx context.Context, before time.Time) (int, error)
}

func decode[T any](b []byte) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(b, v); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return v, nil
}
