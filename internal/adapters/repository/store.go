// Package repository holds fitted Gamma parameters keyed by
// (location, month, timescale).
package repository

import (
	"context"

	"github.com/okian/drought/internal/domain/model"
)

// Store provides read/write access to fitted parameters.
type Store interface {
	// Put stores params for key, replacing any previous value.
	Put(ctx context.Context, key model.Key, params model.GammaParams) error
	// Load stores a batch of fitted params.
	Load(ctx context.Context, fitted []model.FittedParams) error

	// Get returns the params for key or ErrNotFound.
	Get(ctx context.Context, key model.Key) (model.GammaParams, error)
	// ByLocation returns every fitted key of one location, sorted.
	ByLocation(ctx context.Context, location string) ([]model.FittedParams, error)
	// All returns every stored entry, sorted by key.
	All(ctx context.Context) []model.FittedParams
	// Locations returns the distinct stored locations in name order.
	Locations(ctx context.Context) []string

	// Count returns the number of stored keys.
	Count(ctx context.Context) int
}
