package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// WorkerStream derives a per-worker generator from the same seed so that
	// fanned-out resampling produces identical results regardless of how the
	// work is scheduled
	WorkerStream(ctx context.Context, name string, seed int64, worker int) (*rand.Rand, error)
}
