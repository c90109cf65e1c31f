package rng

import (
	"context"
	"math/rand"

	"goanova/ports"
)

// Adapter implements ports.RNGPort with plain seeded math/rand streams
type Adapter struct{}

var _ ports.RNGPort = (*Adapter)(nil)

// New creates a new RNG adapter
func New() *Adapter {
	return &Adapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(seed)), nil
}

// WorkerStream derives worker w's generator from seed + w, so a fixed seed
// and worker count fully determine every stream
func (a *Adapter) WorkerStream(ctx context.Context, name string, seed int64, worker int) (*rand.Rand, error) {
	return rand.New(rand.NewSource(seed + int64(worker))), nil
}
