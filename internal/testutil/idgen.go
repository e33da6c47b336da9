// Package testutil provides deterministic helpers for tests: sequential ID
// generation and disposable in-memory stores.
package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator produces deterministic IDs: <prefix>-000001, <prefix>-000002, ...
// Unlike a fixed list it never exhausts, so scenarios can create as many
// entities as they need while staying reproducible.
//
// Thread-safe via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator with the given ID prefix.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next sequential ID.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%06d", g.prefix, g.n)
}
