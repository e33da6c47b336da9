package engine

import (
	"log/slog"

	"github.com/atlaslabs/atlasflow/internal/store"
)

// Engine is the flow orchestration service: wallet scope resolution, flow
// lifecycle, step sequencing, adapter registry, and flow execution against
// the receipt ledger.
//
// All state lives in the injected store; the Engine itself is stateless and
// safe for concurrent use. Execute may run concurrently for different flows -
// per-flow entry is serialized by a conditional status update, and receipt
// chains are serialized per artifact by the store's conditional append.
type Engine struct {
	store *store.Store
	ids   IDGenerator
	clock Clock
	log   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides ID generation (tests use FixedGenerator).
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithClock overrides the timestamp source (tests use SteppedClock).
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger overrides the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an Engine backed by the given store.
// Defaults: UUIDv7 identifiers, system clock, slog default logger.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store: s,
		ids:   UUIDv7Generator{},
		clock: SystemClock{},
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
