// Package engine implements the Atlas flow orchestration service.
//
// The engine groups ordered, wallet-scoped mutation steps into flows,
// executes them against content artifacts, and records every artifact
// mutation as an entry in the per-artifact hash-chained receipt ledger.
//
// Components:
//
//   - wallet scope resolution (scope.go): idempotent get-or-create identity
//   - flow store (flows.go): flow CRUD and state-machine transitions
//   - step sequencer (steps.go): ordered step append
//   - adapter registry (adapters.go): versioned step-handler metadata
//   - executor (executor.go): sequential step walk, one receipt per
//     artifact-targeting step, terminal transition to completed or failed
//   - ledger audits (ledger.go): receipt chain verification
//
// Errors are typed (errors.go): VALIDATION, NOT_FOUND, UNAUTHORIZED,
// INVALID_STATE, STORAGE, matched via errors.As helpers.
package engine
