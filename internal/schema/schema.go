// Package schema compiles adapter payload schemas.
//
// Adapters declare their input and output contracts as CUE source. The
// registry compiles submitted schemas for well-formedness at registration
// time; validating actual step payloads against a schema is the adapter
// host's job, not the orchestrator's.
package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a schema compilation failure with source position.
type CompileError struct {
	Field   string // which adapter field held the schema ("inputSchema"/"outputSchema")
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Check compiles CUE schema source and returns a *CompileError if it is
// malformed. Empty source is valid - schemas are optional adapter metadata.
func Check(field, src string) error {
	if src == "" {
		return nil
	}

	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(field))
	if err := v.Err(); err != nil {
		return formatCUEError(field, err)
	}
	if err := v.Validate(); err != nil {
		return formatCUEError(field, err)
	}
	return nil
}

// formatCUEError extracts position info from CUE's multi-error values.
func formatCUEError(field string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: field, Message: err.Error()}
	}

	first := errs[0]
	ce := &CompileError{Field: field, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
