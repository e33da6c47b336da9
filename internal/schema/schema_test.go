package schema

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckValidSchemas(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty source", ""},
		{"simple struct", `{cell: string, value: int}`},
		{"constrained fields", `{cell: =~"^[A-Z]+[0-9]+$", value: int & >=0}`},
		{"optional fields", `{text: string, style?: string}`},
		{"definitions", "#Cell: {col: string, row: int}\npayload: #Cell"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Check("inputSchema", tt.src); err != nil {
				t.Errorf("Check(%q) = %v, want nil", tt.src, err)
			}
		})
	}
}

func TestCheckMalformedSchema(t *testing.T) {
	err := Check("inputSchema", `{cell: string`)
	if err == nil {
		t.Fatal("malformed schema accepted")
	}

	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("want *CompileError, got %T", err)
	}
	if ce.Field != "inputSchema" {
		t.Errorf("Field = %q, want inputSchema", ce.Field)
	}
}

func TestCheckConflictingSchema(t *testing.T) {
	err := Check("outputSchema", `x: int
x: string`)
	if err == nil {
		t.Fatal("conflicting schema accepted")
	}
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("want *CompileError, got %T", err)
	}
	if ce.Field != "outputSchema" {
		t.Errorf("Field = %q, want outputSchema", ce.Field)
	}
}

func TestCompileErrorIncludesPosition(t *testing.T) {
	err := Check("inputSchema", `{cell: string`)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("want *CompileError, got %T", err)
	}
	if !strings.Contains(ce.Error(), "inputSchema") {
		t.Errorf("error %q does not name the schema field", ce.Error())
	}
}
