package ledger

import (
	"encoding/json"
	"testing"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"zebra": int64(1),
		"alpha": "a",
		"mango": true,
	})
	if err != nil {
		t.Fatalf("MarshalCanonical: %v", err)
	}
	want := `{"alpha":"a","mango":true,"zebra":1}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestMarshalCanonicalUTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates starting 0xD83D in UTF-16, which sorts
	// before U+FF21 (0xFF21). UTF-8 byte comparison would order them the
	// other way around.
	got, err := MarshalCanonical(map[string]any{
		"\uFF21":     int64(2),
		"\U0001F600": int64(1),
	})
	if err != nil {
		t.Fatalf("MarshalCanonical: %v", err)
	}
	want := "{\"\U0001F600\":1,\"\uFF21\":2}"
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestMarshalCanonicalNoHTMLEscaping(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"k": "<a>&b</a>"})
	if err != nil {
		t.Fatalf("MarshalCanonical: %v", err)
	}
	want := `{"k":"<a>&b</a>"}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestMarshalCanonicalEscapes(t *testing.T) {
	got, err := MarshalCanonical("line1\nline2\ttab\"quote\\slash\x01")
	if err != nil {
		t.Fatalf("MarshalCanonical: %v", err)
	}
	want := `"line1\nline2\ttab\"quote\\slash\u0001"`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// e + combining acute accent normalizes to the precomposed form.
	got, err := MarshalCanonical("caf\u0065\u0301")
	if err != nil {
		t.Fatalf("MarshalCanonical: %v", err)
	}
	want := "\"caf\u00e9\""
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	if _, err := MarshalCanonical(3.14); err == nil {
		t.Error("float accepted, want error")
	}
	if _, err := MarshalCanonical(map[string]any{"x": 1.5}); err == nil {
		t.Error("nested float accepted, want error")
	}
	if _, err := MarshalCanonical(json.Number("1.5")); err == nil {
		t.Error("non-integer json.Number accepted, want error")
	}
}

func TestMarshalCanonicalRejectsNull(t *testing.T) {
	if _, err := MarshalCanonical(nil); err == nil {
		t.Error("null accepted, want error")
	}
	if _, err := MarshalCanonical(map[string]any{"x": nil}); err == nil {
		t.Error("nested null accepted, want error")
	}
}

func TestMarshalCanonicalIntegerForms(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"a": 7,
		"b": int64(-42),
		"c": json.Number("9007199254740991"),
	})
	if err != nil {
		t.Fatalf("MarshalCanonical: %v", err)
	}
	want := `{"a":7,"b":-42,"c":9007199254740991}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestMarshalCanonicalArrays(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"ids":   []string{"b", "a"},
		"mixed": []any{int64(1), "two", true},
	})
	if err != nil {
		t.Fatalf("MarshalCanonical: %v", err)
	}
	// Array order is preserved; only object keys sort.
	want := `{"ids":["b","a"],"mixed":[1,"two",true]}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
