package record

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestGet_TopLevel(t *testing.T) {
	t.Parallel()

	r := Record{"region": "midwest", "revenue": 10.0}

	v, ok := Get(r, "region")
	if !ok {
		t.Fatal("Get(region) reported absent")
	}
	if v != "midwest" {
		t.Errorf("Get(region) = %v, want midwest", v)
	}
}

func TestGet_Nested(t *testing.T) {
	t.Parallel()

	r := Record{
		"order": map[string]any{
			"customer": map[string]any{"id": "c-7"},
			"lines": []any{
				map[string]any{"amount": 12.5},
				map[string]any{"amount": 99.0},
			},
		},
	}

	tests := []struct {
		path string
		want any
		ok   bool
	}{
		{"order.customer.id", "c-7", true},
		{"order.lines[0].amount", 12.5, true},
		{"order.lines[1].amount", 99.0, true},
		{"order.lines[2].amount", nil, false},
		{"order.customer.name", nil, false},
		{"order.missing.deeper", nil, false},
		{"order.customer.id.x", nil, false},
	}

	for _, tt := range tests {
		v, ok := Get(r, tt.path)
		if ok != tt.ok {
			t.Errorf("Get(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			continue
		}
		if ok && v != tt.want {
			t.Errorf("Get(%q) = %v, want %v", tt.path, v, tt.want)
		}
	}
}

func TestGet_MultiIndex(t *testing.T) {
	t.Parallel()

	r := Record{
		"matrix": []any{
			[]any{1.0, 2.0},
			[]any{3.0, 4.0},
		},
	}

	v, ok := Get(r, "matrix[1][0]")
	if !ok || v != 3.0 {
		t.Errorf("Get(matrix[1][0]) = %v, %v, want 3.0, true", v, ok)
	}
}

func TestSet_CreatesIntermediates(t *testing.T) {
	t.Parallel()

	r := Record{}
	if err := Set(r, "a.b[2].c", 7.0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	v, ok := Get(r, "a.b[2].c")
	if !ok || v != 7.0 {
		t.Fatalf("Get(a.b[2].c) = %v, %v, want 7.0, true", v, ok)
	}

	// Elements 0 and 1 are empty slots, not missing.
	b, ok := Get(r, "a.b")
	if !ok {
		t.Fatal("Get(a.b) reported absent")
	}
	seq, ok := b.([]any)
	if !ok {
		t.Fatalf("a.b is %T, want []any", b)
	}
	if len(seq) != 3 {
		t.Errorf("len(a.b) = %d, want 3", len(seq))
	}
	if seq[0] != nil || seq[1] != nil {
		t.Errorf("slots not nil: %v", seq[:2])
	}
}

func TestSet_OverwritesScalarIntermediate(t *testing.T) {
	t.Parallel()

	r := Record{"a": "scalar"}
	if err := Set(r, "a.b", 1.0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	v, ok := Get(r, "a.b")
	if !ok || v != 1.0 {
		t.Errorf("Get(a.b) = %v, %v, want 1.0, true", v, ok)
	}
}

func TestSet_ExistingStructure(t *testing.T) {
	t.Parallel()

	r := Record{"stats": map[string]any{"count": 3}}
	if err := Set(r, "stats.sum", 60.0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if v, _ := Get(r, "stats.count"); v != 3 {
		t.Errorf("sibling clobbered: stats.count = %v", v)
	}
	if v, _ := Get(r, "stats.sum"); v != 60.0 {
		t.Errorf("stats.sum = %v, want 60.0", v)
	}
}

func TestSet_InvalidPath(t *testing.T) {
	t.Parallel()

	r := Record{}
	for _, path := range []string{"", "a..b", "[0]", "a[x]", "a[-1]", "a[0"} {
		if err := Set(r, path, 1); err == nil {
			t.Errorf("Set(%q) expected error, got nil", path)
		}
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	r := Record{
		"meta": map[string]any{"count": 2},
		"keep": "yes",
	}

	Delete(r, "meta")
	if _, ok := Get(r, "meta"); ok {
		t.Error("Delete(meta) left value behind")
	}
	if v, _ := Get(r, "keep"); v != "yes" {
		t.Errorf("unrelated key disturbed: %v", v)
	}

	// Deleting something absent is a no-op.
	Delete(r, "nope.deeper")
}

func TestClone_Independent(t *testing.T) {
	t.Parallel()

	orig := Record{
		"a": map[string]any{"b": []any{1.0, 2.0}},
	}
	cp := Clone(orig)

	if !reflect.DeepEqual(orig, cp) {
		t.Fatalf("Clone() = %v, want %v", cp, orig)
	}

	if err := Set(cp, "a.b[0]", 99.0); err != nil {
		t.Fatal(err)
	}
	if v, _ := Get(orig, "a.b[0]"); v != 1.0 {
		t.Errorf("mutation of clone leaked into original: %v", v)
	}
}

func TestGet_JSONNumbers(t *testing.T) {
	t.Parallel()

	var r Record
	dec := json.NewDecoder(strings.NewReader(`{"order":{"total":12345678901234567}}`))
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		t.Fatal(err)
	}

	v, ok := Get(r, "order.total")
	if !ok {
		t.Fatal("Get(order.total) reported absent")
	}
	n, ok := v.(json.Number)
	if !ok {
		t.Fatalf("value is %T, want json.Number", v)
	}
	if n.String() != "12345678901234567" {
		t.Errorf("large integer mangled: %s", n)
	}
}
