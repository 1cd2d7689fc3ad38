package bucket

import (
	"math"
	"testing"
)

func TestAssign(t *testing.T) {
	t.Parallel()

	bps := []float64{0, 10, 20}

	tests := []struct {
		v    float64
		want string
	}{
		{-5, "<=0"},
		{0, "<=0"},   // boundary value belongs to the lower bucket
		{0.1, "0-10"},
		{10, "0-10"}, // boundary value belongs to the lower bucket
		{10.5, "10-20"},
		{20, "10-20"},
		{20.0001, "20+"},
		{1e9, "20+"},
		{math.Inf(-1), "<=0"},
		{math.Inf(1), "20+"},
	}

	for _, tt := range tests {
		if got := Assign(tt.v, bps); got != tt.want {
			t.Errorf("Assign(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestAssign_UnsortedBreakpoints(t *testing.T) {
	t.Parallel()

	unsorted := []float64{20, 0, 10}

	if got := Assign(15, unsorted); got != "10-20" {
		t.Errorf("Assign(15) = %q, want 10-20", got)
	}

	// The caller's slice must not be reordered.
	if unsorted[0] != 20 || unsorted[1] != 0 || unsorted[2] != 10 {
		t.Errorf("input breakpoints mutated: %v", unsorted)
	}
}

func TestAssign_SingleBreakpoint(t *testing.T) {
	t.Parallel()

	bps := []float64{100}

	if got := Assign(100, bps); got != "<=100" {
		t.Errorf("Assign(100) = %q, want <=100", got)
	}
	if got := Assign(101, bps); got != "100+" {
		t.Errorf("Assign(101) = %q, want 100+", got)
	}
}

func TestAssign_NegativeBreakpoints(t *testing.T) {
	t.Parallel()

	bps := []float64{-10, -5}

	if got := Assign(-7, bps); got != "-10--5" {
		t.Errorf("Assign(-7) = %q, want -10--5", got)
	}
}

func TestParseLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label string
		lo    float64
		hi    float64
	}{
		{"<=0", math.Inf(-1), 0},
		{"0-10", 0, 10},
		{"10-20", 10, 20},
		{"20+", 20, math.Inf(1)},
		{"-10--5", -10, -5},
		{"-5-0", -5, 0},
		{"<=-3.5", math.Inf(-1), -3.5},
		{"0.5-1.5", 0.5, 1.5},
	}

	for _, tt := range tests {
		iv, err := ParseLabel(tt.label)
		if err != nil {
			t.Errorf("ParseLabel(%q) error = %v", tt.label, err)
			continue
		}
		if iv.Lo != tt.lo || iv.Hi != tt.hi {
			t.Errorf("ParseLabel(%q) = [%v, %v], want [%v, %v]",
				tt.label, iv.Lo, iv.Hi, tt.lo, tt.hi)
		}
	}
}

func TestParseLabel_RoundTrip(t *testing.T) {
	t.Parallel()

	bps := []float64{-2.5, 0, 7, 1000000}
	values := []float64{-10, -2.5, -1, 0, 3, 7, 500, 1000000, 2000000}

	for _, v := range values {
		label := Assign(v, bps)
		iv, err := ParseLabel(label)
		if err != nil {
			t.Fatalf("ParseLabel(Assign(%v)) error = %v", v, err)
		}
		if !(v > iv.Lo && v <= iv.Hi) && !(math.IsInf(iv.Lo, -1) && v <= iv.Hi) {
			t.Errorf("value %v outside parsed interval [%v, %v] of %q",
				v, iv.Lo, iv.Hi, label)
		}
	}
}

func TestParseLabel_Rejects(t *testing.T) {
	t.Parallel()

	for _, label := range []string{"", "midwest", "10", "<=x", "a-b", "+-"} {
		if _, err := ParseLabel(label); err == nil {
			t.Errorf("ParseLabel(%q) expected error, got nil", label)
		}
	}
}

func TestIsLabel(t *testing.T) {
	t.Parallel()

	if !IsLabel("0-10") {
		t.Error("IsLabel(0-10) = false, want true")
	}
	if IsLabel("northeast") {
		t.Error("IsLabel(northeast) = true, want false")
	}
}
