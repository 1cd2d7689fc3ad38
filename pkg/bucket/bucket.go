// Package bucket discretizes numeric values into labeled intervals.
//
// Given ascending breakpoints b0 < b1 < ... < bn-1, a value maps to one
// of n+1 buckets:
//
//	v <= b0         ->  "<=b0"
//	bi < v <= bi+1  ->  "bi-bi+1"
//	v > bn-1        ->  "bn-1+"
//
// Boundaries are lower-inclusive: a value exactly equal to a breakpoint
// belongs to the bucket below it. Labels parse back into their defining
// interval, which is what bucket-aware sorting relies on.
package bucket

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Interval is the numeric range a bucket label denotes. Open ends are
// ±Inf.
type Interval struct {
	Lo float64
	Hi float64
}

// Assign returns the bucket label for v. Breakpoints need not arrive
// sorted; they are sorted on a copy before assignment. Assignment is
// total for any real v, including infinities, which land in the outer
// buckets. An empty breakpoint list yields a single unbounded bucket.
func Assign(v float64, breakpoints []float64) string {
	if len(breakpoints) == 0 {
		return openLabel()
	}

	bps := breakpoints
	if !sort.Float64sAreSorted(bps) {
		bps = make([]float64, len(breakpoints))
		copy(bps, breakpoints)
		sort.Float64s(bps)
	}

	if v <= bps[0] {
		return "<=" + formatBound(bps[0])
	}
	for i := 0; i < len(bps)-1; i++ {
		if v <= bps[i+1] {
			return formatBound(bps[i]) + "-" + formatBound(bps[i+1])
		}
	}
	return formatBound(bps[len(bps)-1]) + "+"
}

// ParseLabel recovers the interval a label denotes. It accepts the three
// forms Assign produces: "<=x" as [-Inf, x], "a-b" as [a, b], and "x+"
// as [x, +Inf].
func ParseLabel(label string) (Interval, error) {
	switch {
	case strings.HasPrefix(label, "<="):
		hi, err := strconv.ParseFloat(label[2:], 64)
		if err != nil {
			return Interval{}, fmt.Errorf("%w: %q", ErrBadLabel, label)
		}
		return Interval{Lo: math.Inf(-1), Hi: hi}, nil

	case strings.HasSuffix(label, "+"):
		lo, err := strconv.ParseFloat(label[:len(label)-1], 64)
		if err != nil {
			return Interval{}, fmt.Errorf("%w: %q", ErrBadLabel, label)
		}
		return Interval{Lo: lo, Hi: math.Inf(1)}, nil
	}

	// "a-b" where either bound may itself be negative or in scientific
	// notation. Try each interior '-' as the separator until both halves
	// parse.
	for i := 1; i < len(label); i++ {
		if label[i] != '-' {
			continue
		}
		lo, errLo := strconv.ParseFloat(label[:i], 64)
		hi, errHi := strconv.ParseFloat(label[i+1:], 64)
		if errLo == nil && errHi == nil {
			return Interval{Lo: lo, Hi: hi}, nil
		}
	}

	return Interval{}, fmt.Errorf("%w: %q", ErrBadLabel, label)
}

// IsLabel reports whether s parses as a bucket label. Re-aggregated
// records carry labels where their source once carried numbers, and the
// grouping engine passes those through untouched.
func IsLabel(s string) bool {
	_, err := ParseLabel(s)
	return err == nil
}

// openLabel is the single bucket covering all reals.
func openLabel() string {
	return "<=" + formatBound(math.Inf(1))
}

// formatBound renders a breakpoint without an exponent and without
// trailing zeros, so labels stay stable and parseable.
func formatBound(b float64) string {
	if math.IsInf(b, 1) {
		return "+Inf"
	}
	if math.IsInf(b, -1) {
		return "-Inf"
	}
	return strconv.FormatFloat(b, 'f', -1, 64)
}
