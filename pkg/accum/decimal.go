package accum

import (
	"encoding/json"
	"math"

	apd "github.com/cockroachdb/apd/v3"
)

// decCtx is the arithmetic context for all accumulator math. 50 digits
// keeps millions of additions of large magnitudes from shedding
// low-order bits; counts stay exact int64 and never pass through here.
var decCtx = apd.BaseContext.WithPrecision(50)

func zeroDec() *apd.Decimal {
	return new(apd.Decimal)
}

func infDec(negative bool) *apd.Decimal {
	return &apd.Decimal{Form: apd.Infinite, Negative: negative}
}

func nanDec() *apd.Decimal {
	return &apd.Decimal{Form: apd.NaN}
}

func isNaN(d *apd.Decimal) bool {
	return d.Form == apd.NaN || d.Form == apd.NaNSignaling
}

// addInto adds x into dst. NaN operands propagate as the
// invalid-number result instead of trapping.
func addInto(dst, x *apd.Decimal) {
	if isNaN(dst) || isNaN(x) {
		dst.Set(nanDec())
		return
	}
	_, _ = decCtx.Add(dst, dst, x)
}

// mulInto sets dst to a*b, propagating NaN.
func mulInto(dst, a, b *apd.Decimal) {
	if isNaN(a) || isNaN(b) {
		dst.Set(nanDec())
		return
	}
	_, _ = decCtx.Mul(dst, a, b)
}

// quo returns a/b, or NaN when the division is undefined.
func quo(a, b *apd.Decimal) *apd.Decimal {
	if isNaN(a) || isNaN(b) || b.IsZero() {
		return nanDec()
	}
	res := new(apd.Decimal)
	if _, err := decCtx.Quo(res, a, b); err != nil {
		return nanDec()
	}
	return res
}

// minInto lowers dst to x when x compares smaller. NaN poisons the
// bound.
func minInto(dst, x *apd.Decimal) {
	if isNaN(dst) || isNaN(x) {
		dst.Set(nanDec())
		return
	}
	if x.Cmp(dst) < 0 {
		dst.Set(x)
	}
}

// maxInto raises dst to x when x compares larger.
func maxInto(dst, x *apd.Decimal) {
	if isNaN(dst) || isNaN(x) {
		dst.Set(nanDec())
		return
	}
	if x.Cmp(dst) > 0 {
		dst.Set(x)
	}
}

// ToDecimal coerces a dynamic record value to a decimal. The second
// return is false when the value is not numeric at all (nil, mappings,
// sequences, booleans, unparseable strings). json.Number and string
// values convert losslessly; float64 NaN converts to decimal NaN, the
// invalid-number result.
func ToDecimal(v any) (*apd.Decimal, bool) {
	switch t := v.(type) {
	case *apd.Decimal:
		return t, true
	case json.Number:
		d, _, err := apd.NewFromString(t.String())
		if err != nil {
			return nil, false
		}
		return d, true
	case float64:
		return floatToDecimal(t)
	case float32:
		return floatToDecimal(float64(t))
	case int:
		return new(apd.Decimal).SetInt64(int64(t)), true
	case int64:
		return new(apd.Decimal).SetInt64(t), true
	case int32:
		return new(apd.Decimal).SetInt64(int64(t)), true
	case uint:
		return new(apd.Decimal).SetInt64(int64(t)), true // nolint:gosec
	case uint64:
		return new(apd.Decimal).SetInt64(int64(t)), true // nolint:gosec
	case string:
		d, _, err := apd.NewFromString(t)
		if err != nil {
			return nil, false
		}
		return d, true
	default:
		return nil, false
	}
}

func floatToDecimal(f float64) (*apd.Decimal, bool) {
	switch {
	case math.IsNaN(f):
		return nanDec(), true
	case math.IsInf(f, 1):
		return infDec(false), true
	case math.IsInf(f, -1):
		return infDec(true), true
	}
	d, err := new(apd.Decimal).SetFloat64(f)
	if err != nil {
		return nil, false
	}
	return d, true
}

// ToFloat converts a decimal to float64 for output records. Infinities
// and NaN map to their float counterparts.
func ToFloat(d *apd.Decimal) float64 {
	switch {
	case isNaN(d):
		return math.NaN()
	case d.Form == apd.Infinite:
		if d.Negative {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	f, err := d.Float64()
	if err != nil {
		return math.NaN()
	}
	return f
}

// decimalString renders a decimal for the metadata wire format.
func decimalString(d *apd.Decimal) string {
	return d.String()
}

// parseDecimal reads a metadata decimal, accepting the string form this
// package writes plus plain JSON numbers for hand-built metadata.
func parseDecimal(v any) (*apd.Decimal, bool) {
	return ToDecimal(v)
}
