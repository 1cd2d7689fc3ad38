// Package accum holds the mergeable per-group statistical state and the
// pure fold operations over it.
//
// A State tracks one group: an exact record count and a map of metric
// states keyed by source field path (standard metrics) or by the
// composite weighted key (weighted metrics). Standard metrics carry
// sum, sum of squares, min, and max; weighted metrics carry weighted
// sum and total weight. All real arithmetic runs on arbitrary-precision
// decimals so that folding millions of contributions does not drift.
//
// Folding is composable: merging the states built over two disjoint
// record sets yields exactly the state built over their union. Derived
// values (average, standard deviation, weighted average) are computed
// only at read time and never folded back in.
package accum

import (
	"fmt"

	apd "github.com/cockroachdb/apd/v3"
)

// Method identifies a derived statistic.
type Method string

const (
	MethodCount           Method = "count"
	MethodSum             Method = "sum"
	MethodMin             Method = "min"
	MethodMax             Method = "max"
	MethodAverage         Method = "average"
	MethodStdDev          Method = "standardDeviation"
	MethodWeightedAverage Method = "weightedAverage"
)

// Valid reports whether m is a recognized method.
func (m Method) Valid() bool {
	switch m {
	case MethodCount, MethodSum, MethodMin, MethodMax,
		MethodAverage, MethodStdDev, MethodWeightedAverage:
		return true
	}
	return false
}

// NeedsSource reports whether m reads a source field. Count is derived
// from the group itself.
func (m Method) NeedsSource() bool {
	return m.Valid() && m != MethodCount
}

// NeedsWeight reports whether m additionally reads a weight field.
func (m Method) NeedsWeight() bool {
	return m == MethodWeightedAverage
}

// WeightedKey builds the metric key for a (sourceField, weightField)
// pair. The separator makes it distinct from any plain source-field
// key, so a weighted and an unweighted metric over the same source
// coexist.
func WeightedKey(sourceField, weightField string) string {
	return sourceField + "|weightedBy|" + weightField
}

// Metric is the running state for one metric key.
type Metric struct {
	// Standard state.
	Sum        *apd.Decimal
	SumSquares *apd.Decimal
	Min        *apd.Decimal
	Max        *apd.Decimal

	// Weighted state.
	WeightedSum *apd.Decimal
	TotalWeight *apd.Decimal

	// Weighted discriminates the two shapes.
	Weighted bool
}

// NewMetric returns an empty standard metric. Min starts at +Inf and
// Max at -Inf so the first folded value becomes both bounds.
func NewMetric() *Metric {
	return &Metric{
		Sum:        zeroDec(),
		SumSquares: zeroDec(),
		Min:        infDec(false),
		Max:        infDec(true),
	}
}

// NewWeightedMetric returns an empty weighted metric.
func NewWeightedMetric() *Metric {
	return &Metric{
		WeightedSum: zeroDec(),
		TotalWeight: zeroDec(),
		Weighted:    true,
	}
}

// FoldValue folds one raw value into a standard metric.
func (m *Metric) FoldValue(v *apd.Decimal) {
	addInto(m.Sum, v)

	sq := new(apd.Decimal)
	mulInto(sq, v, v)
	addInto(m.SumSquares, sq)

	minInto(m.Min, v)
	maxInto(m.Max, v)
}

// FoldWeighted folds one raw (value, weight) pair into a weighted
// metric.
func (m *Metric) FoldWeighted(v, w *apd.Decimal) {
	wv := new(apd.Decimal)
	mulInto(wv, v, w)
	addInto(m.WeightedSum, wv)
	addInto(m.TotalWeight, w)
}

// Merge folds a compatible pre-aggregated metric state directly into m.
// Sums and sums of squares add; bounds take the pointwise extreme. The
// two states must be of the same kind.
func (m *Metric) Merge(o *Metric) error {
	if m.Weighted != o.Weighted {
		return fmt.Errorf("%w: weighted=%v vs weighted=%v",
			ErrMetricKindMismatch, m.Weighted, o.Weighted)
	}

	if m.Weighted {
		addInto(m.WeightedSum, o.WeightedSum)
		addInto(m.TotalWeight, o.TotalWeight)
		return nil
	}

	addInto(m.Sum, o.Sum)
	addInto(m.SumSquares, o.SumSquares)
	minInto(m.Min, o.Min)
	maxInto(m.Max, o.Max)
	return nil
}

// Clone returns an independent copy of m.
func (m *Metric) Clone() *Metric {
	c := &Metric{Weighted: m.Weighted}
	if m.Weighted {
		c.WeightedSum = new(apd.Decimal).Set(m.WeightedSum)
		c.TotalWeight = new(apd.Decimal).Set(m.TotalWeight)
		return c
	}
	c.Sum = new(apd.Decimal).Set(m.Sum)
	c.SumSquares = new(apd.Decimal).Set(m.SumSquares)
	c.Min = new(apd.Decimal).Set(m.Min)
	c.Max = new(apd.Decimal).Set(m.Max)
	return c
}

// State is the complete accumulator for one group.
type State struct {
	// Count is the exact number of original (non-aggregated) records
	// folded in.
	Count int64

	// MatchKeys is the ordered list of field paths that defined this
	// group; empty for an ungrouped total.
	MatchKeys []string

	// Sources maps metric key to running metric state.
	Sources map[string]*Metric
}

// NewState returns an empty accumulator for a group defined by
// matchKeys.
func NewState(matchKeys []string) *State {
	keys := make([]string, len(matchKeys))
	copy(keys, matchKeys)
	return &State{
		MatchKeys: keys,
		Sources:   make(map[string]*Metric),
	}
}

// Metric returns the metric state for key, creating it with the
// requested kind on first use.
func (s *State) Metric(key string, weighted bool) *Metric {
	if m, ok := s.Sources[key]; ok {
		return m
	}
	var m *Metric
	if weighted {
		m = NewWeightedMetric()
	} else {
		m = NewMetric()
	}
	s.Sources[key] = m
	return m
}

// HasMetric reports whether key exists with the given kind.
func (s *State) HasMetric(key string, weighted bool) bool {
	m, ok := s.Sources[key]
	return ok && m.Weighted == weighted
}

// HasMatchKeys reports whether s covers every path in keys,
// order-independent. A state built over a superset of match keys can be
// re-aggregated onto any subset of them.
func (s *State) HasMatchKeys(keys []string) bool {
	if len(keys) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(s.MatchKeys))
	for _, k := range s.MatchKeys {
		have[k] = struct{}{}
	}
	for _, k := range keys {
		if _, ok := have[k]; !ok {
			return false
		}
	}
	return true
}

// Value computes the derived statistic for key at read time.
//
// Derivations:
//   - count: the group count (key is ignored)
//   - sum, min, max: returned directly
//   - average: sum / count
//   - standardDeviation: sqrt(sumSquares/count - (sum/count)^2), with a
//     negative radicand from rounding clamped to zero
//   - weightedAverage: weightedSum / totalWeight
//
// A missing metric key or a kind mismatch is an error; a zero-count or
// zero-weight division yields NaN, the invalid-number result.
func (s *State) Value(key string, method Method) (float64, error) {
	if method == MethodCount {
		return float64(s.Count), nil
	}

	m, ok := s.Sources[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, key)
	}
	if m.Weighted != method.NeedsWeight() {
		return 0, fmt.Errorf("%w: %q for method %q", ErrMetricKindMismatch, key, method)
	}

	switch method {
	case MethodSum:
		return ToFloat(m.Sum), nil
	case MethodMin:
		return ToFloat(m.Min), nil
	case MethodMax:
		return ToFloat(m.Max), nil
	case MethodAverage:
		n := new(apd.Decimal).SetInt64(s.Count)
		return ToFloat(quo(m.Sum, n)), nil
	case MethodStdDev:
		return ToFloat(s.stdDev(m)), nil
	case MethodWeightedAverage:
		return ToFloat(quo(m.WeightedSum, m.TotalWeight)), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// stdDev computes the population standard deviation from the folded
// sums. Rounding can push the variance a hair below zero; that clamps
// to zero rather than surfacing NaN.
func (s *State) stdDev(m *Metric) *apd.Decimal {
	n := new(apd.Decimal).SetInt64(s.Count)

	meanSq := quo(m.SumSquares, n)
	mean := quo(m.Sum, n)
	if isNaN(meanSq) || isNaN(mean) {
		return nanDec()
	}

	sqMean := new(apd.Decimal)
	mulInto(sqMean, mean, mean)

	variance := new(apd.Decimal)
	if _, err := decCtx.Sub(variance, meanSq, sqMean); err != nil {
		return nanDec()
	}
	if variance.Negative && !variance.IsZero() {
		variance = zeroDec()
	}

	out := new(apd.Decimal)
	if _, err := decCtx.Sqrt(out, variance); err != nil {
		return nanDec()
	}
	return out
}

// Clone returns an independent deep copy of s.
func (s *State) Clone() *State {
	c := NewState(s.MatchKeys)
	c.Count = s.Count
	for k, m := range s.Sources {
		c.Sources[k] = m.Clone()
	}
	return c
}
