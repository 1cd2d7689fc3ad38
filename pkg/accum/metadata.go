package accum

import (
	"encoding/json"
	"fmt"

	apd "github.com/cockroachdb/apd/v3"
)

// MetadataKey is the reserved record key aggregation metadata lives
// under. It is part of the wire format: persisted aggregated records
// stay re-aggregatable only while this name is stable.
const MetadataKey = "_aggregation"

// Wire field names inside the metadata mapping.
const (
	metaMatchKeys   = "matchKeys"
	metaCount       = "count"
	metaSources     = "sources"
	metaSum         = "sum"
	metaSumSquares  = "sumOfSquares"
	metaMin         = "min"
	metaMax         = "max"
	metaWeightedSum = "weightedSum"
	metaTotalWeight = "totalWeight"
)

// Encode renders s as a JSON-safe mapping suitable for embedding in an
// output record under MetadataKey. Decimals are written as strings so a
// JSON round trip loses nothing; infinite bounds survive as "Infinity"
// and "-Infinity".
func (s *State) Encode() map[string]any {
	keys := make([]any, len(s.MatchKeys))
	for i, k := range s.MatchKeys {
		keys[i] = k
	}

	sources := make(map[string]any, len(s.Sources))
	for key, m := range s.Sources {
		if m.Weighted {
			sources[key] = map[string]any{
				metaWeightedSum: decimalString(m.WeightedSum),
				metaTotalWeight: decimalString(m.TotalWeight),
			}
			continue
		}
		sources[key] = map[string]any{
			metaSum:        decimalString(m.Sum),
			metaSumSquares: decimalString(m.SumSquares),
			metaMin:        decimalString(m.Min),
			metaMax:        decimalString(m.Max),
		}
	}

	return map[string]any{
		metaMatchKeys: keys,
		metaCount:     s.Count,
		metaSources:   sources,
	}
}

// DecodeState rebuilds a State from a metadata mapping, the inverse of
// Encode. It tolerates the shapes a JSON round trip produces (string
// slices become []any, counts become json.Number or float64).
func DecodeState(v any) (*State, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: not a mapping (%T)", ErrBadMetadata, v)
	}

	count, err := decodeCount(m[metaCount])
	if err != nil {
		return nil, err
	}

	matchKeys, err := decodeMatchKeys(m[metaMatchKeys])
	if err != nil {
		return nil, err
	}

	rawSources, ok := m[metaSources].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing sources", ErrBadMetadata)
	}

	s := NewState(matchKeys)
	s.Count = count

	for key, rawMetric := range rawSources {
		metric, err := decodeMetric(key, rawMetric)
		if err != nil {
			return nil, err
		}
		s.Sources[key] = metric
	}

	return s, nil
}

func decodeCount(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: count %q", ErrBadMetadata, t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: missing count", ErrBadMetadata)
	}
}

func decodeMatchKeys(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return t, nil
	case []any:
		keys := make([]string, len(t))
		for i, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%w: match key %v", ErrBadMetadata, e)
			}
			keys[i] = s
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("%w: matchKeys is %T", ErrBadMetadata, v)
	}
}

func decodeMetric(key string, v any) (*Metric, error) {
	fields, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: source %q is %T", ErrBadMetadata, key, v)
	}

	if _, weighted := fields[metaWeightedSum]; weighted {
		m := NewWeightedMetric()
		var err error
		if m.WeightedSum, err = decodeDecimal(key, fields, metaWeightedSum); err != nil {
			return nil, err
		}
		if m.TotalWeight, err = decodeDecimal(key, fields, metaTotalWeight); err != nil {
			return nil, err
		}
		return m, nil
	}

	m := NewMetric()
	var err error
	if m.Sum, err = decodeDecimal(key, fields, metaSum); err != nil {
		return nil, err
	}
	if m.SumSquares, err = decodeDecimal(key, fields, metaSumSquares); err != nil {
		return nil, err
	}
	if m.Min, err = decodeDecimal(key, fields, metaMin); err != nil {
		return nil, err
	}
	if m.Max, err = decodeDecimal(key, fields, metaMax); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeDecimal(key string, fields map[string]any, name string) (*apd.Decimal, error) {
	raw, ok := fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: source %q missing %s", ErrBadMetadata, key, name)
	}
	d, ok := parseDecimal(raw)
	if !ok {
		return nil, fmt.Errorf("%w: source %q field %s = %v", ErrBadMetadata, key, name, raw)
	}
	return d, nil
}
