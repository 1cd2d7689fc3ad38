package accum

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	s := NewState([]string{"region"})
	s.Count = 3
	m := s.Metric("revenue", false)
	for _, v := range []float64{10, 20, 30} {
		m.FoldValue(dec(t, v))
	}
	w := s.Metric(WeightedKey("revenue", "daysActive"), true)
	w.FoldWeighted(dec(t, 10), dec(t, 51))

	decoded, err := DecodeState(s.Encode())
	if err != nil {
		t.Fatalf("DecodeState() error = %v", err)
	}

	if decoded.Count != 3 {
		t.Errorf("Count = %d, want 3", decoded.Count)
	}
	if len(decoded.MatchKeys) != 1 || decoded.MatchKeys[0] != "region" {
		t.Errorf("MatchKeys = %v, want [region]", decoded.MatchKeys)
	}

	dm := decoded.Sources["revenue"]
	if dm == nil || dm.Weighted {
		t.Fatalf("revenue metric = %+v, want standard metric", dm)
	}
	if dm.Sum.Cmp(m.Sum) != 0 || dm.SumSquares.Cmp(m.SumSquares) != 0 {
		t.Errorf("sums not preserved: %s/%s", dm.Sum, dm.SumSquares)
	}
	if dm.Min.Cmp(m.Min) != 0 || dm.Max.Cmp(m.Max) != 0 {
		t.Errorf("bounds not preserved: %s/%s", dm.Min, dm.Max)
	}

	dw := decoded.Sources[WeightedKey("revenue", "daysActive")]
	if dw == nil || !dw.Weighted {
		t.Fatalf("weighted metric = %+v, want weighted metric", dw)
	}
	if ToFloat(dw.WeightedSum) != 510 || ToFloat(dw.TotalWeight) != 51 {
		t.Errorf("weighted state = %v/%v, want 510/51",
			ToFloat(dw.WeightedSum), ToFloat(dw.TotalWeight))
	}
}

func TestEncodeDecode_SurvivesJSON(t *testing.T) {
	t.Parallel()

	s := NewState(nil)
	s.Count = 1
	s.Metric("x", false).FoldValue(dec(t, "12345678901234567.89"))

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(s.Encode()); err != nil {
		t.Fatal(err)
	}

	var wire any
	decJSON := json.NewDecoder(&buf)
	decJSON.UseNumber()
	if err := decJSON.Decode(&wire); err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeState(wire)
	if err != nil {
		t.Fatalf("DecodeState() after JSON round trip error = %v", err)
	}

	want := dec(t, "12345678901234567.89")
	if decoded.Sources["x"].Sum.Cmp(want) != 0 {
		t.Errorf("Sum = %s, want %s (precision lost in transit)",
			decoded.Sources["x"].Sum, want)
	}
}

func TestEncodeDecode_InfiniteBounds(t *testing.T) {
	t.Parallel()

	// An empty standard metric still has its +Inf/-Inf bounds; they must
	// survive the wire format.
	s := NewState(nil)
	s.Sources["empty"] = NewMetric()

	decoded, err := DecodeState(s.Encode())
	if err != nil {
		t.Fatalf("DecodeState() error = %v", err)
	}

	m := decoded.Sources["empty"]
	if !math.IsInf(ToFloat(m.Min), 1) {
		t.Errorf("Min = %v, want +Inf", ToFloat(m.Min))
	}
	if !math.IsInf(ToFloat(m.Max), -1) {
		t.Errorf("Max = %v, want -Inf", ToFloat(m.Max))
	}
}

func TestDecodeState_Rejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   any
	}{
		{"not a mapping", "nope"},
		{"missing count", map[string]any{
			"matchKeys": []any{}, "sources": map[string]any{},
		}},
		{"missing sources", map[string]any{
			"matchKeys": []any{}, "count": 1,
		}},
		{"bad match key", map[string]any{
			"matchKeys": []any{7}, "count": 1, "sources": map[string]any{},
		}},
		{"bad decimal", map[string]any{
			"matchKeys": []any{}, "count": 1,
			"sources": map[string]any{
				"x": map[string]any{
					"sum": "??", "sumOfSquares": "0", "min": "0", "max": "0",
				},
			},
		}},
		{"incomplete metric", map[string]any{
			"matchKeys": []any{}, "count": 1,
			"sources": map[string]any{
				"x": map[string]any{"sum": "0"},
			},
		}},
	}

	for _, tc := range cases {
		if _, err := DecodeState(tc.in); err == nil {
			t.Errorf("DecodeState(%s) expected error, got nil", tc.name)
		}
	}
}
