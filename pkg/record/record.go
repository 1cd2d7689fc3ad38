// Package record provides the dynamic record representation used across
// statfold and path-based access into it.
//
// A Record is an arbitrarily nested mapping of string keys to scalars,
// sequences, and nested mappings, the shapes encoding/json produces.
// Numeric values may arrive as json.Number when decoded with UseNumber,
// which keeps large integers and high-precision decimals intact on the
// way to the accumulator.
//
// Paths are dot-separated segments, each optionally suffixed with one or
// more bracketed non-negative indices:
//
//	region
//	order.total
//	lines[0].amount
//	matrix[1][2]
package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is a dynamically shaped data record.
type Record = map[string]any

// Get reads the value at path. The second return is false when any
// segment along the path is missing, of the wrong shape, or indexed out
// of range. Get never fails on absent data.
func Get(r Record, path string) (any, bool) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, false
	}

	var cur any = r
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}

		cur, ok = m[seg.key]
		if !ok {
			return nil, false
		}

		for _, idx := range seg.indices {
			seq, ok := cur.([]any)
			if !ok || idx >= len(seq) {
				return nil, false
			}
			cur = seq[idx]
		}
	}

	return cur, true
}

// Set writes v at path, creating any missing intermediate mappings and
// sequences. Sequences are extended with nil slots as needed, so any
// output path is writable regardless of the record's prior shape. An
// existing intermediate of the wrong shape is replaced.
func Set(r Record, path string, v any) error {
	segs, err := parsePath(path)
	if err != nil {
		return err
	}

	cur := map[string]any(r)
	for i, seg := range segs {
		last := i == len(segs)-1

		if len(seg.indices) == 0 {
			if last {
				cur[seg.key] = v
				return nil
			}
			cur = childMap(cur, seg.key)
			continue
		}

		// Indexed segment: walk cur[key][i0][i1]... creating and
		// extending sequences along the way.
		seq, ok := cur[seg.key].([]any)
		if !ok {
			seq = nil
		}
		seq = extend(seq, seg.indices[0])
		cur[seg.key] = seq

		for j := 0; j < len(seg.indices); j++ {
			idx := seg.indices[j]
			lastIdx := j == len(seg.indices)-1

			if lastIdx {
				if last {
					seq[idx] = v
					return nil
				}
				m, ok := seq[idx].(map[string]any)
				if !ok {
					m = make(map[string]any)
					seq[idx] = m
				}
				cur = m
				break
			}

			inner, ok := seq[idx].([]any)
			if !ok {
				inner = nil
			}
			inner = extend(inner, seg.indices[j+1])
			seq[idx] = inner
			seq = inner
		}
	}

	return nil
}

// Delete removes the value at path. Missing paths are a no-op. Only
// mapping leaves can be deleted; an indexed final segment is left in
// place as nil.
func Delete(r Record, path string) {
	segs, err := parsePath(path)
	if err != nil || len(segs) == 0 {
		return
	}

	var cur any = r
	for _, seg := range segs[:len(segs)-1] {
		m, ok := cur.(map[string]any)
		if !ok {
			return
		}
		cur, ok = m[seg.key]
		if !ok {
			return
		}
		for _, idx := range seg.indices {
			seq, ok := cur.([]any)
			if !ok || idx >= len(seq) {
				return
			}
			cur = seq[idx]
		}
	}

	last := segs[len(segs)-1]
	m, ok := cur.(map[string]any)
	if !ok {
		return
	}

	if len(last.indices) == 0 {
		delete(m, last.key)
		return
	}

	cur, ok = m[last.key]
	if !ok {
		return
	}
	for _, idx := range last.indices[:len(last.indices)-1] {
		seq, ok := cur.([]any)
		if !ok || idx >= len(seq) {
			return
		}
		cur = seq[idx]
	}
	if seq, ok := cur.([]any); ok {
		idx := last.indices[len(last.indices)-1]
		if idx < len(seq) {
			seq[idx] = nil
		}
	}
}

// Clone returns a deep copy of r. Scalars are shared; mappings and
// sequences are copied.
func Clone(r Record) Record {
	return cloneValue(r).(map[string]any)
}

// Sanitize returns a deep copy of r with non-finite floats replaced by
// their decimal string forms ("NaN", "Infinity", "-Infinity").
// encoding/json refuses non-finite numbers; the string forms survive a
// JSON round trip and still coerce back to the same decimal values.
func Sanitize(r Record) Record {
	return sanitizeValue(r).(map[string]any)
}

func sanitizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = sanitizeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = sanitizeValue(e)
		}
		return out
	case float64:
		switch {
		case math.IsNaN(t):
			return "NaN"
		case math.IsInf(t, 1):
			return "Infinity"
		case math.IsInf(t, -1):
			return "-Infinity"
		}
		return t
	default:
		return v
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// childMap returns m[key] as a mapping, replacing whatever was there if
// it is not one.
func childMap(m map[string]any, key string) map[string]any {
	if child, ok := m[key].(map[string]any); ok {
		return child
	}
	child := make(map[string]any)
	m[key] = child
	return child
}

// extend grows seq so that index idx is addressable.
func extend(seq []any, idx int) []any {
	for len(seq) <= idx {
		seq = append(seq, nil)
	}
	return seq
}

// segment is one parsed path element: a map key plus any trailing
// sequence indices.
type segment struct {
	key     string
	indices []int
}

// parsePath splits a dotted path into segments. Bracketed indices must
// be non-negative integers; an empty key or malformed bracket is an
// error.
func parsePath(path string) ([]segment, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	parts := strings.Split(path, ".")
	segs := make([]segment, 0, len(parts))

	for _, part := range parts {
		open := strings.IndexByte(part, '[')
		if open == -1 {
			if part == "" {
				return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
			}
			segs = append(segs, segment{key: part})
			continue
		}

		key := part[:open]
		if key == "" {
			return nil, fmt.Errorf("%w: segment without key in %q", ErrInvalidPath, path)
		}

		seg := segment{key: key}
		rest := part[open:]
		for rest != "" {
			if rest[0] != '[' {
				return nil, fmt.Errorf("%w: trailing characters in %q", ErrInvalidPath, path)
			}
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				return nil, fmt.Errorf("%w: unterminated index in %q", ErrInvalidPath, path)
			}
			idx, err := strconv.Atoi(rest[1:end])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("%w: bad index %q in %q", ErrInvalidPath, rest[1:end], path)
			}
			seg.indices = append(seg.indices, idx)
			rest = rest[end+1:]
		}
		segs = append(segs, seg)
	}

	return segs, nil
}
