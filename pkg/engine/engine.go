package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	apd "github.com/cockroachdb/apd/v3"

	"github.com/statfold/statfold/pkg/accum"
	"github.com/statfold/statfold/pkg/bucket"
	"github.com/statfold/statfold/pkg/logger"
	"github.com/statfold/statfold/pkg/record"
)

// engine implements the Engine interface.
type engine struct {
	logger logger.Logger
}

// New creates a new engine.
func New(cfg Config) Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &engine{logger: log}
}

// needs is the deduplicated metric requirement of one request: the
// standard source fields and the weighted (source, weight) pairs.
type needs struct {
	standard []string
	weighted map[string][2]string
}

// Aggregate implements Engine.Aggregate.
func (e *engine) Aggregate(req Request) (*Result, error) {
	nd, err := buildNeeds(req.Fields)
	if err != nil {
		return nil, err
	}

	grouped, diags, err := e.runPass(req, req.MatchKeys, nd, "grouped")
	if err != nil {
		return nil, err
	}

	totals, totalDiags, err := e.runPass(req, nil, nd, "totals")
	if err != nil {
		return nil, err
	}

	res := &Result{
		GroupedRecords: grouped,
		Diagnostics:    append(diags, totalDiags...),
	}
	if len(totals) > 0 {
		res.Totals = totals[0]
	}

	e.logger.Debug("aggregation complete",
		"records", len(req.Records),
		"groups", len(grouped),
		"diagnostics", len(res.Diagnostics))

	return res, nil
}

// buildNeeds validates the field specifications and collects the
// deduplicated metric keys they require. All configuration errors
// surface here, before any record is touched.
func buildNeeds(fields map[string]FieldSpec) (*needs, error) {
	if len(fields) == 0 {
		return nil, ErrNoFields
	}

	nd := &needs{weighted: make(map[string][2]string)}
	seen := make(map[string]struct{})

	for outPath, spec := range fields {
		if !spec.Method.Valid() {
			return nil, fmt.Errorf("field %q: %w: %q", outPath, ErrUnknownMethod, spec.Method)
		}
		if spec.Method.NeedsSource() && spec.SourceField == "" {
			return nil, fmt.Errorf("field %q: %w", outPath, ErrMissingSourceField)
		}
		if spec.Method.NeedsWeight() && spec.WeightField == "" {
			return nil, fmt.Errorf("field %q: %w", outPath, ErrMissingWeightField)
		}

		switch {
		case spec.Method.NeedsWeight():
			key := accum.WeightedKey(spec.SourceField, spec.WeightField)
			nd.weighted[key] = [2]string{spec.SourceField, spec.WeightField}
		case spec.Method.NeedsSource():
			if _, dup := seen[spec.SourceField]; !dup {
				seen[spec.SourceField] = struct{}{}
				nd.standard = append(nd.standard, spec.SourceField)
			}
		}
	}

	sort.Strings(nd.standard)
	return nd, nil
}

// group pairs a running accumulator with the output record carrying the
// group's identifying fields.
type group struct {
	state *accum.State
	rec   record.Record
}

// runPass performs one full grouping pass over the input. The totals
// pass is the same computation with no match keys, which yields the
// single implicit group.
func (e *engine) runPass(req Request, matchKeys []string, nd *needs, scope string) ([]record.Record, []Diagnostic, error) {
	groups := make(map[string]*group)
	var order []string
	var diags []Diagnostic

	// The implicit total group exists even over zero records.
	if len(matchKeys) == 0 {
		groups[""] = e.newGroup(nil, matchKeys, req, nd)
		order = append(order, "")
	}

	for i, rec := range req.Records {
		pre, diag := e.classify(i, rec, matchKeys, nd, scope)
		if diag != nil {
			diags = append(diags, *diag)
			e.logger.Warn("record metadata incompatible, folding as raw",
				"record", i, "scope", scope,
				"reason", diag.Reason, "detail", diag.Detail)
		}

		key := e.groupKey(rec, matchKeys, req.Buckets)
		g, ok := groups[key]
		if !ok {
			g = e.newGroup(rec, matchKeys, req, nd)
			groups[key] = g
			order = append(order, key)
		}

		if pre != nil {
			e.foldAggregated(g.state, pre, nd)
		} else {
			e.foldRaw(g.state, rec, nd)
		}
	}

	out := make([]record.Record, 0, len(order))
	for _, key := range order {
		g := groups[key]
		if err := e.finalize(g, req); err != nil {
			return nil, nil, err
		}
		out = append(out, g.rec)
	}

	if len(req.SortBy) > 0 && len(matchKeys) > 0 {
		e.sortGroups(out, req)
	}

	return out, diags, nil
}

// classify decides whether a record folds in as a pre-aggregated unit.
// It returns the decoded state when the metadata covers this pass's
// match keys and every needed metric, or nil (plus a diagnostic when
// metadata was present but unusable) to fold the record as raw data.
func (e *engine) classify(idx int, rec record.Record, matchKeys []string, nd *needs, scope string) (*accum.State, *Diagnostic) {
	raw, ok := rec[accum.MetadataKey]
	if !ok {
		return nil, nil
	}

	st, err := accum.DecodeState(raw)
	if err != nil {
		return nil, &Diagnostic{
			RecordIndex: idx,
			Scope:       scope,
			Reason:      ReasonBadMetadata,
			Detail:      err.Error(),
		}
	}

	if !st.HasMatchKeys(matchKeys) {
		return nil, &Diagnostic{
			RecordIndex: idx,
			Scope:       scope,
			Reason:      ReasonMatchKeys,
			Detail: fmt.Sprintf("requested %v, metadata has %v",
				matchKeys, st.MatchKeys),
		}
	}

	for _, key := range nd.standard {
		if !st.HasMetric(key, false) {
			return nil, &Diagnostic{
				RecordIndex: idx,
				Scope:       scope,
				Reason:      ReasonMissingMetric,
				Detail:      fmt.Sprintf("no state for source field %q", key),
			}
		}
	}
	for key := range nd.weighted {
		if !st.HasMetric(key, true) {
			return nil, &Diagnostic{
				RecordIndex: idx,
				Scope:       scope,
				Reason:      ReasonMissingMetric,
				Detail:      fmt.Sprintf("no state for weighted metric %q", key),
			}
		}
	}

	return st, nil
}

// groupKey joins the per-match-key labels into the group identifier.
func (e *engine) groupKey(rec record.Record, matchKeys []string, buckets map[string][]float64) string {
	if len(matchKeys) == 0 {
		return ""
	}

	labels := make([]string, len(matchKeys))
	for i, mk := range matchKeys {
		labels[i] = e.keyLabel(rec, mk, buckets[mk])
	}
	return strings.Join(labels, "|")
}

// keyLabel computes the label one match key contributes to the group
// identifier. Bucketed keys discretize numeric values; a value that is
// already a bucket label (a re-aggregated record's identifying field)
// passes through unchanged.
func (e *engine) keyLabel(rec record.Record, matchKey string, breakpoints []float64) string {
	v, ok := record.Get(rec, matchKey)
	if !ok {
		return ""
	}

	if len(breakpoints) == 0 {
		return fmt.Sprint(v)
	}

	if d, numeric := accum.ToDecimal(v); numeric {
		f := accum.ToFloat(d)
		if !math.IsNaN(f) {
			return bucket.Assign(f, breakpoints)
		}
	}
	if s, isStr := v.(string); isStr && bucket.IsLabel(s) {
		return s
	}
	return fmt.Sprint(v)
}

// newGroup initializes a group's accumulator and its nascent output
// record. Every needed metric is created up front so the group's
// metadata always carries the full metric set this request used, which
// is what keeps the output re-mergeable.
func (e *engine) newGroup(rec record.Record, matchKeys []string, req Request, nd *needs) *group {
	state := accum.NewState(matchKeys)
	for _, key := range nd.standard {
		state.Metric(key, false)
	}
	for key := range nd.weighted {
		state.Metric(key, true)
	}

	out := record.Record{}
	for _, mk := range matchKeys {
		v, ok := record.Get(rec, mk)
		if !ok {
			continue
		}
		if len(req.Buckets[mk]) > 0 {
			_ = record.Set(out, mk, e.keyLabel(rec, mk, req.Buckets[mk]))
		} else {
			_ = record.Set(out, mk, v)
		}
	}

	return &group{state: state, rec: out}
}

// foldRaw folds one raw record's field values into the group state.
// Absent source values contribute nothing to their metric; non-numeric
// values poison it with the invalid-number result.
func (e *engine) foldRaw(st *accum.State, rec record.Record, nd *needs) {
	st.Count++

	for _, key := range nd.standard {
		v, ok := record.Get(rec, key)
		if !ok {
			continue
		}
		st.Metric(key, false).FoldValue(toDecimalOrNaN(v))
	}

	for key, pair := range nd.weighted {
		v, okV := record.Get(rec, pair[0])
		w, okW := record.Get(rec, pair[1])
		if !okV || !okW {
			continue
		}
		st.Metric(key, true).FoldWeighted(toDecimalOrNaN(v), toDecimalOrNaN(w))
	}
}

// foldAggregated folds a compatible pre-aggregated state directly,
// never recomputing from derived outputs.
func (e *engine) foldAggregated(st *accum.State, pre *accum.State, nd *needs) {
	st.Count += pre.Count

	for _, key := range nd.standard {
		// Presence was checked during classification.
		_ = st.Metric(key, false).Merge(pre.Sources[key])
	}
	for key := range nd.weighted {
		_ = st.Metric(key, true).Merge(pre.Sources[key])
	}
}

// finalize derives every requested output field and attaches metadata.
func (e *engine) finalize(g *group, req Request) error {
	for outPath, spec := range req.Fields {
		if spec.Method == accum.MethodCount {
			if err := record.Set(g.rec, outPath, g.state.Count); err != nil {
				return err
			}
			continue
		}

		key := spec.SourceField
		if spec.Method.NeedsWeight() {
			key = accum.WeightedKey(spec.SourceField, spec.WeightField)
		}

		v, err := g.state.Value(key, spec.Method)
		if err != nil {
			return err
		}
		if err := record.Set(g.rec, outPath, v); err != nil {
			return err
		}
	}

	if !req.OmitMetadata {
		g.rec[accum.MetadataKey] = g.state.Encode()
	}
	return nil
}

// sortGroups orders grouped output records by the requested paths,
// ascending. A sort path that names a bucketed match key orders by the
// lower bound of its interval.
func (e *engine) sortGroups(out []record.Record, req Request) {
	bucketed := make(map[string]bool, len(req.Buckets))
	for mk := range req.Buckets {
		bucketed[mk] = true
	}

	sort.SliceStable(out, func(i, j int) bool {
		for _, path := range req.SortBy {
			c := compareField(out[i], out[j], path, bucketed[path])
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// compareField compares one sort key across two records. Absent values
// sort first; numeric values compare numerically; everything else
// compares as strings.
func compareField(a, b record.Record, path string, isBucketed bool) int {
	va, okA := record.Get(a, path)
	vb, okB := record.Get(b, path)

	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}

	if isBucketed {
		la, aIsLabel := labelLowerBound(va)
		lb, bIsLabel := labelLowerBound(vb)
		if aIsLabel && bIsLabel {
			return compareFloats(la, lb)
		}
	}

	da, aNum := accum.ToDecimal(va)
	db, bNum := accum.ToDecimal(vb)
	if aNum && bNum {
		return compareFloats(accum.ToFloat(da), accum.ToFloat(db))
	}

	return strings.Compare(fmt.Sprint(va), fmt.Sprint(vb))
}

func labelLowerBound(v any) (float64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	iv, err := bucket.ParseLabel(s)
	if err != nil {
		return 0, false
	}
	return iv.Lo, true
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// toDecimalOrNaN coerces a record value for accumulation; non-numeric
// values become decimal NaN, the invalid-number result.
func toDecimalOrNaN(v any) *apd.Decimal {
	if d, ok := accum.ToDecimal(v); ok {
		return d
	}
	d, _ := accum.ToDecimal(math.NaN())
	return d
}
