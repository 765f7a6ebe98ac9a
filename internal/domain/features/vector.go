package features

import (
	"fmt"
	"sort"
	"strings"
)

// Vector is one team-season's features in canonical order.
type Vector struct {
	values [Count]float64
}

// Bind builds a Vector from a name -> value map. The map must hold exactly
// the canonical names.
func Bind(m map[string]float64) (Vector, error) {
	var v Vector
	if missing, extra := diffNames(keys(m)); len(missing) > 0 || len(extra) > 0 {
		return v, mismatch(missing, extra)
	}
	for name, x := range m {
		f, _ := Lookup(name)
		v.values[f] = x
	}
	return v, nil
}

// FromOrdered pairs names with values positionally and reorders them to the
// canonical schema.
func FromOrdered(order []string, values []float64) (Vector, error) {
	var v Vector
	if len(order) != len(values) {
		return v, fmt.Errorf("%w: %d names for %d values", ErrFeatureOrderMismatch, len(order), len(values))
	}
	missing, extra := diffNames(order)
	if len(missing) > 0 || len(extra) > 0 {
		return v, mismatch(missing, extra)
	}
	if len(order) != Count {
		return v, fmt.Errorf("%w: duplicate feature names", ErrFeatureOrderMismatch)
	}
	for i, name := range order {
		f, _ := Lookup(name)
		v.values[f] = values[i]
	}
	return v, nil
}

// At returns the value of f.
func (v Vector) At(f Feature) float64 {
	return v.values[f]
}

// Get returns the value of the named feature.
func (v Vector) Get(name string) (float64, bool) {
	f, ok := Lookup(name)
	if !ok {
		return 0, false
	}
	return v.values[f], true
}

// Values returns a copy of the values in canonical order.
func (v Vector) Values() []float64 {
	out := make([]float64, Count)
	copy(out, v.values[:])
	return out
}

// Map returns the vector keyed by feature name.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, Count)
	for i, x := range v.values {
		m[names[i]] = x
	}
	return m
}

func keys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// diffNames reports canonical names absent from got and names in got that
// are not canonical.
func diffNames(got []string) (missing, extra []string) {
	present := make(map[string]struct{}, len(got))
	for _, n := range got {
		present[n] = struct{}{}
		if _, ok := byName[n]; !ok {
			extra = append(extra, n)
		}
	}
	for _, n := range names {
		if _, ok := present[n]; !ok {
			missing = append(missing, n)
		}
	}
	sort.Strings(extra)
	return missing, extra
}

func mismatch(missing, extra []string) error {
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ","))
	}
	if len(extra) > 0 {
		parts = append(parts, "unknown "+strings.Join(extra, ","))
	}
	return fmt.Errorf("%w: %s", ErrFeatureOrderMismatch, strings.Join(parts, "; "))
}
