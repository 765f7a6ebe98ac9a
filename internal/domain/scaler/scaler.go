// Package scaler standardizes feature vectors with a population mean and
// standard deviation fitted once per training run.
package scaler

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/titlerace/internal/domain/features"
	"github.com/okian/titlerace/internal/domain/model"
)

// Scaled is a Vector after standardization, in canonical order.
type Scaled struct {
	values [features.Count]float64
}

// At returns the scaled value of f.
func (s Scaled) At(f features.Feature) float64 {
	return s.values[f]
}

// Values returns a copy of the scaled values in canonical order.
func (s Scaled) Values() []float64 {
	out := make([]float64, features.Count)
	copy(out, s.values[:])
	return out
}

// Map returns the scaled values keyed by feature name.
func (s Scaled) Map() map[string]float64 {
	m := make(map[string]float64, features.Count)
	for i, x := range s.values {
		m[features.Feature(i).String()] = x
	}
	return m
}

// Params is one feature's fitted statistics.
type Params struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Fitted holds per-feature statistics. It is never modified after Fit or Load
// returns, so it is safe to share between goroutines.
type Fitted struct {
	params     [features.Count]Params
	degenerate []features.Feature
}

// Fit computes the population mean and standard deviation (ddof 0) of every
// feature. A zero standard deviation is replaced by 1.0 and reported by
// Degenerate.
func Fit(population []features.Vector) (*Fitted, error) {
	if len(population) == 0 {
		return nil, fmt.Errorf("%w: cannot fit scaler on an empty population", model.ErrData)
	}
	n := float64(len(population))
	fitted := &Fitted{}

	for i := 0; i < features.Count; i++ {
		f := features.Feature(i)
		var sum float64
		for _, v := range population {
			sum += v.At(f)
		}
		mean := sum / n

		var sq float64
		for _, v := range population {
			d := v.At(f) - mean
			sq += d * d
		}
		std := math.Sqrt(sq / n)
		if math.IsNaN(mean) || math.IsInf(mean, 0) || math.IsNaN(std) || math.IsInf(std, 0) {
			return nil, fmt.Errorf("%w: feature %s has non-finite statistics", model.ErrData, f)
		}
		if std == 0 {
			std = 1
			fitted.degenerate = append(fitted.degenerate, f)
		}
		fitted.params[i] = Params{Mean: mean, Std: std}
	}
	return fitted, nil
}

// Transform standardizes v as (x - mean) / std.
func (s *Fitted) Transform(v features.Vector) Scaled {
	var out Scaled
	for i, p := range s.params {
		out.values[i] = (v.At(features.Feature(i)) - p.Mean) / p.Std
	}
	return out
}

// Inverse maps a scaled vector back as x*std + mean.
func (s *Fitted) Inverse(sc Scaled) features.Vector {
	raw := make([]float64, features.Count)
	for i, p := range s.params {
		raw[i] = sc.values[i]*p.Std + p.Mean
	}
	v, err := features.FromOrdered(features.Names(), raw)
	if err != nil {
		// Names() always matches the schema.
		panic(err)
	}
	return v
}

// Params returns the statistics of f.
func (s *Fitted) Params(f features.Feature) Params {
	return s.params[f]
}

// Degenerate lists features whose standard deviation was zero.
func (s *Fitted) Degenerate() []features.Feature {
	out := make([]features.Feature, len(s.degenerate))
	copy(out, s.degenerate)
	return out
}

// FromParams builds a Fitted from statistics keyed by feature name. Every
// canonical name must be present; std <= 0 is treated as degenerate.
func FromParams(byName map[string]Params) (*Fitted, error) {
	var missing, extra []string
	for name := range byName {
		if _, ok := features.Lookup(name); !ok {
			extra = append(extra, name)
		}
	}
	for _, name := range features.Names() {
		if _, ok := byName[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return nil, fmt.Errorf("%w: scaler params missing %v, unknown %v", features.ErrFeatureOrderMismatch, missing, extra)
	}

	fitted := &Fitted{}
	for name, p := range byName {
		f, _ := features.Lookup(name)
		if p.Std <= 0 {
			p.Std = 1
			fitted.degenerate = append(fitted.degenerate, f)
		}
		fitted.params[f] = p
	}
	sort.Slice(fitted.degenerate, func(i, j int) bool { return fitted.degenerate[i] < fitted.degenerate[j] })
	return fitted, nil
}
