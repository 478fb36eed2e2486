package triaxial

import (
	"math"
	"sort"

	"github.com/KaramelBytes/agsloom/internal/table"
)

// Strength is a Mohr-Coulomb estimate from a straight-line fit of t on s.
type Strength struct {
	Label    string  `json:"label,omitempty"`
	Phi      float64 `json:"phi_deg"`
	Cohesion float64 `json:"cohesion"`
	N        int     `json:"n"`
	Source   string  `json:"source,omitempty"`
	Valid    bool    `json:"valid"`
}

// EstimateStrength fits t = a + m*s over rows holding both values and
// converts the line to friction angle phi = asin(m) and cohesion
// c = a / cos(phi). Results are rounded to 2 decimals. A fit needs at least
// two distinct s values and |m| <= 1, otherwise Valid is false.
func EstimateStrength(t *table.Table) Strength {
	var xs, ys []float64
	sources := map[string]int{}
	if t != nil {
		for _, r := range t.Rows {
			s, okS := r[ColS].Float()
			tv, okT := r[ColT].Float()
			if !okS || !okT {
				continue
			}
			xs = append(xs, s)
			ys = append(ys, tv)
			sources[r[ColSSource].String()]++
		}
	}
	est := Strength{N: len(xs), Source: mixSource(sources)}
	m, a, ok := fitLine(xs, ys)
	if !ok || math.Abs(m) > 1 {
		return est
	}
	phi := math.Asin(m)
	est.Phi = round2(phi * 180 / math.Pi)
	est.Cohesion = round2(a / math.Cos(phi))
	est.Valid = !math.IsNaN(est.Cohesion) && !math.IsInf(est.Cohesion, 0)
	return est
}

// EstimateStrengthBy returns one estimate per distinct value of col, sorted by label.
// Rows with a blank label are skipped.
func EstimateStrengthBy(t *table.Table, col string) []Strength {
	if t == nil || !t.HasColumn(col) {
		return nil
	}
	groups := map[string]*table.Table{}
	for _, r := range t.Rows {
		v := r[col]
		if v.IsBlank() {
			continue
		}
		label := v.String()
		g, ok := groups[label]
		if !ok {
			g = table.New(label, t.Columns...)
			groups[label] = g
		}
		g.Rows = append(g.Rows, r)
	}
	labels := make([]string, 0, len(groups))
	for l := range groups {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	out := make([]Strength, 0, len(labels))
	for _, l := range labels {
		s := EstimateStrength(groups[l])
		s.Label = l
		out = append(out, s)
	}
	return out
}

// fitLine is ordinary least squares of ys on xs.
func fitLine(xs, ys []float64) (slope, intercept float64, ok bool) {
	n := float64(len(xs))
	if len(xs) < 2 {
		return 0, 0, false
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n
	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - mx
		sxx += dx * dx
		sxy += dx * (ys[i] - my)
	}
	if sxx == 0 {
		return 0, 0, false
	}
	slope = sxy / sxx
	return slope, my - slope*mx, true
}

func mixSource(counts map[string]int) string {
	switch {
	case len(counts) == 0:
		return ""
	case len(counts) == 1:
		for k := range counts {
			return k
		}
	}
	return "mixed"
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
