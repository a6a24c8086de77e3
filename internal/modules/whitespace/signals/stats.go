package signals

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const stdEpsilon = 1e-9

// slopeConf fits y against its standardized index and returns the slope plus
// |slope / standard error| as a rough confidence. Fewer than two points give
// (0, 0).
func slopeConf(series []float64) (slope, t float64) {
	n := len(series)
	if n < 2 {
		return 0, 0
	}
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	for i := range x {
		x[i] = (x[i] - mean) / (std + stdEpsilon)
	}
	sxx := floats.Dot(x, x)
	slope = floats.Dot(x, series) / sxx
	intercept := stat.Mean(series, nil)

	resid := make([]float64, n)
	for i, y := range series {
		resid[i] = y - (slope*x[i] + intercept)
	}
	_, rstd := stat.PopMeanStdDev(resid, nil)
	se := (rstd + stdEpsilon) / math.Sqrt(sxx)
	return slope, math.Abs(slope / se)
}

// pctRank is the fraction of ref that is ≤ value; 0 for an empty reference.
func pctRank(value float64, ref []float64) float64 {
	if len(ref) == 0 {
		return 0
	}
	return stat.CDF(value, stat.Empirical, sortedCopy(ref), nil)
}

// Quantile is the p-quantile of xs by linear interpolation between order
// statistics at position p·(n−1). xs is not modified; an empty input yields 0.
func Quantile(p float64, xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := sortedCopy(xs)
	pos := math.Min(1, math.Max(0, p)) * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return s[lo] + (s[hi]-s[lo])*(pos-float64(lo))
}

func sortedCopy(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	sort.Float64s(out)
	return out
}
