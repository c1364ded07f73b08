// Package stats holds the numeric primitives of the snapshot builder: the
// per-96 rate, the interpolated empirical quantile, average-tie ranks and
// weighted means.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MinutesPerGame is the length of the normalization window. Stoppage time
// puts a typical match close to 96 minutes.
const MinutesPerGame = 96.0

// Per96 returns total * 96 / minutes. ok is false when minutes is not
// positive or the result is not finite; such rates must not be used.
func Per96(total, minutes float64) (rate float64, ok bool) {
	if minutes <= 0 || math.IsNaN(minutes) {
		return 0, false
	}
	rate = total * MinutesPerGame / minutes
	if !finite(rate) {
		return 0, false
	}
	return rate, true
}

// Games converts minutes into whole 96-minute games.
func Games(minutes float64) float64 {
	return math.Floor(minutes / MinutesPerGame)
}

// Quantile returns the linearly interpolated empirical quantile of sample at
// p in [0, 1] (Hyndman-Fan type 7). Non-finite values are ignored. ok is
// false when no finite value remains.
func Quantile(sample []float64, p float64) (float64, bool) {
	sorted := finiteSorted(sample)
	if len(sorted) == 0 {
		return 0, false
	}
	return quantileSorted(sorted, p), true
}

// Quantiles evaluates Quantile at every point, sorting the sample once. It
// returns nil when the sample has no finite value.
func Quantiles(sample []float64, points []float64) []float64 {
	sorted := finiteSorted(sample)
	if len(sorted) == 0 {
		return nil
	}
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = quantileSorted(sorted, p)
	}
	return out
}

func quantileSorted(x []float64, p float64) float64 {
	switch {
	case p <= 0:
		return x[0]
	case p >= 1:
		return x[len(x)-1]
	}
	h := float64(len(x)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(x)-1 {
		return x[len(x)-1]
	}
	return lerp(x[lo], x[lo+1], h-float64(lo))
}

// lerp interpolates from both ends so the result stays within [a, b]; this
// keeps curves monotone under rounding.
func lerp(a, b, t float64) float64 {
	if a == b {
		return a
	}
	var v float64
	if t < 0.5 {
		v = a + (b-a)*t
	} else {
		v = b - (b-a)*(1-t)
	}
	return math.Min(math.Max(v, a), b)
}

func finiteSorted(sample []float64) []float64 {
	out := make([]float64, 0, len(sample))
	for _, v := range sample {
		if finite(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

// RankDescending ranks values from highest (rank 1) to lowest. Tied values
// share the mean of the ranks they span, so a two-way tie for first gets
// 1.5 each. Non-finite values get NaN and do not consume a rank.
func RankDescending(values []float64) []float64 {
	ranks := make([]float64, len(values))
	idx := make([]int, 0, len(values))
	for i, v := range values {
		if finite(v) {
			idx = append(idx, i)
		} else {
			ranks[i] = math.NaN()
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] > values[idx[b]] })

	for start := 0; start < len(idx); {
		end := start
		for end+1 < len(idx) && values[idx[end+1]] == values[idx[start]] {
			end++
		}
		// positions start..end hold ranks start+1..end+1.
		avg := float64(start+end+2) / 2
		for k := start; k <= end; k++ {
			ranks[idx[k]] = avg
		}
		start = end + 1
	}
	return ranks
}

// Mean is the arithmetic mean; NaN for an empty slice.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// WeightedMean is Σ(x·w)/Σw. It falls back to the plain mean when every
// weight is zero, and is NaN for an empty slice.
func WeightedMean(x, weights []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	if floats.Sum(weights) == 0 {
		return stat.Mean(x, nil)
	}
	return stat.Mean(x, weights)
}

// Sum adds up x.
func Sum(x []float64) float64 {
	return floats.Sum(x)
}

// Max returns the largest value; 0 for an empty slice.
func Max(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Max(x)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
