// Package cluster groups option strikes with k-means.
//
// The feature is the strike price alone. Runs are seeded, so the same legs
// always produce the same clusters.
package cluster

import (
	"math"
	"math/rand"
	"sort"

	"github.com/contactkeval/oi-clusters/internal/data"
)

// Defaults: seed 42, ten restarts, scikit-learn's iteration cap.
const (
	DefaultK       = 3
	DefaultSeed    = 42
	DefaultRuns    = 10
	DefaultMaxIter = 300
)

// Leg is an option leg annotated with its cluster.
type Leg struct {
	data.OptionLeg
	Cluster int `json:"cluster"`
}

// KMeans clusters legs on their strike.
// The zero value is usable and behaves like Default().
type KMeans struct {
	Seed    int64
	Runs    int
	MaxIter int
}

// Default returns the standard configuration.
func Default() KMeans {
	return KMeans{Seed: DefaultSeed, Runs: DefaultRuns, MaxIter: DefaultMaxIter}
}

// Cluster is Default().Cluster.
func Cluster(legs []data.OptionLeg, k int) []Leg {
	return Default().Cluster(legs, k)
}

// Cluster assigns every leg a cluster id in [0, min(k, len(legs))) and returns
// the annotated legs sorted by strike ascending. legs is not modified.
//
// Cluster ids are ordered by centroid, so 0 is always the lowest-strike group.
// Empty input yields an empty result.
func (km KMeans) Cluster(legs []data.OptionLeg, k int) []Leg {
	if len(legs) == 0 {
		return []Leg{}
	}
	km = km.withDefaults()

	k = clampK(k, len(legs))

	xs := make([]float64, len(legs))
	for i, l := range legs {
		xs[i] = l.Strike
	}

	rng := rand.New(rand.NewSource(km.Seed))
	var (
		best        []int
		bestInertia = math.Inf(1)
	)
	for run := 0; run < km.Runs; run++ {
		labels, inertia := lloyd(xs, seedCenters(xs, k, rng), km.MaxIter)
		// strict < keeps the earliest run on ties
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}

	labels := relabelByCentroid(xs, best, k)

	out := make([]Leg, len(legs))
	for i, l := range legs {
		out[i] = Leg{OptionLeg: l, Cluster: labels[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Strike < out[j].Strike })
	return out
}

// Count returns the number of distinct clusters in legs.
func Count(legs []Leg) int {
	seen := map[int]struct{}{}
	for _, l := range legs {
		seen[l.Cluster] = struct{}{}
	}
	return len(seen)
}

// Members returns the legs of one cluster, preserving order.
func Members(legs []Leg, id int) []Leg {
	var out []Leg
	for _, l := range legs {
		if l.Cluster == id {
			out = append(out, l)
		}
	}
	return out
}

func (km KMeans) withDefaults() KMeans {
	if km.Seed == 0 {
		km.Seed = DefaultSeed
	}
	if km.Runs < 1 {
		km.Runs = DefaultRuns
	}
	if km.MaxIter < 1 {
		km.MaxIter = DefaultMaxIter
	}
	return km
}

func clampK(k, n int) int {
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// seedCenters picks k initial centers with k-means++: the first uniformly,
// each next one with probability proportional to its squared distance from
// the nearest chosen center.
func seedCenters(xs []float64, k int, rng *rand.Rand) []float64 {
	centers := make([]float64, 0, k)
	centers = append(centers, xs[rng.Intn(len(xs))])

	d2 := make([]float64, len(xs))
	for len(centers) < k {
		total := 0.0
		for i, x := range xs {
			d2[i] = sqDist(x, nearest(x, centers))
			total += d2[i]
		}
		if total == 0 {
			// every point sits on a center already; any pick is equivalent
			centers = append(centers, xs[rng.Intn(len(xs))])
			continue
		}
		target := rng.Float64() * total
		pick := len(xs) - 1
		for i, d := range d2 {
			target -= d
			if target < 0 {
				pick = i
				break
			}
		}
		centers = append(centers, xs[pick])
	}
	return centers
}

// lloyd runs assignment/update steps until the assignment is stable.
// It returns the labels and the within-cluster sum of squares.
func lloyd(xs, centers []float64, maxIter int) ([]int, float64) {
	k := len(centers)
	labels := make([]int, len(xs))
	for i := range labels {
		labels[i] = -1
	}
	sums := make([]float64, k)
	counts := make([]int, k)

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, x := range xs {
			c := nearestIndex(x, centers)
			if c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		for c := range sums {
			sums[c], counts[c] = 0, 0
		}
		for i, x := range xs {
			sums[labels[i]] += x
			counts[labels[i]]++
		}
		for c := range centers {
			// an empty cluster keeps its previous center
			if counts[c] > 0 {
				centers[c] = sums[c] / float64(counts[c])
			}
		}
	}

	inertia := 0.0
	for i, x := range xs {
		inertia += sqDist(x, centers[labels[i]])
	}
	return labels, inertia
}

// relabelByCentroid renumbers the non-empty clusters 0..m-1 in ascending
// centroid order.
func relabelByCentroid(xs []float64, labels []int, k int) []int {
	sums := make([]float64, k)
	counts := make([]int, k)
	for i, l := range labels {
		sums[l] += xs[i]
		counts[l]++
	}

	type centroid struct {
		id   int
		mean float64
	}
	var used []centroid
	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			used = append(used, centroid{id: c, mean: sums[c] / float64(counts[c])})
		}
	}
	sort.SliceStable(used, func(i, j int) bool { return used[i].mean < used[j].mean })

	remap := make([]int, k)
	for newID, c := range used {
		remap[c.id] = newID
	}

	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = remap[l]
	}
	return out
}

func nearest(x float64, centers []float64) float64 {
	return centers[nearestIndex(x, centers)]
}

func nearestIndex(x float64, centers []float64) int {
	best, bestD := 0, math.Inf(1)
	for c, center := range centers {
		// strict < sends ties to the lower index
		if d := sqDist(x, center); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func sqDist(a, b float64) float64 {
	d := a - b
	return d * d
}
