package domain

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrTooFewEntities is returned when there are fewer points than clusters.
var ErrTooFewEntities = errors.New("fewer entities than clusters")

const (
	defaultNInit     = 10
	defaultMaxIter   = 300
	defaultTolerance = 1e-4

	// pcgIncrement is the second PCG seed word; any odd constant works.
	pcgIncrement = 0x9e3779b97f4a7c15
)

// KMeans partitions entities into K groups over (lat, lng, avg_rating) using
// Lloyd's algorithm with k-means++ seeding. The best of NInit restarts (lowest
// inertia) wins. Results are fully determined by Seed and the input order.
type KMeans struct {
	K         int
	NInit     int
	MaxIter   int
	Tolerance float64 // relative to the mean per-feature variance
	Seed      uint64
}

// NewKMeans returns a KMeans with the usual restart, iteration and tolerance defaults.
func NewKMeans(k int, seed uint64) KMeans {
	return KMeans{
		K:         k,
		NInit:     defaultNInit,
		MaxIter:   defaultMaxIter,
		Tolerance: defaultTolerance,
		Seed:      seed,
	}
}

// Clustering is the outcome of a k-means fit.
type Clustering struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64 // sum of squared distances to the assigned centroid
}

// Features returns the clustering feature vector of an entity.
func Features(e Entity) []float64 {
	return []float64{e.Lat, e.Lng, e.AvgRating}
}

// Assign fits the model over all entities and returns copies labeled with
// the nearest centroid's index.
func (km KMeans) Assign(entities []Entity) ([]Entity, Clustering, error) {
	points := make([][]float64, len(entities))
	for i, e := range entities {
		points[i] = Features(e)
	}

	result, err := km.Fit(points)
	if err != nil {
		return nil, Clustering{}, err
	}

	out := make([]Entity, len(entities))
	for i, e := range entities {
		label := result.Labels[i]
		e.Cluster = &label
		out[i] = e
	}
	return out, result, nil
}

// Fit runs k-means over points, all of which must share a dimension.
func (km KMeans) Fit(points [][]float64) (Clustering, error) {
	if km.K < 1 {
		return Clustering{}, fmt.Errorf("kmeans: cluster count must be positive, got %d", km.K)
	}
	if len(points) < km.K {
		return Clustering{}, fmt.Errorf("kmeans: %d points for %d clusters: %w", len(points), km.K, ErrTooFewEntities)
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return Clustering{}, fmt.Errorf("kmeans: point %d has %d features, want %d", i, len(p), dim)
		}
	}

	nInit := max(km.NInit, 1)
	maxIter := km.MaxIter
	if maxIter < 1 {
		maxIter = defaultMaxIter
	}
	tol := km.Tolerance * meanVariance(points, dim)

	rng := rand.New(rand.NewPCG(km.Seed, pcgIncrement))

	var best Clustering
	for run := 0; run < nInit; run++ {
		centroids := km.seedCentroids(points, rng)
		c := lloyd(points, centroids, maxIter, tol)
		if run == 0 || c.Inertia < best.Inertia {
			best = c
		}
	}
	return best, nil
}

// seedCentroids picks K initial centroids with k-means++: each next centroid is
// drawn with probability proportional to its squared distance from the
// nearest centroid chosen so far.
func (km KMeans) seedCentroids(points [][]float64, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, km.K)
	centroids = append(centroids, slices.Clone(points[rng.IntN(n)]))

	d2 := make([]float64, n)
	for i, p := range points {
		d2[i] = sqDist(p, centroids[0])
	}

	for len(centroids) < km.K {
		idx := 0
		if total := floats.Sum(d2); total > 0 {
			target := rng.Float64() * total
			for ; idx < n-1; idx++ {
				target -= d2[idx]
				if target < 0 {
					break
				}
			}
		} else {
			// Every point coincides with a centroid.
			idx = rng.IntN(n)
		}

		c := slices.Clone(points[idx])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centroids
}

func lloyd(points, centroids [][]float64, maxIter int, tol float64) Clustering {
	labels := make([]int, len(points))
	for iter := 0; iter < maxIter; iter++ {
		assignLabels(points, centroids, labels)
		next := recomputeCentroids(points, labels, centroids)

		shift := 0.0
		for j := range centroids {
			shift += sqDist(centroids[j], next[j])
		}
		centroids = next
		if shift <= tol {
			break
		}
	}
	inertia := assignLabels(points, centroids, labels)
	return Clustering{Labels: labels, Centroids: centroids, Inertia: inertia}
}

// assignLabels writes the nearest centroid index for every point into labels
// and returns the resulting inertia. Ties go to the lower index.
func assignLabels(points, centroids [][]float64, labels []int) float64 {
	inertia := 0.0
	for i, p := range points {
		bestJ, bestD := 0, math.Inf(1)
		for j, c := range centroids {
			if d := sqDist(p, c); d < bestD {
				bestJ, bestD = j, d
			}
		}
		labels[i] = bestJ
		inertia += bestD
	}
	return inertia
}

// recomputeCentroids moves each centroid to the mean of its members. A
// centroid left without members is moved onto the point farthest from its
// own centroid.
func recomputeCentroids(points [][]float64, labels []int, prev [][]float64) [][]float64 {
	dim := len(points[0])
	sums := make([][]float64, len(prev))
	counts := make([]int, len(prev))
	for j := range sums {
		sums[j] = make([]float64, dim)
	}
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}

	taken := make(map[int]bool)
	for j := range sums {
		if counts[j] == 0 {
			far := farthestPoint(points, labels, prev, taken)
			taken[far] = true
			copy(sums[j], points[far])
			continue
		}
		floats.Scale(1/float64(counts[j]), sums[j])
	}
	return sums
}

func farthestPoint(points [][]float64, labels []int, centroids [][]float64, taken map[int]bool) int {
	far, farD := 0, -1.0
	for i, p := range points {
		if taken[i] {
			continue
		}
		if d := sqDist(p, centroids[labels[i]]); d > farD {
			far, farD = i, d
		}
	}
	return far
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// meanVariance is the average per-feature variance, used to scale the
// convergence tolerance to the data.
func meanVariance(points [][]float64, dim int) float64 {
	if len(points) < 2 {
		return 0
	}
	col := make([]float64, len(points))
	total := 0.0
	for d := 0; d < dim; d++ {
		for i, p := range points {
			col[i] = p[d]
		}
		total += stat.Variance(col, nil)
	}
	return total / float64(dim)
}
