// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goenrich

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// KMeans holds the parameters for k-means clustering of embeddings.
type KMeans struct {
	// K is the number of clusters.
	K int
	// Seed seeds the k-means++ initialisation.
	Seed uint64
	// Restarts is the number of independent initialisations. The
	// lowest inertia solution is kept. Zero is treated as one.
	Restarts int
	// MaxIter is the iteration cap for each restart. Zero is treated
	// as 300.
	MaxIter int
	// Tol is the convergence threshold on the squared centroid shift,
	// relative to the mean per-dimension variance of the data.
	Tol float64
}

// Assignment is the cluster assignment of a single protein.
type Assignment struct {
	ProteinID string
	Cluster   int
}

// Label returns the cluster label of the assignment.
func (a Assignment) Label() string { return ClusterLabel(a.Cluster) }

// ClusterLabel returns the canonical label for cluster ordinal c.
func ClusterLabel(c int) string { return "C" + strconv.Itoa(c) }

// ParseClusterLabel returns the cluster ordinal for a canonical label.
func ParseClusterLabel(label string) (int, error) {
	if !strings.HasPrefix(label, "C") {
		return 0, fmt.Errorf("goenrich: invalid cluster label: %q", label)
	}
	c, err := strconv.Atoi(label[1:])
	if err != nil || c < 0 {
		return 0, fmt.Errorf("goenrich: invalid cluster label: %q", label)
	}
	return c, nil
}

// Cluster partitions the proteins in e into exactly km.K clusters. The
// returned assignments are in the order of e.IDs. Cluster ordinals are
// numbered in order of first appearance, so the first protein is always
// in cluster 0. For a given Seed and input the result is deterministic.
func (km KMeans) Cluster(e *Embeddings) ([]Assignment, error) {
	n := e.Len()
	switch {
	case km.K <= 0:
		return nil, &ConfigError{Field: "k", Reason: "must be positive"}
	case km.K > n:
		return nil, &ConfigError{Field: "k", Reason: fmt.Sprintf("(%d) exceeds the number of proteins (%d)", km.K, n)}
	}
	restarts := km.Restarts
	if restarts < 1 {
		restarts = 1
	}
	maxIter := km.MaxIter
	if maxIter < 1 {
		maxIter = 300
	}
	tol := km.Tol * meanVariance(e.Vectors)

	rnd := rand.New(rand.NewSource(km.Seed))
	var (
		best        []int
		bestInertia = math.Inf(1)
	)
	for r := 0; r < restarts; r++ {
		centers := initCenters(e.Vectors, km.K, rnd)
		labels, inertia := lloyd(e.Vectors, centers, maxIter, tol)
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}

	canon := make(map[int]int, km.K)
	assignments := make([]Assignment, n)
	for i, l := range best {
		c, ok := canon[l]
		if !ok {
			c = len(canon)
			canon[l] = c
		}
		assignments[i] = Assignment{ProteinID: e.IDs[i], Cluster: c}
	}
	return assignments, nil
}

// meanVariance returns the mean over columns of the variance of each
// column of x.
func meanVariance(x *mat.Dense) float64 {
	n, d := x.Dims()
	if n < 2 {
		return 0
	}
	col := make([]float64, n)
	var sum float64
	for j := 0; j < d; j++ {
		mat.Col(col, j, x)
		_, v := stat.MeanVariance(col, nil)
		sum += v
	}
	return sum / float64(d)
}

// initCenters returns k initial centers chosen from the rows of x by
// k-means++ seeding.
func initCenters(x *mat.Dense, k int, rnd *rand.Rand) *mat.Dense {
	n, d := x.Dims()
	centers := mat.NewDense(k, d, nil)
	centers.SetRow(0, x.RawRowView(rnd.Intn(n)))

	dist := make([]float64, n)
	for i := range dist {
		dist[i] = sqDist(x.RawRowView(i), centers.RawRowView(0))
	}
	for c := 1; c < k; c++ {
		next := n - 1
		total := floats.Sum(dist)
		if total == 0 {
			next = rnd.Intn(n)
		} else {
			target := rnd.Float64() * total
			var cum float64
			for i, v := range dist {
				cum += v
				if cum > target {
					next = i
					break
				}
			}
		}
		centers.SetRow(c, x.RawRowView(next))
		for i := range dist {
			dist[i] = math.Min(dist[i], sqDist(x.RawRowView(i), centers.RawRowView(c)))
		}
	}
	return centers
}

// lloyd runs Lloyd iterations from the given centers and returns the
// labels and inertia of the final assignment. Every cluster in the
// returned labels is non-empty.
func lloyd(x, centers *mat.Dense, maxIter int, tol float64) (labels []int, inertia float64) {
	n, d := x.Dims()
	k, _ := centers.Dims()
	labels = make([]int, n)
	dist := make([]float64, n)
	next := mat.NewDense(k, d, nil)
	for it := 0; it < maxIter; it++ {
		assign(x, centers, labels, dist)
		fillEmpty(x, centers, labels, dist, k)
		inertia = floats.Sum(dist)

		updateCenters(next, x, labels)
		var shift float64
		for c := 0; c < k; c++ {
			shift += sqDist(centers.RawRowView(c), next.RawRowView(c))
		}
		centers.Copy(next)
		if shift <= tol {
			break
		}
	}
	return labels, inertia
}

// assign labels each row of x with its nearest center, recording the
// squared distance in dist. Ties go to the lower center index.
func assign(x, centers *mat.Dense, labels []int, dist []float64) {
	k, _ := centers.Dims()
	for i := range labels {
		row := x.RawRowView(i)
		best, bestDist := 0, math.Inf(1)
		for c := 0; c < k; c++ {
			d := sqDist(row, centers.RawRowView(c))
			if d < bestDist {
				best, bestDist = c, d
			}
		}
		labels[i] = best
		dist[i] = bestDist
	}
}

// fillEmpty moves the point farthest from its center into each empty
// cluster, taking points only from clusters with more than one member.
func fillEmpty(x, centers *mat.Dense, labels []int, dist []float64, k int) {
	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}
	for c, n := range counts {
		if n != 0 {
			continue
		}
		far := -1
		for i, l := range labels {
			if counts[l] > 1 && (far < 0 || dist[i] > dist[far]) {
				far = i
			}
		}
		if far < 0 {
			// Only possible if k exceeds the number of rows.
			panic("goenrich: no donor point for empty cluster")
		}
		counts[labels[far]]--
		counts[c]++
		labels[far] = c
		dist[far] = 0
		centers.SetRow(c, x.RawRowView(far))
	}
}

// updateCenters sets each row of dst to the mean of the rows of x with
// that label.
func updateCenters(dst, x *mat.Dense, labels []int) {
	k, _ := dst.Dims()
	counts := make([]float64, k)
	dst.Zero()
	for i, l := range labels {
		floats.Add(dst.RawRowView(l), x.RawRowView(i))
		counts[l]++
	}
	for c := 0; c < k; c++ {
		if counts[c] != 0 {
			floats.Scale(1/counts[c], dst.RawRowView(c))
		}
	}
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}
