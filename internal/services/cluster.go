package services

import (
	"math/rand"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// clusterSeed makes summary selection deterministic across runs.
const clusterSeed = 100

// minRepresentativeLen drops near-empty pages (covers, dividers) from the
// summary context.
const minRepresentativeLen = 250

// SummaryClusterCount picks how many clusters to build over a document's
// pages. Small documents use half their pages, large ones cap at 11.
func SummaryClusterCount(pageCount int) int {
	if pageCount > 20 {
		return 11
	}
	k := pageCount / 2
	if k < 1 {
		k = 1
	}
	return k
}

// SummaryContext clusters page embeddings and returns the representative
// pages joined in document order. One page per cluster, the one closest to
// its centroid, keeps the context diverse without exceeding the prompt
// budget.
func SummaryContext(pages []PageRecord) string {
	if len(pages) == 0 {
		return ""
	}

	k := SummaryClusterCount(len(pages))
	vectors := make([][]float64, len(pages))
	for i, page := range pages {
		vectors[i] = toFloat64(page.Embedding)
	}

	assignments, centroids := kmeans(vectors, k)

	// Pick the page nearest each centroid.
	repIndex := make([]int, len(centroids))
	repDist := make([]float64, len(centroids))
	for c := range repIndex {
		repIndex[c] = -1
	}
	for i, c := range assignments {
		d := floats.Distance(vectors[i], centroids[c], 2)
		if repIndex[c] == -1 || d < repDist[c] {
			repIndex[c] = i
			repDist[c] = d
		}
	}

	selected := make([]int, 0, len(repIndex))
	for _, idx := range repIndex {
		if idx >= 0 {
			selected = append(selected, idx)
		}
	}
	sort.Ints(selected)

	parts := make([]string, 0, len(selected))
	for _, idx := range selected {
		if len(pages[idx].Text) > minRepresentativeLen {
			parts = append(parts, pages[idx].Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// kmeans runs Lloyd's algorithm with a fixed seed. Returns the cluster
// assignment per vector and the final centroids.
func kmeans(vectors [][]float64, k int) ([]int, [][]float64) {
	if k > len(vectors) {
		k = len(vectors)
	}
	dim := len(vectors[0])
	rng := rand.New(rand.NewSource(clusterSeed))

	// Seed centroids from distinct input points.
	perm := rng.Perm(len(vectors))
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), vectors[perm[i]]...)
	}

	assignments := make([]int, len(vectors))
	for iter := 0; iter < 100; iter++ {
		changed := false
		for i, vec := range vectors {
			best := 0
			bestDist := floats.Distance(vec, centroids[0], 2)
			for c := 1; c < k; c++ {
				if d := floats.Distance(vec, centroids[c], 2); d < bestDist {
					best = c
					bestDist = d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, vec := range vectors {
			c := assignments[i]
			counts[c]++
			floats.Add(sums[c], vec)
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centroids[c] = sums[c]
		}
	}
	return assignments, centroids
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
