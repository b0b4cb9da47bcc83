// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package recommend

import "math"

// UserSimilarity computes the pairwise cosine similarity between the rows
// (users) of the matrix. The diagonal is forced to zero so that a user's
// similarity to themselves cannot dominate neighbor weighting.
func UserSimilarity(m *Matrix) [][]float64 {
	sim := cosinePairwise(m.Weights)
	for i := range sim {
		sim[i][i] = 0
	}
	return sim
}

// ItemSimilarity computes the pairwise cosine similarity between the columns
// (items) of the matrix. The diagonal is left intact; session scoring
// excludes self-reference by key membership instead.
func ItemSimilarity(m *Matrix) [][]float64 {
	return cosinePairwise(transpose(m.Weights))
}

// cosinePairwise returns the square symmetric cosine-similarity matrix over
// the rows of w. A zero vector has similarity 0 to every other vector rather
// than producing a division error.
func cosinePairwise(w [][]float64) [][]float64 {
	n := len(w)

	norms := make([]float64, n)
	for i, row := range w {
		var sum float64
		for _, v := range row {
			sum += v * v
		}
		norms[i] = math.Sqrt(sum)
	}

	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		sim[i][i] = 1
		if norms[i] == 0 {
			sim[i][i] = 0
			continue
		}
		for j := i + 1; j < n; j++ {
			if norms[j] == 0 {
				continue
			}
			var dot float64
			for k, v := range w[i] {
				dot += v * w[j][k]
			}
			s := dot / (norms[i] * norms[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}

	return sim
}

func transpose(w [][]float64) [][]float64 {
	if len(w) == 0 {
		return nil
	}
	cols := len(w[0])
	t := make([][]float64, cols)
	for j := range t {
		t[j] = make([]float64, len(w))
		for i := range w {
			t[j][i] = w[i][j]
		}
	}
	return t
}
