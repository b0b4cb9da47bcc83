// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package recommend

import "sort"

// Matrix is a dense user-item weight matrix. Rows are users, columns are
// items, both in ascending ID order. Entries are the summed interaction
// weights for the (user, item) pair, 0 where absent.
//
// A Matrix is immutable once built. The ID slices are the canonical row and
// column orders; every tie-break in the engine falls back to these.
type Matrix struct {
	// Users holds the distinct user IDs in ascending order (row order).
	Users []int

	// Items holds the distinct item IDs in ascending order (column order).
	Items []int

	// Weights is the len(Users) x len(Items) weight matrix.
	Weights [][]float64

	userIndex map[int]int
	itemIndex map[int]int
}

// BuildMatrix constructs a dense user-item matrix from interaction events.
// Weights for duplicate (user, item) pairs are summed. An empty input yields
// an empty matrix, which the engine treats as untrained.
func BuildMatrix(interactions []Interaction) *Matrix {
	type pair struct{ user, item int }

	sums := make(map[pair]float64, len(interactions))
	userSet := make(map[int]struct{})
	itemSet := make(map[int]struct{})

	for _, in := range interactions {
		sums[pair{in.UserID, in.ItemID}] += in.Weight()
		userSet[in.UserID] = struct{}{}
		itemSet[in.ItemID] = struct{}{}
	}

	m := &Matrix{
		Users:     sortedKeys(userSet),
		Items:     sortedKeys(itemSet),
		userIndex: make(map[int]int, len(userSet)),
		itemIndex: make(map[int]int, len(itemSet)),
	}

	for i, id := range m.Users {
		m.userIndex[id] = i
	}
	for j, id := range m.Items {
		m.itemIndex[id] = j
	}

	m.Weights = make([][]float64, len(m.Users))
	for i := range m.Weights {
		m.Weights[i] = make([]float64, len(m.Items))
	}
	for p, w := range sums {
		m.Weights[m.userIndex[p.user]][m.itemIndex[p.item]] = w
	}

	return m
}

// restoreMatrix rebuilds a Matrix from persisted parts, recomputing the
// index maps. The caller has already validated the dimensions.
func restoreMatrix(users, items []int, weights [][]float64) *Matrix {
	m := &Matrix{
		Users:     users,
		Items:     items,
		Weights:   weights,
		userIndex: make(map[int]int, len(users)),
		itemIndex: make(map[int]int, len(items)),
	}
	for i, id := range users {
		m.userIndex[id] = i
	}
	for j, id := range items {
		m.itemIndex[id] = j
	}
	return m
}

// Empty reports whether the matrix has no users or no items.
func (m *Matrix) Empty() bool {
	return m == nil || len(m.Users) == 0 || len(m.Items) == 0
}

// UserIndex returns the row index for a user ID.
func (m *Matrix) UserIndex(userID int) (int, bool) {
	idx, ok := m.userIndex[userID]
	return idx, ok
}

// ItemIndex returns the column index for an item ID.
func (m *Matrix) ItemIndex(itemID int) (int, bool) {
	idx, ok := m.itemIndex[itemID]
	return idx, ok
}

func sortedKeys(set map[int]struct{}) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
