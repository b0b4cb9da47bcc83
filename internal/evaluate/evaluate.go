// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

// Package evaluate measures offline recommendation quality with
// precision@k and recall@k against per-user relevant item sets.
package evaluate

import (
	"context"
	"fmt"
	"sort"

	"github.com/tomtom215/commendatus/internal/recommend"
)

// Recommender produces the lists under evaluation. recommend.Engine
// satisfies it.
type Recommender interface {
	Recommend(userID, topK int) ([]int, error)
}

// Result is an averaged evaluation over a user sample.
type Result struct {
	K              int     `json:"k"`
	UsersEvaluated int     `json:"users_evaluated"`
	PrecisionAtK   float64 `json:"precision_at_k"`
	RecallAtK      float64 `json:"recall_at_k"`
}

// Evaluate computes mean precision@k and recall@k over at most maxUsers
// users drawn from relevant in ascending ID order. Users with no relevant
// items are skipped. Precision divides by k even when fewer items were
// returned, so short lists are penalized.
func Evaluate(ctx context.Context, rec Recommender, relevant map[int][]int, k, maxUsers int) (Result, error) {
	if k <= 0 {
		return Result{}, fmt.Errorf("k must be positive, got %d", k)
	}

	users := make([]int, 0, len(relevant))
	for userID, items := range relevant {
		if len(items) > 0 {
			users = append(users, userID)
		}
	}
	sort.Ints(users)
	if maxUsers > 0 && len(users) > maxUsers {
		users = users[:maxUsers]
	}

	result := Result{K: k}
	var precisionSum, recallSum float64

	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		recs, err := rec.Recommend(userID, k)
		if err != nil {
			return Result{}, fmt.Errorf("evaluate user %d: %w", userID, err)
		}

		relevantSet := make(map[int]bool, len(relevant[userID]))
		for _, itemID := range relevant[userID] {
			relevantSet[itemID] = true
		}

		hits := 0
		for _, itemID := range recs {
			if relevantSet[itemID] {
				hits++
			}
		}

		precisionSum += float64(hits) / float64(k)
		recallSum += float64(hits) / float64(len(relevantSet))
		result.UsersEvaluated++
	}

	if result.UsersEvaluated > 0 {
		precisionSum /= float64(result.UsersEvaluated)
		recallSum /= float64(result.UsersEvaluated)
	}
	result.PrecisionAtK = precisionSum
	result.RecallAtK = recallSum
	return result, nil
}

// RelevantByUser extracts per-user relevant item sets from interactions:
// every item the user engaged with at least as strongly as minType.
// Duplicate items collapse.
func RelevantByUser(interactions []recommend.Interaction, minType recommend.InteractionType) map[int][]int {
	seen := make(map[int]map[int]bool)
	for _, in := range interactions {
		if in.Type < minType {
			continue
		}
		if seen[in.UserID] == nil {
			seen[in.UserID] = make(map[int]bool)
		}
		seen[in.UserID][in.ItemID] = true
	}

	relevant := make(map[int][]int, len(seen))
	for userID, items := range seen {
		ids := make([]int, 0, len(items))
		for itemID := range items {
			ids = append(ids, itemID)
		}
		sort.Ints(ids)
		relevant[userID] = ids
	}
	return relevant
}
