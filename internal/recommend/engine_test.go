// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package recommend

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

// neighborScenario is the canonical three-user fixture: weights
// [[1,0,0],[1,1,0],[0,0,5]] over users {1,2,3} and items {10,20,30}.
func neighborScenario() []Interaction {
	return []Interaction{
		{UserID: 1, ItemID: 10, Type: InteractionView},
		{UserID: 2, ItemID: 10, Type: InteractionView},
		{UserID: 2, ItemID: 20, Type: InteractionView},
		{UserID: 3, ItemID: 30, Type: InteractionTransaction},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults are valid", DefaultConfig(), false},
		{"zero neighborhood", Config{Neighborhood: 0, DefaultK: 6, MaxK: 50}, true},
		{"zero default k", Config{Neighborhood: 20, DefaultK: 0, MaxK: 50}, true},
		{"max below default", Config{Neighborhood: 20, DefaultK: 6, MaxK: 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEngine_Recommend_Untrained(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.Recommend(1, 5); !errors.Is(err, ErrUntrained) {
		t.Errorf("Recommend() error = %v, want ErrUntrained", err)
	}

	// Training on an empty source publishes an empty matrix, which still
	// counts as untrained.
	if err := e.Train(context.Background(), nil); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if _, err := e.Recommend(1, 5); !errors.Is(err, ErrUntrained) {
		t.Errorf("Recommend() after empty train error = %v, want ErrUntrained", err)
	}
}

func TestEngine_Recommend_UnknownUser(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Train(context.Background(), neighborScenario()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	recs, err := e.Recommend(999, 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("Recommend(unknown user) = %v, want empty", recs)
	}
}

func TestEngine_Recommend_NeighborScenario(t *testing.T) {
	// User 1's only interaction is item 10. User 2 is the most similar
	// neighbor and has item 20; user 3 is orthogonal, so item 30 must not
	// outrank item 20.
	e := newTestEngine(t)
	if err := e.Train(context.Background(), neighborScenario()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	recs, err := e.Recommend(1, 1)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !reflect.DeepEqual(recs, []int{20}) {
		t.Errorf("Recommend(1, 1) = %v, want [20]", recs)
	}
}

func TestEngine_Recommend_ExcludesInteracted(t *testing.T) {
	e := newTestEngine(t)
	interactions := neighborScenario()
	if err := e.Train(context.Background(), interactions); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	m := BuildMatrix(interactions)

	for _, userID := range m.Users {
		for _, k := range []int{1, 3, 50} {
			recs, err := e.Recommend(userID, k)
			if err != nil {
				t.Fatalf("Recommend(%d, %d) error = %v", userID, k, err)
			}
			row, _ := m.UserIndex(userID)
			for _, itemID := range recs {
				col, _ := m.ItemIndex(itemID)
				if m.Weights[row][col] > 0 {
					t.Errorf("Recommend(%d, %d) returned already-interacted item %d", userID, k, itemID)
				}
			}
		}
	}
}

func TestEngine_Recommend_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Train(context.Background(), neighborScenario()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	first, err := e.Recommend(2, 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := e.Recommend(2, 5)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("Recommend() run %d = %v, want %v", i, got, first)
		}
	}
}

func TestEngine_Train_BumpsVersion(t *testing.T) {
	e := newTestEngine(t)

	if st := e.Status(); st.Trained {
		t.Error("Status().Trained = true before training")
	}

	if err := e.Train(context.Background(), neighborScenario()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	st := e.Status()
	if !st.Trained || st.ModelVersion != 1 {
		t.Errorf("Status() = %+v, want trained version 1", st)
	}
	if st.UserCount != 3 || st.ItemCount != 3 || st.InteractionCount != 4 {
		t.Errorf("Status() counts = %+v, want 3 users, 3 items, 4 interactions", st)
	}

	if err := e.Train(context.Background(), neighborScenario()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if st := e.Status(); st.ModelVersion != 2 {
		t.Errorf("ModelVersion = %d after retrain, want 2", st.ModelVersion)
	}
}

func TestEngine_RecommendForSessionWeighted(t *testing.T) {
	// Items 10 and 20 have identical interaction columns, so their
	// item-similarity rows are equal and the session weights cancel in the
	// normalization ratio.
	interactions := []Interaction{
		{UserID: 1, ItemID: 10, Type: InteractionView},
		{UserID: 1, ItemID: 20, Type: InteractionView},
		{UserID: 2, ItemID: 10, Type: InteractionView},
		{UserID: 2, ItemID: 20, Type: InteractionView},
		{UserID: 2, ItemID: 30, Type: InteractionView},
	}

	e := newTestEngine(t)
	if err := e.Train(context.Background(), interactions); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	recs := e.RecommendForSessionWeighted(map[int]float64{10: 1.0, 20: 2.0}, 3)

	for _, id := range recs {
		if id == 10 || id == 20 {
			t.Errorf("session result %v contains input item %d", recs, id)
		}
	}
	if !reflect.DeepEqual(recs, []int{30}) {
		t.Errorf("RecommendForSessionWeighted() = %v, want [30]", recs)
	}

	// Weighted and unit-weight variants agree here because the rows are
	// identical.
	unit := e.RecommendForSession([]int{10, 20}, 3)
	if !reflect.DeepEqual(unit, recs) {
		t.Errorf("RecommendForSession() = %v, want %v", unit, recs)
	}
}

func TestEngine_RecommendForSessionWeighted_Fallback(t *testing.T) {
	e := newTestEngine(t)

	// Untrained: nothing to fall back to.
	if recs := e.RecommendForSessionWeighted(map[int]float64{1: 1}, 3); len(recs) != 0 {
		t.Errorf("untrained session recs = %v, want empty", recs)
	}

	if err := e.Train(context.Background(), neighborScenario()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	tests := []struct {
		name    string
		weights map[int]float64
		topK    int
		want    []int
	}{
		{"no weights falls back to canonical order", nil, 2, []int{10, 20}},
		{"unknown items fall back to canonical order", map[int]float64{777: 1}, 2, []int{10, 20}},
		{"zero weights fall back to canonical order", map[int]float64{10: 0}, 2, []int{10, 20}},
		{"top_k beyond item count is clamped", nil, 50, []int{10, 20, 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.RecommendForSessionWeighted(tt.weights, tt.topK)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RecommendForSessionWeighted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngine_TopUsers(t *testing.T) {
	e := newTestEngine(t)

	if got := e.TopUsers(5); got != nil {
		t.Errorf("TopUsers() before training = %v, want nil", got)
	}

	if err := e.Train(context.Background(), neighborScenario()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	// User 2 has two interactions; users 1 and 3 tie at one and order by id.
	want := []int{2, 1, 3}
	if got := e.TopUsers(10); !reflect.DeepEqual(got, want) {
		t.Errorf("TopUsers(10) = %v, want %v", got, want)
	}
	if got := e.TopUsers(1); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("TopUsers(1) = %v, want [2]", got)
	}
}
