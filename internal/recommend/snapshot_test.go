// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package recommend

import (
	"context"
	"reflect"
	"testing"
)

func TestEngine_Snapshot_Untrained(t *testing.T) {
	e := newTestEngine(t)
	if snap := e.Snapshot(); snap != nil {
		t.Errorf("Snapshot() = %+v, want nil before training", snap)
	}
}

func TestEngine_SnapshotRestore_RoundTrip(t *testing.T) {
	trained := newTestEngine(t)
	if err := trained.Train(context.Background(), neighborScenario()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	snap := trained.Snapshot()
	if snap == nil {
		t.Fatal("Snapshot() = nil after training")
	}

	restored := newTestEngine(t)
	if err := restored.Restore(snap); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	wantStatus := trained.Status()
	if got := restored.Status(); !reflect.DeepEqual(got, wantStatus) {
		t.Errorf("Status() = %+v, want %+v", got, wantStatus)
	}

	for _, user := range []int{1, 2, 3} {
		want, err := trained.Recommend(user, 3)
		if err != nil {
			t.Fatalf("trained Recommend(%d) error = %v", user, err)
		}
		got, err := restored.Recommend(user, 3)
		if err != nil {
			t.Fatalf("restored Recommend(%d) error = %v", user, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("restored Recommend(%d) = %v, want %v", user, got, want)
		}
	}

	if got, want := restored.TopUsers(3), trained.TopUsers(3); !reflect.DeepEqual(got, want) {
		t.Errorf("restored TopUsers = %v, want %v", got, want)
	}
}

func TestEngine_Restore_TrainContinuesVersioning(t *testing.T) {
	trained := newTestEngine(t)
	if err := trained.Train(context.Background(), neighborScenario()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	snap := trained.Snapshot()

	restored := newTestEngine(t)
	if err := restored.Restore(snap); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if err := restored.Train(context.Background(), neighborScenario()); err != nil {
		t.Fatalf("Train() after restore error = %v", err)
	}
	if got := restored.Status().ModelVersion; got != snap.Version+1 {
		t.Errorf("ModelVersion = %d, want %d", got, snap.Version+1)
	}
}

func TestEngine_Restore_Invalid(t *testing.T) {
	trained := newTestEngine(t)
	if err := trained.Train(context.Background(), neighborScenario()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ModelSnapshot)
	}{
		{"no users", func(s *ModelSnapshot) { s.Users = nil }},
		{"truncated weights", func(s *ModelSnapshot) { s.Weights = s.Weights[:1] }},
		{"ragged weight row", func(s *ModelSnapshot) {
			s.Weights = append([][]float64{}, s.Weights...)
			s.Weights[0] = s.Weights[0][:1]
		}},
		{"wrong user sim size", func(s *ModelSnapshot) { s.UserSim = s.UserSim[:2] }},
		{"ragged item sim row", func(s *ModelSnapshot) {
			s.ItemSim = append([][]float64{}, s.ItemSim...)
			s.ItemSim[1] = nil
		}},
		{"zero version", func(s *ModelSnapshot) { s.Version = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := trained.Snapshot()
			tt.mutate(snap)

			e := newTestEngine(t)
			if err := e.Restore(snap); err == nil {
				t.Error("Restore() succeeded, want error")
			}
			if snap := e.Snapshot(); snap != nil {
				t.Error("failed Restore published a model")
			}
		})
	}

	e := newTestEngine(t)
	if err := e.Restore(nil); err == nil {
		t.Error("Restore(nil) succeeded, want error")
	}
}
