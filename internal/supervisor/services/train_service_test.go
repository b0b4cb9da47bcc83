// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/commendatus/internal/recommend"
)

type fakeLoader struct {
	interactions []recommend.Interaction
	err          error
	calls        int
}

func (f *fakeLoader) Load(context.Context) ([]recommend.Interaction, error) {
	f.calls++
	return f.interactions, f.err
}

type fakeTrainer struct {
	err     error
	calls   int
	version int
}

func (f *fakeTrainer) Train(_ context.Context, _ []recommend.Interaction) error {
	f.calls++
	if f.err == nil {
		f.version++
	}
	return f.err
}

func (f *fakeTrainer) Status() recommend.Status {
	return recommend.Status{Trained: f.version > 0, ModelVersion: f.version}
}

type fakeCache struct {
	clears int
}

func (f *fakeCache) Clear() { f.clears++ }

func TestTrainService_RunOnce(t *testing.T) {
	loader := &fakeLoader{interactions: []recommend.Interaction{{UserID: 1, ItemID: 10}}}
	trainer := &fakeTrainer{}
	cache := &fakeCache{}
	svc := NewTrainService(loader, trainer, cache, time.Hour, zerolog.Nop())

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if loader.calls != 1 || trainer.calls != 1 || cache.clears != 1 {
		t.Errorf("calls = loader %d, trainer %d, cache %d; want 1 each",
			loader.calls, trainer.calls, cache.clears)
	}
}

func TestTrainService_RunOnce_LoadFailure(t *testing.T) {
	loader := &fakeLoader{err: errors.New("read failed")}
	trainer := &fakeTrainer{}
	cache := &fakeCache{}
	svc := NewTrainService(loader, trainer, cache, time.Hour, zerolog.Nop())

	if err := svc.RunOnce(context.Background()); err == nil {
		t.Fatal("RunOnce() error = nil, want load error")
	}
	if trainer.calls != 0 {
		t.Errorf("trainer called %d times after load failure", trainer.calls)
	}
	if cache.clears != 0 {
		t.Errorf("cache cleared %d times after load failure", cache.clears)
	}
}

func TestTrainService_RunOnce_TrainFailureKeepsCache(t *testing.T) {
	loader := &fakeLoader{}
	trainer := &fakeTrainer{err: errors.New("training failed")}
	cache := &fakeCache{}
	svc := NewTrainService(loader, trainer, cache, time.Hour, zerolog.Nop())

	if err := svc.RunOnce(context.Background()); err == nil {
		t.Fatal("RunOnce() error = nil, want training error")
	}
	if cache.clears != 0 {
		t.Errorf("cache cleared %d times after training failure", cache.clears)
	}
}

func TestTrainService_Serve_Ticks(t *testing.T) {
	loader := &fakeLoader{}
	trainer := &fakeTrainer{}
	cache := &fakeCache{}
	svc := NewTrainService(loader, trainer, cache, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve() error = %v, want deadline exceeded", err)
	}
	if trainer.calls == 0 {
		t.Error("no training cycles ran")
	}
}

func TestTrainService_Serve_DisabledWaitsForShutdown(t *testing.T) {
	svc := NewTrainService(&fakeLoader{}, &fakeTrainer{}, &fakeCache{}, 0, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
