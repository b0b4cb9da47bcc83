// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/commendatus/internal/recommend"
)

func writeEvents(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.csv")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write events file: %v", err)
	}
	return path
}

func newTestLoader(t *testing.T, path string) *Loader {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Path = path
	l, err := NewLoader(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	return l
}

func TestLoader_LoadFull(t *testing.T) {
	path := writeEvents(t, `timestamp,visitorid,event,itemid,transactionid
1433221332117,257597,view,355908,
1433224214164,992329,addtocart,248676,
1433223236124,111016,transaction,318965,17100
`)

	interactions, stats, err := newTestLoader(t, path).LoadFull(context.Background())
	if err != nil {
		t.Fatalf("LoadFull() error = %v", err)
	}
	if stats.RowsRead != 3 || stats.Interactions != 3 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want 3 rows, 3 interactions", stats)
	}

	first := interactions[0]
	if first.UserID != 257597 || first.ItemID != 355908 || first.Type != recommend.InteractionView {
		t.Errorf("interactions[0] = %+v", first)
	}
	if want := time.UnixMilli(1433221332117); !first.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", first.Timestamp, want)
	}
	if interactions[1].Type != recommend.InteractionAddToCart {
		t.Errorf("interactions[1].Type = %v, want addtocart", interactions[1].Type)
	}
	if interactions[2].Type != recommend.InteractionTransaction {
		t.Errorf("interactions[2].Type = %v, want transaction", interactions[2].Type)
	}
}

func TestLoader_SkipsBadRows(t *testing.T) {
	path := writeEvents(t, `timestamp,visitorid,event,itemid
1000,1,view,10
1000,notanumber,view,10
1000,2,unknown_event,10
1000,3,view,notanumber
1000,4,addtocart,40
`)

	interactions, stats, err := newTestLoader(t, path).LoadFull(context.Background())
	if err != nil {
		t.Fatalf("LoadFull() error = %v", err)
	}
	if len(interactions) != 2 {
		t.Fatalf("len(interactions) = %d, want 2", len(interactions))
	}
	if stats.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", stats.Skipped)
	}
	if interactions[0].UserID != 1 || interactions[1].UserID != 4 {
		t.Errorf("kept users %d, %d, want 1, 4", interactions[0].UserID, interactions[1].UserID)
	}
}

func TestLoader_HeaderValidation(t *testing.T) {
	path := writeEvents(t, "timestamp,visitorid,itemid\n1000,1,10\n")

	if _, _, err := newTestLoader(t, path).LoadFull(context.Background()); err == nil {
		t.Error("LoadFull() with missing event column succeeded")
	}
}

func TestLoader_MissingFile(t *testing.T) {
	l := newTestLoader(t, filepath.Join(t.TempDir(), "absent.csv"))
	if _, _, err := l.LoadFull(context.Background()); err == nil {
		t.Error("LoadFull() on missing file succeeded")
	}
}

func TestLoader_LoadSample_RowCap(t *testing.T) {
	contents := "timestamp,visitorid,event,itemid\n"
	for i := 0; i < 20; i++ {
		contents += "1000,1,view,10\n"
	}
	path := writeEvents(t, contents)

	cfg := DefaultConfig()
	cfg.Path = path
	cfg.SampleRows = 5
	l, err := NewLoader(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	_, stats, err := l.LoadSample(context.Background())
	if err != nil {
		t.Fatalf("LoadSample() error = %v", err)
	}
	if stats.RowsRead != 5 {
		t.Errorf("RowsRead = %d, want 5", stats.RowsRead)
	}
}

func TestLoader_LoadSample_TopFilter(t *testing.T) {
	// User 1 and item 10 dominate; user 99 and item 99 appear once each
	// and must fall outside a top-1 filter.
	path := writeEvents(t, `timestamp,visitorid,event,itemid
1000,1,view,10
1000,1,view,10
1000,1,addtocart,10
1000,99,view,10
1000,1,view,99
`)

	cfg := DefaultConfig()
	cfg.Path = path
	cfg.SampleTopUsers = 1
	cfg.SampleTopItems = 1
	l, err := NewLoader(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	interactions, stats, err := l.LoadSample(context.Background())
	if err != nil {
		t.Fatalf("LoadSample() error = %v", err)
	}
	if len(interactions) != 3 {
		t.Fatalf("len(interactions) = %d, want 3: %+v", len(interactions), interactions)
	}
	for _, in := range interactions {
		if in.UserID != 1 || in.ItemID != 10 {
			t.Errorf("kept out-of-sample interaction %+v", in)
		}
	}
	if stats.Interactions != 3 {
		t.Errorf("stats.Interactions = %d, want 3", stats.Interactions)
	}
}

func TestLoader_CanceledContext(t *testing.T) {
	path := writeEvents(t, "timestamp,visitorid,event,itemid\n1000,1,view,10\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := newTestLoader(t, path).LoadFull(ctx); err == nil {
		t.Error("LoadFull() with canceled context succeeded")
	}
}

func TestDatasetConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty path", func(c *Config) { c.Path = "" }, true},
		{"zero sample rows", func(c *Config) { c.SampleRows = 0 }, true},
		{"zero top users", func(c *Config) { c.SampleTopUsers = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
