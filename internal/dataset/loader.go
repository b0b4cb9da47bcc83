// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

// Package dataset loads interaction data from e-commerce event exports
// and manages the switch between the sampled and full source.
//
// The expected file is a CSV with a header naming at least the
// visitorid, itemid and event columns (timestamp is optional but used
// for interaction recency). Events that do not map to a known
// interaction type, and rows with unparseable IDs, are skipped and
// counted rather than failing the load.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/commendatus/internal/recommend"
)

// Config contains dataset parameters.
type Config struct {
	// Path is the events CSV file.
	Path string `json:"path" koanf:"path"`

	// SampleRows caps how many rows the sample loader reads. Default: 50000.
	SampleRows int `json:"sample_rows" koanf:"sample_rows"`

	// SampleTopUsers keeps only the most active users in sample mode.
	// Default: 100.
	SampleTopUsers int `json:"sample_top_users" koanf:"sample_top_users"`

	// SampleTopItems keeps only the most interacted items in sample mode.
	// Default: 100.
	SampleTopItems int `json:"sample_top_items" koanf:"sample_top_items"`
}

// DefaultConfig returns dataset defaults.
func DefaultConfig() Config {
	return Config{
		Path:           "data/events.csv",
		SampleRows:     50000,
		SampleTopUsers: 100,
		SampleTopItems: 100,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.Path == "" {
		return errors.New("path is required")
	}
	if c.SampleRows <= 0 {
		return fmt.Errorf("sample_rows must be positive, got %d", c.SampleRows)
	}
	if c.SampleTopUsers <= 0 || c.SampleTopItems <= 0 {
		return fmt.Errorf("sample_top_users and sample_top_items must be positive, got %d and %d",
			c.SampleTopUsers, c.SampleTopItems)
	}
	return nil
}

// LoadStats reports what a load kept and skipped.
type LoadStats struct {
	RowsRead     int `json:"rows_read"`
	Interactions int `json:"interactions"`
	Skipped      int `json:"skipped"`
}

// Loader reads interactions from the configured CSV file.
type Loader struct {
	config Config
	logger zerolog.Logger
}

// NewLoader creates a dataset loader.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLoader(cfg Config, logger zerolog.Logger) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Loader{
		config: cfg,
		logger: logger.With().Str("component", "dataset").Logger(),
	}, nil
}

// LoadFull reads every interaction in the file.
func (l *Loader) LoadFull(ctx context.Context) ([]recommend.Interaction, LoadStats, error) {
	return l.load(ctx, 0)
}

// LoadSample reads at most SampleRows rows and keeps only interactions
// between the most active users and the most interacted items, giving a
// small dense matrix for fast iteration.
func (l *Loader) LoadSample(ctx context.Context) ([]recommend.Interaction, LoadStats, error) {
	interactions, stats, err := l.load(ctx, l.config.SampleRows)
	if err != nil {
		return nil, stats, err
	}

	kept := filterTop(interactions, l.config.SampleTopUsers, l.config.SampleTopItems)
	stats.Skipped += stats.Interactions - len(kept)
	stats.Interactions = len(kept)
	return kept, stats, nil
}

// load reads up to maxRows data rows (0 for unlimited).
func (l *Loader) load(ctx context.Context, maxRows int) ([]recommend.Interaction, LoadStats, error) {
	var stats LoadStats

	f, err := os.Open(l.config.Path)
	if err != nil {
		return nil, stats, fmt.Errorf("open dataset: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			l.logger.Warn().Err(closeErr).Msg("error closing dataset file")
		}
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, stats, err
	}

	start := time.Now()
	var interactions []recommend.Interaction
	for {
		if maxRows > 0 && stats.RowsRead >= maxRows {
			break
		}
		// Context checked per row so a dataset switch can be canceled
		// mid-file.
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stats.RowsRead++
			stats.Skipped++
			continue
		}
		stats.RowsRead++

		in, ok := parseRow(row, cols)
		if !ok {
			stats.Skipped++
			continue
		}
		interactions = append(interactions, in)
	}
	stats.Interactions = len(interactions)

	l.logger.Info().
		Str("path", l.config.Path).
		Int("rows", stats.RowsRead).
		Int("interactions", stats.Interactions).
		Int("skipped", stats.Skipped).
		Dur("duration", time.Since(start)).
		Msg("dataset loaded")

	return interactions, stats, nil
}

// columnMap holds the indices of the columns we consume.
type columnMap struct {
	visitor   int
	item      int
	event     int
	timestamp int
}

func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{visitor: -1, item: -1, event: -1, timestamp: -1}
	for i, name := range header {
		switch name {
		case "visitorid":
			cols.visitor = i
		case "itemid":
			cols.item = i
		case "event":
			cols.event = i
		case "timestamp":
			cols.timestamp = i
		}
	}
	if cols.visitor < 0 || cols.item < 0 || cols.event < 0 {
		return cols, fmt.Errorf("header %v missing visitorid, itemid or event", header)
	}
	return cols, nil
}

func parseRow(row []string, cols columnMap) (recommend.Interaction, bool) {
	max := cols.visitor
	if cols.item > max {
		max = cols.item
	}
	if cols.event > max {
		max = cols.event
	}
	if len(row) <= max {
		return recommend.Interaction{}, false
	}

	userID, err := strconv.Atoi(row[cols.visitor])
	if err != nil {
		return recommend.Interaction{}, false
	}
	itemID, err := strconv.Atoi(row[cols.item])
	if err != nil {
		return recommend.Interaction{}, false
	}
	typ, ok := recommend.ParseInteractionType(row[cols.event])
	if !ok {
		return recommend.Interaction{}, false
	}

	in := recommend.Interaction{UserID: userID, ItemID: itemID, Type: typ}

	// Timestamps are milliseconds since the Unix epoch; a missing or bad
	// value leaves the zero time, which the matrix builder ignores.
	if cols.timestamp >= 0 && len(row) > cols.timestamp {
		if ms, err := strconv.ParseInt(row[cols.timestamp], 10, 64); err == nil && ms > 0 {
			in.Timestamp = time.UnixMilli(ms)
		}
	}

	return in, true
}

// filterTop keeps interactions between the topUsers most active users and
// the topItems most interacted items. Ties order by ascending ID so the
// sample is stable across runs.
func filterTop(interactions []recommend.Interaction, topUsers, topItems int) []recommend.Interaction {
	userCounts := make(map[int]int)
	itemCounts := make(map[int]int)
	for _, in := range interactions {
		userCounts[in.UserID]++
		itemCounts[in.ItemID]++
	}

	keepUsers := topIDs(userCounts, topUsers)
	keepItems := topIDs(itemCounts, topItems)

	kept := make([]recommend.Interaction, 0, len(interactions))
	for _, in := range interactions {
		if keepUsers[in.UserID] && keepItems[in.ItemID] {
			kept = append(kept, in)
		}
	}
	return kept
}

// topIDs returns the n IDs with the highest counts as a membership set.
func topIDs(counts map[int]int, n int) map[int]bool {
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		if counts[ids[a]] != counts[ids[b]] {
			return counts[ids[a]] > counts[ids[b]]
		}
		return ids[a] < ids[b]
	})
	if n > len(ids) {
		n = len(ids)
	}
	keep := make(map[int]bool, n)
	for _, id := range ids[:n] {
		keep[id] = true
	}
	return keep
}
