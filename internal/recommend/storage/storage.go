// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

// Package storage persists trained recommendation models across restarts.
//
// The model snapshot is gob-encoded, gzip-compressed, and stored in a
// single file together with its metadata and a SHA-256 checksum of the
// uncompressed data. A checksum mismatch or undecodable file fails the
// load; callers fall back to training from the dataset.
package storage

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tomtom215/commendatus/internal/recommend"
)

// Metadata describes a stored model.
type Metadata struct {
	// Version is the model version at save time.
	Version int `json:"version"`

	// TrainedAt is when the model was trained.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the model was written.
	SavedAt time.Time `json:"saved_at"`

	// UserCount is the number of matrix rows.
	UserCount int `json:"user_count"`

	// ItemCount is the number of matrix columns.
	ItemCount int `json:"item_count"`

	// InteractionCount is the training data size.
	InteractionCount int `json:"interaction_count"`

	// Checksum is the SHA-256 of the uncompressed snapshot encoding.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed snapshot size.
	SizeBytes int64 `json:"size_bytes"`
}

// storedFile is the on-disk format.
type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// Store persists one model snapshot at a fixed path.
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore creates a model store, ensuring the parent directory exists.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("storage: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}
	return &Store{path: path}, nil
}

// Path returns the store's file path.
func (s *Store) Path() string {
	return s.path
}

// Save writes the snapshot, replacing any previously stored model.
func (s *Store) Save(snap *recommend.ModelSnapshot) (Metadata, error) {
	if snap == nil {
		return Metadata{}, fmt.Errorf("storage: nil snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return Metadata{}, fmt.Errorf("encode model: %w", err)
	}
	raw := buf.Bytes()

	hash := sha256.Sum256(raw)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return Metadata{}, fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return Metadata{}, fmt.Errorf("finalize compression: %w", err)
	}

	meta := Metadata{
		Version:          snap.Version,
		TrainedAt:        snap.TrainedAt,
		SavedAt:          time.Now(),
		UserCount:        len(snap.Users),
		ItemCount:        len(snap.Items),
		InteractionCount: snap.InteractionCount,
		Checksum:         hex.EncodeToString(hash[:]),
		SizeBytes:        int64(compressed.Len()),
	}

	f, err := os.Create(s.path) //nolint:gosec // path comes from configuration
	if err != nil {
		return Metadata{}, fmt.Errorf("create model file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck

	if err := gob.NewEncoder(f).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		return Metadata{}, fmt.Errorf("write model file: %w", err)
	}
	return meta, nil
}

// Load reads the stored snapshot, verifying its checksum.
func (s *Store) Load() (*recommend.ModelSnapshot, Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, Metadata{}, fmt.Errorf("decode model file: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("decompress model: %w", err)
	}
	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("decompress model: %w", err)
	}
	if err := gzr.Close(); err != nil {
		return nil, Metadata{}, fmt.Errorf("decompress model: %w", err)
	}

	hash := sha256.Sum256(raw)
	if got := hex.EncodeToString(hash[:]); got != sf.Metadata.Checksum {
		return nil, Metadata{}, fmt.Errorf("model checksum mismatch: stored %s, computed %s", sf.Metadata.Checksum, got)
	}

	snap := &recommend.ModelSnapshot{}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(snap); err != nil {
		return nil, Metadata{}, fmt.Errorf("decode model snapshot: %w", err)
	}
	return snap, sf.Metadata, nil
}
