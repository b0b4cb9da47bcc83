// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package recommend

import (
	"errors"
	"time"
)

// ErrUntrained is returned by recommendation calls made before a non-empty
// model has been trained. It is recoverable at the process level by
// retraining; callers must check for it before inspecting results.
var ErrUntrained = errors.New("recommend: model not trained")

// InteractionType classifies user-item interactions for implicit feedback.
type InteractionType int

const (
	// InteractionView indicates the user viewed an item.
	InteractionView InteractionType = iota
	// InteractionAddToCart indicates the user added an item to their cart.
	InteractionAddToCart
	// InteractionTransaction indicates the user purchased an item.
	InteractionTransaction
)

// String returns a human-readable name for the interaction type.
func (t InteractionType) String() string {
	switch t {
	case InteractionView:
		return "view"
	case InteractionAddToCart:
		return "addtocart"
	case InteractionTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

// Weight returns the fixed signal weight for this interaction type.
// Weights for the same (user, item) pair are summed during matrix
// construction.
func (t InteractionType) Weight() float64 {
	switch t {
	case InteractionView:
		return 1
	case InteractionAddToCart:
		return 3
	case InteractionTransaction:
		return 5
	default:
		return 0
	}
}

// ParseInteractionType maps an event name to its interaction type.
// Returns false for event names the engine does not recognize.
func ParseInteractionType(event string) (InteractionType, bool) {
	switch event {
	case "view":
		return InteractionView, true
	case "addtocart":
		return InteractionAddToCart, true
	case "transaction":
		return InteractionTransaction, true
	default:
		return 0, false
	}
}

// Interaction represents a single user-item interaction event.
type Interaction struct {
	// UserID is the internal user identifier.
	UserID int `json:"user_id"`

	// ItemID is the internal item identifier.
	ItemID int `json:"item_id"`

	// Type classifies the interaction.
	Type InteractionType `json:"type"`

	// Timestamp is when the interaction occurred. Optional; the engine
	// does not consume it, but loaders carry it through for evaluation.
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Weight returns the signal weight contributed by this interaction.
func (i Interaction) Weight() float64 {
	return i.Type.Weight()
}

// Status describes the current trained state of the engine.
type Status struct {
	// Trained reports whether a non-empty model is published.
	Trained bool `json:"trained"`

	// ModelVersion increments on every successful training run.
	ModelVersion int `json:"model_version"`

	// TrainedAt is when the current model was published.
	TrainedAt time.Time `json:"trained_at,omitempty"`

	// UserCount is the number of distinct users in the current matrix.
	UserCount int `json:"user_count"`

	// ItemCount is the number of distinct items in the current matrix.
	ItemCount int `json:"item_count"`

	// InteractionCount is the number of interactions the model was built from.
	InteractionCount int `json:"interaction_count"`
}
