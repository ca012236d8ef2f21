// Package models provides data model definitions for the RecipeAI core.
package models

import (
	"encoding/json"
	"time"
)

// Recipe is the content payload of a recipe as the user sees it.
// The sync engine treats it as opaque except for Name, which is used
// in log messages.
type Recipe struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Instructions string   `json:"instructions"`
	CookingTime  int      `json:"cooking_time,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	Ingredients  []string `json:"ingredients,omitempty"`
}

// IsGenerated reports whether the recipe originated from the AI generator.
// Generated recipes carry negative ids and never exist in the positive-id
// catalog; the partition only matters for routing detail lookups.
func (r Recipe) IsGenerated() bool {
	return r.ID < 0
}

// RecipeRecord is the unit of storage and synchronization: a recipe
// plus its local favorite state and sync flag.
type RecipeRecord struct {
	Recipe

	// IsFavorite is the field being synchronized.
	IsFavorite bool

	// IsSynced is true iff the remote authority's favorite state for this
	// id is known to equal IsFavorite. A false value marks a pending local
	// intent; the set of unsynced records is the implicit outbox.
	IsSynced bool

	// CreatedAt is informational only (unix seconds).
	CreatedAt int64
}

// NewRecord wraps a recipe into a record with the given favorite state.
// Records created from a local toggle are dirty until a sync pass
// confirms them.
func NewRecord(recipe Recipe, favorite, synced bool) RecipeRecord {
	return RecipeRecord{
		Recipe:     recipe,
		IsFavorite: favorite,
		IsSynced:   synced,
		CreatedAt:  time.Now().Unix(),
	}
}

// EncodeIngredients serializes the ingredient list for storage.
func EncodeIngredients(ingredients []string) (string, error) {
	if len(ingredients) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(ingredients)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeIngredients deserializes a stored ingredient list.
func DecodeIngredients(data string) ([]string, error) {
	if data == "" {
		return nil, nil
	}
	var ingredients []string
	if err := json.Unmarshal([]byte(data), &ingredients); err != nil {
		return nil, err
	}
	return ingredients, nil
}
