// Package remote provides clients for the remote favorite authority.
package remote

import (
	"context"
	"errors"

	"github.com/recipeai/core/internal/models"
)

// Sentinel outcomes for the sync-relevant calls. Both indicate that the
// desired end state already holds on the remote side; the sync worker
// treats them as confirmation, not failure.
var (
	// ErrAlreadyFavorite is returned by AddFavorite when the remote
	// authority already lists the recipe (HTTP 409).
	ErrAlreadyFavorite = errors.New("recipe is already a favorite")

	// ErrFavoriteNotFound is returned by RemoveFavorite when the remote
	// authority does not list the recipe (HTTP 404).
	ErrFavoriteNotFound = errors.New("favorite not found")
)

// FavoriteService is the remote favorite authority. The add call takes
// the full content payload: a favorite may not otherwise exist remotely,
// e.g. an AI-generated recipe that never appears in the catalog.
type FavoriteService interface {
	AddFavorite(ctx context.Context, credential string, rec models.Recipe) error
	RemoveFavorite(ctx context.Context, credential string, id int64) error
	ListFavorites(ctx context.Context, credential string) ([]models.Recipe, error)
	CheckFavorite(ctx context.Context, credential string, id int64) (bool, error)
}
