// Package favorites is the foreground surface of the favorite engine:
// instant local toggles, local-first reads, and reconciliation of the
// remote favorite list into the record store.
package favorites

import (
	"database/sql"
	stdsync "sync"

	"github.com/recipeai/core/internal/connectivity"
	"github.com/recipeai/core/internal/db"
	"github.com/recipeai/core/internal/logging"
	"github.com/recipeai/core/internal/models"
	"github.com/recipeai/core/internal/remote"
	"github.com/recipeai/core/internal/sync"
)

// SyncRequester schedules a background sync pass. Implemented by the
// sync dispatcher.
type SyncRequester interface {
	RequestSync()
}

// Repository owns favorite state from the user's point of view. A
// toggle always succeeds instantly against the local store and is
// confirmed remotely later; only LoadFavorites ever reports a soft
// error, and only when the remote list is unavailable and the cache
// holds nothing to show in its place.
type Repository struct {
	store      *db.Store
	service    remote.FavoriteService
	creds      sync.CredentialProvider
	probe      connectivity.Probe
	dispatcher SyncRequester

	statesMu stdsync.RWMutex
	states   map[int64]bool
}

// NewRepository creates the favorites repository and primes the
// favorite-id map from the store.
func NewRepository(store *db.Store, service remote.FavoriteService, creds sync.CredentialProvider,
	probe connectivity.Probe, dispatcher SyncRequester) (*Repository, error) {

	r := &Repository{
		store:      store,
		service:    service,
		creds:      creds,
		probe:      probe,
		dispatcher: dispatcher,
	}
	if err := r.refreshStates(); err != nil {
		return nil, err
	}
	return r, nil
}

// ToggleFavorite flips the favorite state of a recipe. The new state is
// written locally as a pending intent and a background sync pass is
// requested; the call never waits on the network. Returns the new
// favorite state.
func (r *Repository) ToggleFavorite(recipe models.Recipe) (bool, error) {
	log := logging.With("favorites")

	// The stored row, not the in-memory map, is the source of truth for
	// the current state.
	newState := true
	rec := models.NewRecord(recipe, true, false)
	if existing, err := r.store.GetByID(recipe.ID); err == nil {
		newState = !existing.IsFavorite
		rec.IsFavorite = newState
		rec.CreatedAt = existing.CreatedAt
	} else if err != sql.ErrNoRows {
		return false, err
	}

	if err := r.store.Upsert(rec); err != nil {
		return false, err
	}

	r.statesMu.Lock()
	r.states[recipe.ID] = newState
	r.statesMu.Unlock()

	log.Info("favorite toggled", "id", recipe.ID, "name", recipe.Name, "favorite", newState)

	r.dispatcher.RequestSync()
	return newState, nil
}

// IsFavorite reports the local favorite state of a recipe. Purely
// local: the pending intent, if any, is the answer the user expects.
func (r *Repository) IsFavorite(id int64) (bool, error) {
	rec, err := r.store.GetByID(id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.IsFavorite, nil
}

// States returns a copy of the current favorite-id map.
func (r *Repository) States() map[int64]bool {
	r.statesMu.RLock()
	defer r.statesMu.RUnlock()
	states := make(map[int64]bool, len(r.states))
	for id, fav := range r.states {
		states[id] = fav
	}
	return states
}

// refreshStates recomputes the favorite-id map from the store.
func (r *Repository) refreshStates() error {
	ids, err := r.store.FavoriteIDs()
	if err != nil {
		return err
	}
	r.statesMu.Lock()
	r.states = ids
	r.statesMu.Unlock()
	return nil
}
