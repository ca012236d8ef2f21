package favorites

import (
	"context"
	"database/sql"

	"github.com/recipeai/core/internal/apperr"
	"github.com/recipeai/core/internal/logging"
	"github.com/recipeai/core/internal/models"
)

// LoadFavorites returns the favorite list, newest first. When signed in
// and online it first reconciles the remote list into the store;
// otherwise, or when the fetch fails, the cached snapshot is served
// as-is. Serving the cache is silent degradation, not an error, with
// one exception: if the remote list could not be consulted and the
// cache is empty there is nothing truthful to show, and that surfaces
// as an ErrNoData-coded error rather than an empty success.
//
// Reconciliation never overwrites a pending local intent: a record with
// is_synced=false holds the user's latest word and wins over whatever
// the remote list says about it.
func (r *Repository) LoadFavorites(ctx context.Context) ([]models.RecipeRecord, error) {
	log := logging.With("favorites")

	online := r.probe.Online()
	token, haveToken := r.creds.Token()

	reconciled := false
	switch {
	case !online:
		log.Debug("offline, serving cached favorites")
	case !haveToken:
		log.Debug("not signed in, serving cached favorites")
	default:
		remoteList, err := r.service.ListFavorites(ctx, token)
		if err != nil {
			log.Warn("favorite fetch failed, serving cached snapshot", "error", err)
		} else {
			if err := r.reconcile(remoteList); err != nil {
				return nil, err
			}
			reconciled = true
		}
	}

	cached, err := r.store.Favorites()
	if err != nil {
		return nil, err
	}
	if len(cached) == 0 && !reconciled {
		return nil, apperr.New(apperr.ErrNoData, "no cached favorites and remote list unavailable")
	}
	return cached, nil
}

// reconcile merges the remote favorite list into the store and refreshes
// the favorite-id map.
func (r *Repository) reconcile(remoteList []models.Recipe) error {
	log := logging.With("favorites")

	remoteIDs := make(map[int64]bool, len(remoteList))
	for _, recipe := range remoteList {
		remoteIDs[recipe.ID] = true

		local, err := r.store.GetByID(recipe.ID)
		if err == sql.ErrNoRows {
			// Favorited on another device, or confirmed before this
			// install cached it.
			if err := r.store.Upsert(models.NewRecord(recipe, true, true)); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		if !local.IsSynced {
			// Pending intent wins. If the user un-favorited while
			// offline, adopting the remote row here would resurrect it.
			log.Debug("pending intent preserved over remote state",
				"id", recipe.ID, "name", recipe.Name, "favorite", local.IsFavorite)
			continue
		}

		rec := models.NewRecord(recipe, true, true)
		rec.CreatedAt = local.CreatedAt
		if err := r.store.Upsert(rec); err != nil {
			return err
		}
	}

	// Settled favorites the remote no longer lists were removed
	// elsewhere; demote them. Dirty records are already excluded.
	locals, err := r.store.Favorites()
	if err != nil {
		return err
	}
	for _, local := range locals {
		if !local.IsSynced || remoteIDs[local.ID] {
			continue
		}
		log.Debug("favorite removed remotely, demoting", "id", local.ID, "name", local.Name)
		if err := r.store.SetFavorite(local.ID, false); err != nil {
			return err
		}
	}

	log.Info("favorites reconciled", "remote", len(remoteList))
	return r.refreshStates()
}
