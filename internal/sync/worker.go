// Package sync pushes pending local favorite intents to the remote
// authority and schedules the background passes that do so.
package sync

import (
	"context"
	"errors"

	"github.com/recipeai/core/internal/db"
	"github.com/recipeai/core/internal/logging"
	"github.com/recipeai/core/internal/models"
	"github.com/recipeai/core/internal/remote"
)

// PassResult is the terminal outcome of one sync pass.
type PassResult string

const (
	// PassSuccess means every dirty record was resolved: pushed and
	// confirmed, or confirmed idempotently.
	PassSuccess PassResult = "success"

	// PassRetryNeeded means at least one record is still dirty and the
	// pass should run again later with backoff.
	PassRetryNeeded PassResult = "retry_needed"
)

// CredentialProvider supplies the bearer token for remote calls. A
// missing token is a transient precondition failure, not a permanent
// one: the pass is retried, not abandoned.
type CredentialProvider interface {
	Token() (string, bool)
}

// Worker executes one push pass over the full current dirty set.
//
// A pass is a best-effort batch with per-item idempotency, not an
// all-or-nothing transaction: one unreachable record must not block the
// confirmation of its siblings.
type Worker struct {
	store   *db.Store
	service remote.FavoriteService
	creds   CredentialProvider
}

// NewWorker creates a sync worker.
func NewWorker(store *db.Store, service remote.FavoriteService, creds CredentialProvider) *Worker {
	return &Worker{store: store, service: service, creds: creds}
}

// RunPass pushes every unsynced record to the remote authority,
// sequentially. A non-nil error is a storage failure and is fatal to
// the pass; remote failures are absorbed into PassRetryNeeded.
func (w *Worker) RunPass(ctx context.Context) (PassResult, error) {
	log := logging.With("sync_worker")

	token, ok := w.creds.Token()
	if !ok {
		log.Debug("no credential available, pass deferred")
		return PassRetryNeeded, nil
	}

	dirty, err := w.store.AllUnsynced()
	if err != nil {
		return "", err
	}
	if len(dirty) == 0 {
		return PassSuccess, nil
	}

	log.Info("sync pass started", "dirty", len(dirty))

	remaining := 0
	for _, rec := range dirty {
		resolved, err := w.push(ctx, token, rec)
		if err != nil {
			return "", err
		}
		if !resolved {
			remaining++
		}
	}

	if remaining > 0 {
		log.Warn("sync pass incomplete", "remaining", remaining)
		return PassRetryNeeded, nil
	}
	log.Info("sync pass completed", "resolved", len(dirty))
	return PassSuccess, nil
}

// push resolves a single dirty record. It reports resolved=false on a
// transient remote failure (the record stays dirty) and returns an
// error only when the store itself fails.
func (w *Worker) push(ctx context.Context, token string, rec models.RecipeRecord) (bool, error) {
	log := logging.With("sync_worker")

	var callErr error
	if rec.IsFavorite {
		// The full content payload rides along: the favorite may not
		// otherwise exist remotely (e.g. a generated recipe).
		callErr = w.service.AddFavorite(ctx, token, rec.Recipe)
		if errors.Is(callErr, remote.ErrAlreadyFavorite) {
			callErr = nil
		}
	} else {
		callErr = w.service.RemoveFavorite(ctx, token, rec.ID)
		if errors.Is(callErr, remote.ErrFavoriteNotFound) {
			callErr = nil
		}
	}

	if callErr != nil {
		log.Warn("record left dirty",
			"id", rec.ID, "name", rec.Name, "favorite", rec.IsFavorite, "error", callErr)
		return false, nil
	}

	// Only ever moves is_synced false→true for the record this pass
	// personally resolved; is_favorite is never touched, so a toggle
	// that landed mid-pass is simply picked up by the next pass.
	if err := w.store.SetSynced(rec.ID, true); err != nil {
		return false, err
	}
	log.Debug("record synced", "id", rec.ID, "name", rec.Name, "favorite", rec.IsFavorite)
	return true, nil
}
