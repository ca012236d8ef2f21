// Package favorites provides unit tests for the favorites repository
// and reconciliation.
package favorites

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/recipeai/core/internal/apperr"
	"github.com/recipeai/core/internal/connectivity"
	"github.com/recipeai/core/internal/db"
	"github.com/recipeai/core/internal/models"
)

// fakeListService serves a scripted remote favorite list.
type fakeListService struct {
	favorites []models.Recipe
	listErr   error
	listCalls int
}

func (f *fakeListService) ListFavorites(context.Context, string) ([]models.Recipe, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.favorites, nil
}

func (f *fakeListService) AddFavorite(context.Context, string, models.Recipe) error {
	return nil
}

func (f *fakeListService) RemoveFavorite(context.Context, string, int64) error {
	return nil
}

func (f *fakeListService) CheckFavorite(context.Context, string, int64) (bool, error) {
	return false, nil
}

// fakeDispatcher counts sync requests.
type fakeDispatcher struct {
	requests atomic.Int32
}

func (f *fakeDispatcher) RequestSync() { f.requests.Add(1) }

type fakeCreds struct {
	token string
}

func (f fakeCreds) Token() (string, bool) {
	return f.token, f.token != ""
}

func recipe(id int64, name string) models.Recipe {
	return models.Recipe{ID: id, Name: name, Instructions: "Cook"}
}

type fixture struct {
	store      *db.Store
	service    *fakeListService
	probe      *connectivity.StaticProbe
	dispatcher *fakeDispatcher
	repo       *Repository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	database, err := db.OpenInMemory()
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	store := db.NewStore(database)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		store:      store,
		service:    &fakeListService{},
		probe:      &connectivity.StaticProbe{IsOnline: true},
		dispatcher: &fakeDispatcher{},
	}
	repo, err := NewRepository(store, f.service, fakeCreds{token: "tok"}, f.probe, f.dispatcher)
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}
	f.repo = repo
	return f
}

func TestToggleWritesPendingIntentAndRequestsSync(t *testing.T) {
	f := setup(t)

	fav, err := f.repo.ToggleFavorite(recipe(1, "Pasta"))
	if err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}
	if !fav {
		t.Error("Expected first toggle to favorite the recipe")
	}

	got, err := f.store.GetByID(1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.IsFavorite || got.IsSynced {
		t.Errorf("Expected dirty favorite, got %+v", got)
	}
	if f.dispatcher.requests.Load() != 1 {
		t.Errorf("Expected 1 sync request, got %d", f.dispatcher.requests.Load())
	}

	fav, err = f.repo.ToggleFavorite(recipe(1, "Pasta"))
	if err != nil {
		t.Fatalf("Second ToggleFavorite failed: %v", err)
	}
	if fav {
		t.Error("Expected second toggle to un-favorite the recipe")
	}
	if f.dispatcher.requests.Load() != 2 {
		t.Errorf("Expected 2 sync requests, got %d", f.dispatcher.requests.Load())
	}
}

func TestToggleWorksOffline(t *testing.T) {
	f := setup(t)
	f.probe.IsOnline = false

	if _, err := f.repo.ToggleFavorite(recipe(7, "Soup")); err != nil {
		t.Fatalf("Offline toggle failed: %v", err)
	}

	fav, err := f.repo.IsFavorite(7)
	if err != nil {
		t.Fatalf("IsFavorite failed: %v", err)
	}
	if !fav {
		t.Error("Expected offline toggle to be visible immediately")
	}
}

func TestIsFavoriteUnknownRecipe(t *testing.T) {
	f := setup(t)
	fav, err := f.repo.IsFavorite(999)
	if err != nil {
		t.Fatalf("IsFavorite failed: %v", err)
	}
	if fav {
		t.Error("Unknown recipe must not be a favorite")
	}
}

func TestStatesReflectToggles(t *testing.T) {
	f := setup(t)
	if _, err := f.repo.ToggleFavorite(recipe(1, "Pasta")); err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}
	if _, err := f.repo.ToggleFavorite(recipe(2, "Soup")); err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}
	if _, err := f.repo.ToggleFavorite(recipe(2, "Soup")); err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}

	states := f.repo.States()
	if !states[1] || states[2] {
		t.Errorf("Expected {1:true, 2:false}, got %v", states)
	}
}

func TestLoadMergesRemoteFavorites(t *testing.T) {
	f := setup(t)
	f.service.favorites = []models.Recipe{recipe(1, "Pasta"), recipe(2, "Soup")}

	got, err := f.repo.LoadFavorites(context.Background())
	if err != nil {
		t.Fatalf("LoadFavorites failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 favorites, got %d", len(got))
	}
	for _, rec := range got {
		if !rec.IsSynced || !rec.IsFavorite {
			t.Errorf("Expected merged record to be a settled favorite, got %+v", rec)
		}
	}
	if !f.repo.States()[1] || !f.repo.States()[2] {
		t.Errorf("Expected favorite-id map refreshed, got %v", f.repo.States())
	}
}

// An un-favorite made while offline must survive a reconciliation
// against a remote list that still contains the recipe.
func TestReconcileDoesNotResurrectPendingRemoval(t *testing.T) {
	f := setup(t)

	// Settled favorite, then un-favorited while offline.
	rec := models.NewRecord(recipe(1, "Pasta"), true, true)
	if err := f.store.Upsert(rec); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	f.probe.IsOnline = false
	if _, err := f.repo.ToggleFavorite(recipe(1, "Pasta")); err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}

	// Back online; the sync pass has not run yet, so the remote still
	// lists the recipe.
	f.probe.IsOnline = true
	f.service.favorites = []models.Recipe{recipe(1, "Pasta")}

	got, err := f.repo.LoadFavorites(context.Background())
	if err != nil {
		t.Fatalf("LoadFavorites failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Un-favorited recipe resurrected: %+v", got)
	}

	stored, err := f.store.GetByID(1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.IsFavorite || stored.IsSynced {
		t.Errorf("Expected pending removal intact, got %+v", stored)
	}
}

// A pending add is not clobbered either; the merge leaves the record
// dirty for the worker.
func TestReconcilePreservesPendingAdd(t *testing.T) {
	f := setup(t)

	if _, err := f.repo.ToggleFavorite(recipe(3, "Curry")); err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}
	f.service.favorites = nil // remote does not know about it yet

	got, err := f.repo.LoadFavorites(context.Background())
	if err != nil {
		t.Fatalf("LoadFavorites failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("Expected the pending favorite in the list, got %+v", got)
	}
	if got[0].IsSynced {
		t.Error("Pending add must stay dirty through reconciliation")
	}
}

// Settled favorites absent from the remote list were removed on another
// device and are demoted locally.
func TestReconcileDemotesRemotelyRemovedFavorites(t *testing.T) {
	f := setup(t)

	if err := f.store.Upsert(models.NewRecord(recipe(1, "Pasta"), true, true)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := f.store.Upsert(models.NewRecord(recipe(2, "Soup"), true, true)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	f.service.favorites = []models.Recipe{recipe(2, "Soup")}

	got, err := f.repo.LoadFavorites(context.Background())
	if err != nil {
		t.Fatalf("LoadFavorites failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("Expected only the remotely kept favorite, got %+v", got)
	}

	demoted, err := f.store.GetByID(1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if demoted.IsFavorite {
		t.Error("Expected remotely removed favorite demoted locally")
	}
	if f.repo.States()[1] {
		t.Error("Expected favorite-id map to drop the demoted recipe")
	}
}

func TestLoadOfflineServesCachedSnapshot(t *testing.T) {
	f := setup(t)
	if err := f.store.Upsert(models.NewRecord(recipe(1, "Pasta"), true, true)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	f.probe.IsOnline = false

	got, err := f.repo.LoadFavorites(context.Background())
	if err != nil {
		t.Fatalf("LoadFavorites failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("Expected cached favorite offline, got %+v", got)
	}
	if f.service.listCalls != 0 {
		t.Errorf("Expected no remote call offline, got %d", f.service.listCalls)
	}
}

func TestLoadOfflineWithEmptyCacheIsNoData(t *testing.T) {
	f := setup(t)
	f.probe.IsOnline = false

	_, err := f.repo.LoadFavorites(context.Background())
	if !apperr.Is(err, apperr.ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
}

// A successful reconcile of an empty remote list is the truth, not a
// degraded read: no error.
func TestLoadWithNoFavoritesAnywhereSucceeds(t *testing.T) {
	f := setup(t)
	f.service.favorites = nil

	got, err := f.repo.LoadFavorites(context.Background())
	if err != nil {
		t.Fatalf("LoadFavorites failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no favorites, got %+v", got)
	}
}

// Without a credential the remote list cannot be consulted; cached
// favorites are served silently, but an empty cache is a soft error,
// not an empty success.
func TestLoadWithoutCredential(t *testing.T) {
	f := setup(t)
	repo, err := NewRepository(f.store, f.service, fakeCreds{}, f.probe, f.dispatcher)
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}

	_, err = repo.LoadFavorites(context.Background())
	if !apperr.Is(err, apperr.ErrNoData) {
		t.Errorf("Expected ErrNoData with empty cache, got %v", err)
	}
	if f.service.listCalls != 0 {
		t.Errorf("Expected no remote call without credential, got %d", f.service.listCalls)
	}

	if err := f.store.Upsert(models.NewRecord(recipe(1, "Pasta"), true, true)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	got, err := repo.LoadFavorites(context.Background())
	if err != nil {
		t.Fatalf("LoadFavorites failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected cached favorite without credential, got %+v", got)
	}
}

func TestLoadFetchFailureWithEmptyCacheIsNoData(t *testing.T) {
	f := setup(t)
	f.service.listErr = errors.New("connection reset")

	_, err := f.repo.LoadFavorites(context.Background())
	if !apperr.Is(err, apperr.ErrNoData) {
		t.Errorf("Expected ErrNoData when the fetch fails over an empty cache, got %v", err)
	}
}

func TestLoadFetchFailureDegradesToCache(t *testing.T) {
	f := setup(t)
	if err := f.store.Upsert(models.NewRecord(recipe(1, "Pasta"), true, true)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	f.service.listErr = errors.New("connection reset")

	got, err := f.repo.LoadFavorites(context.Background())
	if err != nil {
		t.Fatalf("LoadFavorites failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected cached favorite on fetch failure, got %+v", got)
	}
}

func TestLoadOrdersNewestFirst(t *testing.T) {
	f := setup(t)
	older := models.NewRecord(recipe(1, "Pasta"), true, true)
	older.CreatedAt = time.Now().Add(-time.Hour).Unix()
	newer := models.NewRecord(recipe(2, "Soup"), true, true)
	if err := f.store.Upsert(older); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := f.store.Upsert(newer); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	f.probe.IsOnline = false

	got, err := f.repo.LoadFavorites(context.Background())
	if err != nil {
		t.Fatalf("LoadFavorites failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Errorf("Expected newest-first ordering, got %+v", got)
	}
}
