// Package db provides unit tests for the recipe record store.
package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/recipeai/core/internal/models"
)

// setupTestStore creates an in-memory store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := OpenInMemory()
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := NewStore(database)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(id int64, favorite, synced bool) models.RecipeRecord {
	return models.RecipeRecord{
		Recipe: models.Recipe{
			ID:           id,
			Name:         "Lemon Pasta",
			Description:  "Quick weeknight pasta",
			Instructions: "Boil, toss, serve",
			CookingTime:  25,
			Difficulty:   "easy",
			Ingredients:  []string{"pasta", "lemon", "parmesan"},
		},
		IsFavorite: favorite,
		IsSynced:   synced,
		CreatedAt:  time.Now().Unix(),
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	database, err := OpenInMemory()
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer database.Close()

	if err := Migrate(database.DB); err != nil {
		t.Fatalf("Second migrate failed: %v", err)
	}

	version, err := CurrentVersion(database.DB)
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != migrations[len(migrations)-1].Version {
		t.Errorf("Expected version %d, got %d", migrations[len(migrations)-1].Version, version)
	}
}

func TestUpsertAndGetByID(t *testing.T) {
	store := setupTestStore(t)

	rec := testRecord(42, true, false)
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.GetByID(42)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Lemon Pasta" {
		t.Errorf("Expected name 'Lemon Pasta', got %q", got.Name)
	}
	if !got.IsFavorite || got.IsSynced {
		t.Errorf("Expected favorite=true synced=false, got favorite=%v synced=%v",
			got.IsFavorite, got.IsSynced)
	}
	if len(got.Ingredients) != 3 {
		t.Errorf("Expected 3 ingredients, got %d", len(got.Ingredients))
	}
}

func TestGetByIDMissing(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetByID(999)
	if err != sql.ErrNoRows {
		t.Errorf("Expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpsertReplacesByID(t *testing.T) {
	store := setupTestStore(t)

	rec := testRecord(7, false, true)
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	rec.IsFavorite = true
	rec.IsSynced = false
	rec.Name = "Renamed"
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	got, err := store.GetByID(7)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Renamed" || !got.IsFavorite || got.IsSynced {
		t.Errorf("Replace did not apply: %+v", got)
	}
}

func TestAllUnsyncedIsImplicitOutbox(t *testing.T) {
	store := setupTestStore(t)

	for _, rec := range []models.RecipeRecord{
		testRecord(1, true, true),
		testRecord(2, true, false),
		testRecord(3, false, false),
	} {
		if err := store.Upsert(rec); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	unsynced, err := store.AllUnsynced()
	if err != nil {
		t.Fatalf("AllUnsynced failed: %v", err)
	}
	if len(unsynced) != 2 {
		t.Fatalf("Expected 2 unsynced records, got %d", len(unsynced))
	}
	for _, rec := range unsynced {
		if rec.IsSynced {
			t.Errorf("Record %d reported as unsynced but is_synced=true", rec.ID)
		}
	}
}

func TestSetSyncedDoesNotTouchFavorite(t *testing.T) {
	store := setupTestStore(t)

	if err := store.Upsert(testRecord(5, true, false)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.SetSynced(5, true); err != nil {
		t.Fatalf("SetSynced failed: %v", err)
	}

	got, err := store.GetByID(5)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.IsSynced {
		t.Error("Expected is_synced=true after SetSynced")
	}
	if !got.IsFavorite {
		t.Error("SetSynced must not alter is_favorite")
	}
}

func TestSetFavoriteDoesNotTouchSynced(t *testing.T) {
	store := setupTestStore(t)

	if err := store.Upsert(testRecord(6, true, true)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.SetFavorite(6, false); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}

	got, err := store.GetByID(6)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.IsFavorite {
		t.Error("Expected is_favorite=false after SetFavorite")
	}
	if !got.IsSynced {
		t.Error("SetFavorite must not alter is_synced")
	}
}

func TestFavoritesOrderedNewestFirst(t *testing.T) {
	store := setupTestStore(t)

	older := testRecord(10, true, true)
	older.CreatedAt = 1000
	newer := testRecord(11, true, true)
	newer.CreatedAt = 2000
	notFav := testRecord(12, false, true)

	for _, rec := range []models.RecipeRecord{older, newer, notFav} {
		if err := store.Upsert(rec); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	favorites, err := store.Favorites()
	if err != nil {
		t.Fatalf("Favorites failed: %v", err)
	}
	if len(favorites) != 2 {
		t.Fatalf("Expected 2 favorites, got %d", len(favorites))
	}
	if favorites[0].ID != 11 || favorites[1].ID != 10 {
		t.Errorf("Expected order [11 10], got [%d %d]", favorites[0].ID, favorites[1].ID)
	}
}

func TestFavoriteIDs(t *testing.T) {
	store := setupTestStore(t)

	if err := store.Upsert(testRecord(1, true, true)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Upsert(testRecord(2, false, true)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	ids, err := store.FavoriteIDs()
	if err != nil {
		t.Fatalf("FavoriteIDs failed: %v", err)
	}
	if !ids[1] || ids[2] {
		t.Errorf("Expected map[1:true], got %v", ids)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	store := setupTestStore(t)

	ch, cancel := store.Subscribe()
	defer cancel()

	if err := store.Upsert(testRecord(42, true, false)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	select {
	case snapshot := <-ch:
		if len(snapshot) != 1 || snapshot[0].ID != 42 {
			t.Errorf("Unexpected snapshot: %+v", snapshot)
		}
	case <-time.After(time.Second):
		t.Fatal("No snapshot received after upsert")
	}

	// A slow consumer sees only the latest snapshot.
	if err := store.Upsert(testRecord(43, true, false)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.SetFavorite(42, false); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}

	select {
	case snapshot := <-ch:
		if len(snapshot) != 1 || snapshot[0].ID != 43 {
			t.Errorf("Expected coalesced snapshot [43], got %+v", snapshot)
		}
	case <-time.After(time.Second):
		t.Fatal("No snapshot received after mutations")
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	store := setupTestStore(t)

	ch, cancel := store.Subscribe()
	cancel()

	if _, open := <-ch; open {
		t.Error("Expected channel to be closed after cancel")
	}

	// Publishing after cancel must not panic.
	if err := store.Upsert(testRecord(1, true, false)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
}
