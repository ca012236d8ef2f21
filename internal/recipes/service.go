package recipes

import (
	"context"
	"database/sql"

	"github.com/recipeai/core/internal/apperr"
	"github.com/recipeai/core/internal/db"
	"github.com/recipeai/core/internal/logging"
	"github.com/recipeai/core/internal/models"
)

// Service ties the catalog and generator to the local store. Catalog
// content is cached on read; generated recipes exist only locally,
// under negative ids, so detail lookups route by id sign.
type Service struct {
	store     *db.Store
	catalog   CatalogService
	generator GeneratorService
}

// NewService creates the recipe service.
func NewService(store *db.Store, catalog CatalogService, generator GeneratorService) *Service {
	return &Service{store: store, catalog: catalog, generator: generator}
}

// RefreshCatalog pulls the full catalog into the store. Existing
// records keep their favorite and sync flags; only content fields are
// refreshed, so a pending toggle survives a catalog refresh. Returns
// the number of recipes fetched.
func (s *Service) RefreshCatalog(ctx context.Context) (int, error) {
	log := logging.With("recipes")

	fetched, err := s.catalog.List(ctx)
	if err != nil {
		return 0, err
	}

	for _, recipe := range fetched {
		rec := models.NewRecord(recipe, false, true)
		if existing, err := s.store.GetByID(recipe.ID); err == nil {
			rec.IsFavorite = existing.IsFavorite
			rec.IsSynced = existing.IsSynced
			rec.CreatedAt = existing.CreatedAt
		} else if err != sql.ErrNoRows {
			return 0, err
		}
		if err := s.store.Upsert(rec); err != nil {
			return 0, err
		}
	}

	log.Info("catalog refreshed", "recipes", len(fetched))
	return len(fetched), nil
}

// Get resolves a recipe by id. Local cache first; on a miss, positive
// ids fall back to the catalog and are cached, while negative ids are
// generated recipes that exist nowhere else and simply don't exist.
func (s *Service) Get(ctx context.Context, id int64) (*models.RecipeRecord, error) {
	rec, err := s.store.GetByID(id)
	if err == nil {
		return rec, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	if id < 0 {
		return nil, apperr.New(apperr.ErrNotFound, "generated recipe not found")
	}

	recipe, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cached := models.NewRecord(recipe, false, true)
	if err := s.store.Upsert(cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

// Generate produces a recipe from the ingredients, stores it under a
// fresh generated id, and returns the stored record.
func (s *Service) Generate(ctx context.Context, ingredients []string) (*models.RecipeRecord, error) {
	log := logging.With("recipes")

	recipe, err := s.generator.Generate(ctx, ingredients)
	if err != nil {
		return nil, err
	}

	id, err := s.store.NextGeneratedID()
	if err != nil {
		return nil, err
	}
	recipe.ID = id

	rec := models.NewRecord(recipe, false, true)
	if err := s.store.Upsert(rec); err != nil {
		return nil, err
	}

	log.Info("recipe generated", "id", id, "name", recipe.Name)
	return &rec, nil
}

// Search queries the catalog without touching the store.
func (s *Service) Search(ctx context.Context, query string) ([]models.Recipe, error) {
	return s.catalog.Search(ctx, query)
}
