// Package db provides the recipe record store and its live favorites feed.
package db

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/recipeai/core/internal/apperr"
	"github.com/recipeai/core/internal/models"
)

// Store provides durable access to recipe records. It is the only
// mutable shared resource in the core: all mutations are single-row
// upserts or flag updates, serialized by the single-writer connection.
//
// Every mutation publishes the current favorites snapshot to all
// subscribers; consumers that need point-in-time reads use the query
// methods instead.
type Store struct {
	db *sql.DB

	// Prepared statement cache for frequently used queries.
	stmtCache sync.Map // map[string]*sql.Stmt

	subMu   sync.Mutex
	subs    map[int]chan []models.RecipeRecord
	nextSub int
}

// NewStore creates a Store on top of an open database.
func NewStore(database *DB) *Store {
	return &Store{
		db:   database.DB,
		subs: make(map[int]chan []models.RecipeRecord),
	}
}

// prepareStmt gets or creates a prepared statement from the cache.
func (s *Store) prepareStmt(query string) (*sql.Stmt, error) {
	if stmt, ok := s.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}
	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	actual, loaded := s.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		// Another goroutine already prepared this, close our duplicate
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}
	return stmt, nil
}

// Close closes all cached prepared statements and releases subscribers.
func (s *Store) Close() error {
	var firstErr error
	s.stmtCache.Range(func(key, value any) bool {
		if err := value.(*sql.Stmt).Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})

	s.subMu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subMu.Unlock()

	return firstErr
}

// Upsert inserts or replaces a record by id and notifies subscribers.
func (s *Store) Upsert(rec models.RecipeRecord) error {
	ingredients, err := models.EncodeIngredients(rec.Ingredients)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "failed to encode ingredients", err)
	}

	query := `
	INSERT INTO recipes (id, name, description, instructions, cooking_time,
		difficulty, image_url, ingredients, is_favorite, is_synced, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		description = excluded.description,
		instructions = excluded.instructions,
		cooking_time = excluded.cooking_time,
		difficulty = excluded.difficulty,
		image_url = excluded.image_url,
		ingredients = excluded.ingredients,
		is_favorite = excluded.is_favorite,
		is_synced = excluded.is_synced
	`
	stmt, err := s.prepareStmt(query)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "upsert failed", err)
	}
	_, err = stmt.Exec(rec.ID, rec.Name, rec.Description, rec.Instructions,
		rec.CookingTime, rec.Difficulty, rec.ImageURL, ingredients,
		rec.IsFavorite, rec.IsSynced, rec.CreatedAt)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "upsert failed", err)
	}

	s.publish()
	return nil
}

// GetByID retrieves a record by id. Returns sql.ErrNoRows when the
// record does not exist.
func (s *Store) GetByID(id int64) (*models.RecipeRecord, error) {
	query := `
	SELECT id, name, description, instructions, cooking_time, difficulty,
		   image_url, ingredients, is_favorite, is_synced, created_at
	FROM recipes WHERE id = ?
	`
	stmt, err := s.prepareStmt(query)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "get by id failed", err)
	}
	rec, err := scanRecord(stmt.QueryRow(id))
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "get by id failed", err)
	}
	return rec, nil
}

// AllUnsynced returns every record with a pending local intent. This is
// the implicit outbox query: pending sync work lives in the same row as
// current truth, never in a separate queue table.
func (s *Store) AllUnsynced() ([]models.RecipeRecord, error) {
	query := `
	SELECT id, name, description, instructions, cooking_time, difficulty,
		   image_url, ingredients, is_favorite, is_synced, created_at
	FROM recipes WHERE is_synced = 0 ORDER BY created_at DESC
	`
	return s.queryRecords(query)
}

// Favorites returns the favorites subset, newest first.
func (s *Store) Favorites() ([]models.RecipeRecord, error) {
	query := `
	SELECT id, name, description, instructions, cooking_time, difficulty,
		   image_url, ingredients, is_favorite, is_synced, created_at
	FROM recipes WHERE is_favorite = 1 ORDER BY created_at DESC
	`
	return s.queryRecords(query)
}

// All returns every cached record, newest first.
func (s *Store) All() ([]models.RecipeRecord, error) {
	query := `
	SELECT id, name, description, instructions, cooking_time, difficulty,
		   image_url, ingredients, is_favorite, is_synced, created_at
	FROM recipes ORDER BY created_at DESC
	`
	return s.queryRecords(query)
}

// FavoriteIDs returns the id set of current favorites as an id→bool map.
func (s *Store) FavoriteIDs() (map[int64]bool, error) {
	stmt, err := s.prepareStmt(`SELECT id FROM recipes WHERE is_favorite = 1`)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "favorite ids failed", err)
	}
	rows, err := stmt.Query()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "favorite ids failed", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Wrap(apperr.ErrDatabase, "favorite ids failed", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "favorite ids failed", err)
	}
	return ids, nil
}

// NextGeneratedID allocates the next id in the generated partition.
// Generated recipes live below zero so they can never collide with
// catalog ids; the allocator walks downward from the lowest id in use.
func (s *Store) NextGeneratedID() (int64, error) {
	stmt, err := s.prepareStmt(`SELECT COALESCE(MIN(id), 0) FROM recipes`)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrDatabase, "next generated id failed", err)
	}
	var lowest int64
	if err := stmt.QueryRow().Scan(&lowest); err != nil {
		return 0, apperr.Wrap(apperr.ErrDatabase, "next generated id failed", err)
	}
	if lowest >= 0 {
		return -1, nil
	}
	return lowest - 1, nil
}

// SetSynced updates the sync flag of a single record. It never touches
// is_favorite, so a completed sync pass cannot clobber a newer toggle.
func (s *Store) SetSynced(id int64, synced bool) error {
	stmt, err := s.prepareStmt(`UPDATE recipes SET is_synced = ? WHERE id = ?`)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "set synced failed", err)
	}
	if _, err := stmt.Exec(synced, id); err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "set synced failed", err)
	}
	s.publish()
	return nil
}

// SetFavorite updates the favorite flag of a single record, leaving the
// sync flag untouched. Used when reconciliation demotes a favorite that
// the remote authority no longer lists.
func (s *Store) SetFavorite(id int64, favorite bool) error {
	stmt, err := s.prepareStmt(`UPDATE recipes SET is_favorite = ? WHERE id = ?`)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "set favorite failed", err)
	}
	if _, err := stmt.Exec(favorite, id); err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "set favorite failed", err)
	}
	s.publish()
	return nil
}

// Subscribe registers a live favorites consumer. The returned channel
// receives the favorites snapshot after every store mutation; slow
// consumers only ever see the latest snapshot (intermediate ones are
// coalesced). The cancel func unregisters the consumer and closes the
// channel.
func (s *Store) Subscribe() (<-chan []models.RecipeRecord, func()) {
	ch := make(chan []models.RecipeRecord, 1)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

// publish pushes the current favorites snapshot to all subscribers.
func (s *Store) publish() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if len(s.subs) == 0 {
		return
	}

	favorites, err := s.Favorites()
	if err != nil {
		// Subscribers only miss a snapshot; the next mutation retries.
		return
	}
	for _, ch := range s.subs {
		select {
		case ch <- favorites:
		default:
			// Replace the stale pending snapshot with the fresh one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- favorites:
			default:
			}
		}
	}
}

func (s *Store) queryRecords(query string) ([]models.RecipeRecord, error) {
	stmt, err := s.prepareStmt(query)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "query failed", err)
	}
	rows, err := stmt.Query()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "query failed", err)
	}
	defer rows.Close()

	var records []models.RecipeRecord
	for rows.Next() {
		rec, err := scanRecordRows(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrDatabase, "scan failed", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "query failed", err)
	}
	return records, nil
}

func scanRecord(row *sql.Row) (*models.RecipeRecord, error) {
	var rec models.RecipeRecord
	var ingredients string
	err := row.Scan(&rec.ID, &rec.Name, &rec.Description, &rec.Instructions,
		&rec.CookingTime, &rec.Difficulty, &rec.ImageURL, &ingredients,
		&rec.IsFavorite, &rec.IsSynced, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Ingredients, err = models.DecodeIngredients(ingredients)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanRecordRows(rows *sql.Rows) (*models.RecipeRecord, error) {
	var rec models.RecipeRecord
	var ingredients string
	err := rows.Scan(&rec.ID, &rec.Name, &rec.Description, &rec.Instructions,
		&rec.CookingTime, &rec.Difficulty, &rec.ImageURL, &ingredients,
		&rec.IsFavorite, &rec.IsSynced, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Ingredients, err = models.DecodeIngredients(ingredients)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
