// Command favstub is an in-memory stand-in for the RecipeAI backend,
// used to run the client stack end to end on a laptop. It serves the
// favorite endpoints the sync engine talks to plus a small seeded
// catalog and a canned generator. State lives per bearer token and
// vanishes on restart.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/recipeai/core/internal/logging"
)

type recipeDTO struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Instructions string   `json:"instructions"`
	CookingTime  int      `json:"cooking_time"`
	Difficulty   string   `json:"difficulty"`
	ImageURL     string   `json:"image_url"`
	Ingredients  []string `json:"ingredients"`
}

// server holds the per-token favorite sets and the seeded catalog.
type server struct {
	mu        sync.Mutex
	favorites map[string]map[int64]recipeDTO
	catalog   []recipeDTO
	nextGen   int64
}

func newServer() *server {
	return &server{
		favorites: make(map[string]map[int64]recipeDTO),
		catalog: []recipeDTO{
			{ID: 1, Name: "Spaghetti Carbonara", CookingTime: 25, Difficulty: "medium",
				Instructions: "Cook pasta, fry guanciale, toss with egg and pecorino.",
				Ingredients:  []string{"spaghetti", "guanciale", "egg", "pecorino"}},
			{ID: 2, Name: "Tom Yum Soup", CookingTime: 30, Difficulty: "medium",
				Instructions: "Simmer stock with lemongrass, add shrimp and mushrooms.",
				Ingredients:  []string{"shrimp", "lemongrass", "lime", "mushroom"}},
			{ID: 3, Name: "Shakshuka", CookingTime: 20, Difficulty: "easy",
				Instructions: "Simmer tomatoes and peppers, poach eggs in the sauce.",
				Ingredients:  []string{"egg", "tomato", "pepper", "cumin"}},
		},
		nextGen: 1,
	}
}

// bearerToken extracts the token or writes a 401.
func bearerToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "missing bearer token"})
		return "", false
	}
	return token, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid recipe id"})
		return 0, false
	}
	return id, true
}

func (s *server) userFavorites(token string) map[int64]recipeDTO {
	favs, ok := s.favorites[token]
	if !ok {
		favs = make(map[int64]recipeDTO)
		s.favorites[token] = favs
	}
	return favs
}

func (s *server) listFavorites(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	favs := s.userFavorites(token)
	list := make([]recipeDTO, 0, len(favs))
	for _, recipe := range favs {
		list = append(list, recipe)
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) addFavorite(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var recipe recipeDTO
	if err := json.NewDecoder(r.Body).Decode(&recipe); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid recipe payload"})
		return
	}
	recipe.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()

	favs := s.userFavorites(token)
	if _, exists := favs[id]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "recipe already in favorites"})
		return
	}
	favs[id] = recipe
	writeJSON(w, http.StatusCreated, map[string]string{"message": "recipe added to favorites"})
}

func (s *server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	favs := s.userFavorites(token)
	if _, exists := favs[id]; !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "recipe not in favorites"})
		return
	}
	delete(favs, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "recipe removed from favorites"})
}

func (s *server) checkFavorite(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	_, exists := s.userFavorites(token)[id]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, exists)
}

func (s *server) listRecipes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.catalog)
}

func (s *server) getRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, recipe := range s.catalog {
		if recipe.ID == id {
			writeJSON(w, http.StatusOK, recipe)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "recipe not found"})
}

func (s *server) searchRecipes(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(r.URL.Query().Get("q"))
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := make([]recipeDTO, 0)
	for _, recipe := range s.catalog {
		if strings.Contains(strings.ToLower(recipe.Name), query) {
			matches = append(matches, recipe)
		}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *server) generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ingredients []string `json:"ingredients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Ingredients) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "ingredients required"})
		return
	}

	s.mu.Lock()
	n := s.nextGen
	s.nextGen++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, recipeDTO{
		Name:         fmt.Sprintf("Improvised %s Dish #%d", capitalize(req.Ingredients[0]), n),
		Description:  "A stub-generated recipe.",
		Instructions: "Combine " + strings.Join(req.Ingredients, ", ") + " and cook until done.",
		CookingTime:  20,
		Difficulty:   "easy",
		Ingredients:  req.Ingredients,
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/favorites", func(r chi.Router) {
		r.Get("/", s.listFavorites)
		r.Post("/{id}", s.addFavorite)
		r.Delete("/{id}", s.removeFavorite)
		r.Get("/check/{id}", s.checkFavorite)
	})
	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", s.listRecipes)
		r.Get("/search", s.searchRecipes)
		r.Get("/{id}", s.getRecipe)
	})
	r.Post("/generate", s.generate)
	return r
}

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	flag.Parse()

	logging.Init(os.Stderr, "info", logging.FormatConsole)
	log := logging.With("favstub")

	log.Info("stub backend listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, newServer().routes()); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
