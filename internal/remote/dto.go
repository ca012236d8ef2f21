package remote

import "github.com/recipeai/core/internal/models"

// recipeDTO mirrors the favorite service's recipe representation. The
// field names must match the service's JSON exactly; the mapping below
// isolates the rest of the core from that wire shape.
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

// addFavoriteRequest is the body of POST /favorites/{id}.
type addFavoriteRequest struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Instructions string   `json:"instructions"`
	CookingTime  int      `json:"cooking_time"`
	Difficulty   string   `json:"difficulty"`
	ImageURL     string   `json:"image_url"`
	Ingredients  []string `json:"ingredients"`
}

func (d recipeDTO) toRecipe() models.Recipe {
	return models.Recipe{
		ID:           d.ID,
		Name:         d.Name,
		Description:  d.Description,
		Instructions: d.Instructions,
		CookingTime:  d.CookingTime,
		Difficulty:   d.Difficulty,
		ImageURL:     d.ImageURL,
		Ingredients:  d.Ingredients,
	}
}

func toAddRequest(r models.Recipe) addFavoriteRequest {
	return addFavoriteRequest{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Instructions: r.Instructions,
		CookingTime:  r.CookingTime,
		Difficulty:   r.Difficulty,
		ImageURL:     r.ImageURL,
		Ingredients:  r.Ingredients,
	}
}
