// Package recipes supplies recipe content: the remote catalog, the AI
// generator, and the routing service that lands both in the local store.
package recipes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/recipeai/core/internal/apperr"
	"github.com/recipeai/core/internal/models"
)

// CatalogService reads the shared recipe catalog.
type CatalogService interface {
	List(ctx context.Context) ([]models.Recipe, error)
	GetByID(ctx context.Context, id int64) (models.Recipe, error)
	Search(ctx context.Context, query string) ([]models.Recipe, error)
}

// GeneratorService produces a new recipe from a list of ingredients.
type GeneratorService interface {
	Generate(ctx context.Context, ingredients []string) (models.Recipe, error)
}

// recipeDTO mirrors the catalog and generator wire shape, which matches
// the favorite service's.
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

// CatalogClient is the HTTP implementation of CatalogService.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCatalogClient creates a catalog client for the given base URL.
func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// List fetches the full catalog.
func (c *CatalogClient) List(ctx context.Context) ([]models.Recipe, error) {
	return c.getList(ctx, c.baseURL+"/recipes")
}

// GetByID fetches a single catalog recipe. Returns an ErrNotFound-coded
// error on 404.
func (c *CatalogClient) GetByID(ctx context.Context, id int64) (models.Recipe, error) {
	resp, err := c.get(ctx, fmt.Sprintf("%s/recipes/%d", c.baseURL, id))
	if err != nil {
		return models.Recipe{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusNotFound:
		return models.Recipe{}, apperr.New(apperr.ErrNotFound,
			fmt.Sprintf("recipe %d not in catalog", id))
	default:
		return models.Recipe{}, catalogRejection("get recipe", resp)
	}

	var dto recipeDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return models.Recipe{}, apperr.Wrap(apperr.ErrRemoteDecode, "failed to decode recipe", err)
	}
	return dto.toRecipe(), nil
}

// Search fetches catalog recipes matching the query.
func (c *CatalogClient) Search(ctx context.Context, query string) ([]models.Recipe, error) {
	return c.getList(ctx, c.baseURL+"/recipes/search?q="+url.QueryEscape(query))
}

func (c *CatalogClient) get(ctx context.Context, requestURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrRemoteUnavailable, "catalog unreachable", err)
	}
	return resp, nil
}

func (c *CatalogClient) getList(ctx context.Context, requestURL string) ([]models.Recipe, error) {
	resp, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, catalogRejection("list recipes", resp)
	}

	var dtos []recipeDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		return nil, apperr.Wrap(apperr.ErrRemoteDecode, "failed to decode recipe list", err)
	}

	recipes := make([]models.Recipe, len(dtos))
	for i, dto := range dtos {
		recipes[i] = dto.toRecipe()
	}
	return recipes, nil
}

// GeneratorClient is the HTTP implementation of GeneratorService.
type GeneratorClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGeneratorClient creates a generator client for the given base URL.
// Generation is slow; the timeout is sized accordingly.
func NewGeneratorClient(baseURL string) *GeneratorClient {
	return &GeneratorClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

type generateRequest struct {
	Ingredients []string `json:"ingredients"`
}

// Generate asks the generator for a recipe built from the ingredients.
// The returned recipe has no id; the caller assigns one.
func (c *GeneratorClient) Generate(ctx context.Context, ingredients []string) (models.Recipe, error) {
	payload, err := json.Marshal(generateRequest{Ingredients: ingredients})
	if err != nil {
		return models.Recipe{}, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/generate", bytes.NewReader(payload))
	if err != nil {
		return models.Recipe{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Recipe{}, apperr.Wrap(apperr.ErrRemoteUnavailable, "generator unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Recipe{}, apperr.New(apperr.ErrGenerationFailed,
			fmt.Sprintf("generate returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body)))
	}

	var dto recipeDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return models.Recipe{}, apperr.Wrap(apperr.ErrRemoteDecode, "failed to decode generated recipe", err)
	}
	return dto.toRecipe(), nil
}

func catalogRejection(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	code := apperr.ErrCatalogFailed
	if resp.StatusCode >= 500 {
		code = apperr.ErrRemoteUnavailable
	}
	return apperr.New(code, fmt.Sprintf("%s returned status %d: %s",
		operation, resp.StatusCode, bytes.TrimSpace(body)))
}
