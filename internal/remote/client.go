package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/recipeai/core/internal/apperr"
	"github.com/recipeai/core/internal/models"
)

// Client is the HTTP implementation of FavoriteService.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a favorite service client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// doRequest builds and executes a request with the shared headers.
func (c *Client) doRequest(ctx context.Context, method, url, credential string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrRemoteUnavailable, "favorite service unreachable", err)
	}
	return resp, nil
}

// AddFavorite marks a recipe as favorite on the remote authority,
// sending the full content payload. Returns ErrAlreadyFavorite on 409.
func (c *Client) AddFavorite(ctx context.Context, credential string, rec models.Recipe) error {
	payload, err := json.Marshal(toAddRequest(rec))
	if err != nil {
		return fmt.Errorf("failed to marshal add favorite request: %w", err)
	}

	url := fmt.Sprintf("%s/favorites/%d", c.baseURL, rec.ID)
	resp, err := c.doRequest(ctx, http.MethodPost, url, credential, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return ErrAlreadyFavorite
	default:
		return rejection("add favorite", resp)
	}
}

// RemoveFavorite unmarks a recipe on the remote authority. Returns
// ErrFavoriteNotFound on 404.
func (c *Client) RemoveFavorite(ctx context.Context, credential string, id int64) error {
	url := fmt.Sprintf("%s/favorites/%d", c.baseURL, id)
	resp, err := c.doRequest(ctx, http.MethodDelete, url, credential, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrFavoriteNotFound
	default:
		return rejection("remove favorite", resp)
	}
}

// ListFavorites fetches the remote-authoritative favorite list.
func (c *Client) ListFavorites(ctx context.Context, credential string) ([]models.Recipe, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/favorites", credential, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, rejection("list favorites", resp)
	}

	var dtos []recipeDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		return nil, apperr.Wrap(apperr.ErrRemoteDecode, "failed to decode favorites list", err)
	}

	recipes := make([]models.Recipe, len(dtos))
	for i, dto := range dtos {
		recipes[i] = dto.toRecipe()
	}
	return recipes, nil
}

// CheckFavorite asks the remote authority whether a recipe is currently
// a favorite.
func (c *Client) CheckFavorite(ctx context.Context, credential string, id int64) (bool, error) {
	url := fmt.Sprintf("%s/favorites/check/%d", c.baseURL, id)
	resp, err := c.doRequest(ctx, http.MethodGet, url, credential, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, rejection("check favorite", resp)
	}

	var isFavorite bool
	if err := json.NewDecoder(resp.Body).Decode(&isFavorite); err != nil {
		return false, apperr.Wrap(apperr.ErrRemoteDecode, "failed to decode check response", err)
	}
	return isFavorite, nil
}

// rejection classifies a non-success status. 5xx is transient
// (REMOTE_UNAVAILABLE, retried by the host); everything else is a
// rejection the caller must not blindly retry.
func rejection(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	code := apperr.ErrRemoteRejected
	if resp.StatusCode >= 500 {
		code = apperr.ErrRemoteUnavailable
	}
	return apperr.New(code, fmt.Sprintf("%s returned status %d: %s",
		operation, resp.StatusCode, bytes.TrimSpace(body)))
}
