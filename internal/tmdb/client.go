package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ImageBaseW500 prefixes poster paths returned by TMDB.
const ImageBaseW500 = "https://image.tmdb.org/t/p/w500"

// ErrNoPoster is returned when no search hit carries a poster.
var ErrNoPoster = errors.New("tmdb: no poster found")

// Client is the TMDB API client used for poster lookups.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new TMDB API client.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SearchResponse is the TMDB search/movie response.
type SearchResponse struct {
	Page    int          `json:"page"`
	Results []SearchItem `json:"results"`
}

// SearchItem is a movie from TMDB search results.
type SearchItem struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Popularity  float64 `json:"popularity"`
	PosterPath  string  `json:"poster_path"`
}

// SearchPoster returns the w500 poster URL of the best match for title.
// year narrows the search when non-empty.
func (c *Client) SearchPoster(ctx context.Context, title, year string) (string, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", title)
	if year != "" {
		q.Set("year", year)
	}
	endpoint := fmt.Sprintf("%s/search/movie?%s", c.baseURL, q.Encode())

	slog.Debug("searching TMDB poster", "title", title, "year", year)
	resp, err := c.doGet(ctx, endpoint)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}

	for _, item := range result.Results {
		if item.PosterPath != "" {
			return ImageBaseW500 + item.PosterPath, nil
		}
	}
	return "", ErrNoPoster
}

func (c *Client) doGet(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("TMDB API returned status %d: %s", resp.StatusCode, string(body))
	}
	return resp, nil
}
