package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"movie-discovery-sinema/internal/llm"
	"movie-discovery-sinema/internal/models"
)

const (
	searchSystemInstruction    = "You are a movie database API. Return accurate details."
	recommendSystemInstruction = "You are a sophisticated movie recommendation engine. Prioritize hidden gems and critically acclaimed matches."

	posterLookupConcurrency = 4
)

// PosterFinder resolves a poster image URL for a title.
type PosterFinder interface {
	SearchPoster(ctx context.Context, title, year string) (string, error)
}

// CatalogService turns searches and rating histories into movie lists
// via the completion service. Every failure yields an empty list.
type CatalogService struct {
	completer llm.Completer
	model     string
	posters   PosterFinder
}

// NewCatalogService creates a CatalogService. posters may be nil.
func NewCatalogService(completer llm.Completer, model string, posters PosterFinder) *CatalogService {
	return &CatalogService{
		completer: completer,
		model:     model,
		posters:   posters,
	}
}

// IsTrendingQuery reports whether q asks for generally popular titles.
func IsTrendingQuery(q string) bool {
	switch strings.ToLower(strings.TrimSpace(q)) {
	case "", "trending", "trending movies":
		return true
	}
	return false
}

// SearchCatalog returns up to 12 movies for query.
func (s *CatalogService) SearchCatalog(ctx context.Context, query string) []models.Movie {
	var prompt string
	if IsTrendingQuery(query) {
		prompt = fmt.Sprintf(
			"Return a list of %d current critically acclaimed or popular movies. Ensure diverse genres.",
			models.SearchResultCount,
		)
	} else {
		prompt = fmt.Sprintf(
			"Find %d movies related to the search term: %q. Ensure diverse genres.",
			models.SearchResultCount, strings.TrimSpace(query),
		)
	}

	movies, err := s.complete(ctx, searchSystemInstruction, prompt)
	if err != nil {
		logCompletionFailure("search", err, "query", query)
		return []models.Movie{}
	}

	s.attachPosters(ctx, movies)
	return movies
}

// RecommendFor returns up to 10 movies the user has not rated, biased
// toward their ratings. No request is made for an empty history.
func (s *CatalogService) RecommendFor(ctx context.Context, ratings []models.UserRating) []models.Movie {
	if len(ratings) == 0 {
		return []models.Movie{}
	}

	summary := make([]string, 0, len(ratings))
	for _, r := range ratings {
		summary = append(summary, fmt.Sprintf("%s (%d/5 stars)", r.MovieTitle, r.Rating))
	}

	prompt := strings.Join([]string{
		fmt.Sprintf("The user has rated the following movies: [%s].", strings.Join(summary, ", ")),
		fmt.Sprintf("Based on these preferences, recommend %d NEW movies they have likely not seen.", models.RecommendationResultCount),
		"Focus on similar themes, directors, or high-quality cinema that matches their taste profile.",
		"Do not repeat movies from the input list.",
	}, "\n")

	movies, err := s.complete(ctx, recommendSystemInstruction, prompt)
	if err != nil {
		logCompletionFailure("recommend", err, "ratings", len(ratings))
		return []models.Movie{}
	}

	movies = excludeRated(movies, ratings)
	s.attachPosters(ctx, movies)
	return movies
}

func (s *CatalogService) complete(ctx context.Context, system, prompt string) ([]models.Movie, error) {
	text, err := s.completer.Complete(ctx, llm.CompletionRequest{
		Model:             s.model,
		SystemInstruction: system,
		Prompt:            prompt,
		Schema:            llm.MovieListSchema(),
	})
	if err != nil {
		return nil, err
	}
	return parseMovies(text)
}

// parseMovies decodes a JSON array of movies and rejects the whole
// response when any entry lacks a required field.
func parseMovies(text string) ([]models.Movie, error) {
	text = llm.StripCodeFence(text)
	if text == "" {
		return nil, errors.New("empty completion text")
	}

	var movies []models.Movie
	if err := json.Unmarshal([]byte(text), &movies); err != nil {
		return nil, fmt.Errorf("decode movies: %w", err)
	}
	for i, m := range movies {
		if !m.Valid() {
			return nil, fmt.Errorf("movie %d violates schema", i)
		}
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	return movies, nil
}

func excludeRated(movies []models.Movie, ratings []models.UserRating) []models.Movie {
	seenIDs := make(map[string]bool, len(ratings))
	seenTitles := make(map[string]bool, len(ratings))
	for _, r := range ratings {
		seenIDs[r.MovieID] = true
		seenTitles[strings.ToLower(strings.TrimSpace(r.MovieTitle))] = true
	}

	out := movies[:0]
	for _, m := range movies {
		if seenIDs[m.ID] || seenTitles[strings.ToLower(strings.TrimSpace(m.Title))] {
			continue
		}
		out = append(out, m)
	}
	return out
}

// attachPosters fills PosterPlaceholder in place. Lookup failures are
// ignored.
func (s *CatalogService) attachPosters(ctx context.Context, movies []models.Movie) {
	if s.posters == nil || len(movies) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(posterLookupConcurrency)
	for i := range movies {
		if movies[i].PosterPlaceholder != "" {
			continue
		}
		g.Go(func() error {
			poster, err := s.posters.SearchPoster(gctx, movies[i].Title, movies[i].Year)
			if err != nil {
				slog.Debug("poster lookup failed", "title", movies[i].Title, "error", err)
				return nil
			}
			movies[i].PosterPlaceholder = poster
			return nil
		})
	}
	_ = g.Wait()
}

func logCompletionFailure(op string, err error, attrs ...any) {
	if errors.Is(err, llm.ErrMissingAPIKey) {
		slog.Debug("completion skipped, no API key configured", "op", op)
		return
	}
	slog.Error("completion failed", append([]any{"op", op, "error", err}, attrs...)...)
}
