package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"movie-discovery-sinema/internal/models"
)

var (
	ErrUsernameRequired = errors.New("please enter a username")
	ErrNotAuthenticated = errors.New("not logged in")
	ErrNotEnoughRatings = fmt.Errorf("rate at least %d movies to unlock recommendations", models.MinRatingsForRecommendations)
	ErrInvalidView      = errors.New("invalid view")
	ErrBusy             = errors.New("a request is already in progress")
)

// ProfileStore is the persistence the session needs.
type ProfileStore interface {
	Load(ctx context.Context) (*models.UserProfile, bool)
	Save(ctx context.Context, profile *models.UserProfile) error
	Clear(ctx context.Context) error
	UpsertRating(ctx context.Context, movieID, movieTitle string, rating int) (*models.UserProfile, error)
}

// Catalog produces movie lists.
type Catalog interface {
	SearchCatalog(ctx context.Context, query string) []models.Movie
	RecommendFor(ctx context.Context, ratings []models.UserRating) []models.Movie
}

// SessionService holds the state of the single local session and
// dispatches user actions to the profile store and the catalog.
//
// Network calls run without holding the lock. Results are applied in
// the order they resolve, so an older search finishing last overwrites a
// newer one.
type SessionService struct {
	profiles ProfileStore
	catalog  Catalog

	mu       sync.Mutex
	user     *models.UserProfile
	view     models.View
	query    string
	movies   []models.Movie
	recs     []models.Movie
	inFlight int
}

// NewSessionService creates an unauthenticated session.
func NewSessionService(profiles ProfileStore, catalog Catalog) *SessionService {
	return &SessionService{
		profiles: profiles,
		catalog:  catalog,
		view:     models.ViewAuth,
		movies:   []models.Movie{},
		recs:     []models.Movie{},
	}
}

// Start restores a persisted profile, if any, and loads the default
// catalog. It reports whether a profile was restored.
func (s *SessionService) Start(ctx context.Context) bool {
	profile, ok := s.profiles.Load(ctx)
	if !ok {
		return false
	}

	s.mu.Lock()
	s.user = profile
	s.view = models.ViewHome
	s.mu.Unlock()

	slog.Info("restored session", "username", profile.Username, "ratings", len(profile.Ratings))
	s.fetchMovies(ctx, models.SearchQueryDefault)
	return true
}

// Login starts a session for username. A stored profile with the same
// username is reused; otherwise a new empty profile replaces the slot.
func (s *SessionService) Login(ctx context.Context, username string) (*models.UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}

	profile, ok := s.profiles.Load(ctx)
	if !ok || profile.Username != username {
		profile = models.NewUserProfile(username)
		if err := s.profiles.Save(ctx, profile); err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
		slog.Info("created profile", "username", username)
	}

	s.mu.Lock()
	if s.user == nil || s.user.Username != profile.Username {
		s.movies = []models.Movie{}
		s.recs = []models.Movie{}
	}
	s.user = profile
	s.view = models.ViewHome
	s.query = ""
	s.mu.Unlock()

	s.fetchMovies(ctx, models.SearchQueryDefault)
	return profile.Clone(), nil
}

// Logout deletes the stored profile and resets the session.
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.profiles.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.view = models.ViewAuth
	s.query = ""
	s.movies = []models.Movie{}
	s.recs = []models.Movie{}
	return nil
}

// ChangeView switches screens. AUTH is only reachable through Logout
// once a user is logged in. Entering the recommendations view with no
// list and enough ratings fetches recommendations.
func (s *SessionService) ChangeView(ctx context.Context, view models.View) error {
	if !view.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidView, view)
	}

	s.mu.Lock()
	if s.user == nil && view != models.ViewAuth {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	if s.user != nil && view == models.ViewAuth {
		s.mu.Unlock()
		return fmt.Errorf("%w: log out to return to %s", ErrInvalidView, view)
	}
	s.view = view
	autoFetch := view == models.ViewRecommendations &&
		len(s.recs) == 0 &&
		len(s.user.Ratings) >= models.MinRatingsForRecommendations
	s.mu.Unlock()

	if autoFetch {
		if _, err := s.RefreshRecommendations(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Search replaces the catalog with results for query. Blank queries
// leave the catalog untouched.
func (s *SessionService) Search(ctx context.Context, query string) ([]models.Movie, error) {
	return s.search(ctx, query, false)
}

// TrySearch is Search that fails with ErrBusy instead of overlapping a
// call already in flight.
func (s *SessionService) TrySearch(ctx context.Context, query string) ([]models.Movie, error) {
	return s.search(ctx, query, true)
}

func (s *SessionService) search(ctx context.Context, query string, exclusive bool) ([]models.Movie, error) {
	if strings.TrimSpace(query) == "" {
		if !s.authenticated() {
			return nil, ErrNotAuthenticated
		}
		return s.Movies(), nil
	}

	owner, err := s.begin(exclusive, 0)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()

	return s.finishMovies(owner, s.catalog.SearchCatalog(ctx, query)), nil
}

// Rate records a rating and refreshes the in-memory profile.
func (s *SessionService) Rate(ctx context.Context, movieID, movieTitle string, rating int) (*models.UserProfile, error) {
	if !s.authenticated() {
		return nil, ErrNotAuthenticated
	}

	updated, err := s.profiles.UpsertRating(ctx, movieID, movieTitle, rating)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = updated
	s.mu.Unlock()
	return updated.Clone(), nil
}

// RefreshRecommendations replaces the recommendation list. It requires
// at least three ratings.
func (s *SessionService) RefreshRecommendations(ctx context.Context) ([]models.Movie, error) {
	return s.refreshRecommendations(ctx, false)
}

// TryRefreshRecommendations is RefreshRecommendations that fails with
// ErrBusy instead of overlapping a call already in flight.
func (s *SessionService) TryRefreshRecommendations(ctx context.Context) ([]models.Movie, error) {
	return s.refreshRecommendations(ctx, true)
}

func (s *SessionService) refreshRecommendations(ctx context.Context, exclusive bool) ([]models.Movie, error) {
	owner, err := s.begin(exclusive, models.MinRatingsForRecommendations)
	if err != nil {
		return nil, err
	}
	recs := s.catalog.RecommendFor(ctx, owner.Ratings)

	s.mu.Lock()
	s.inFlight--
	if s.sameUser(owner) {
		s.recs = recs
	}
	s.mu.Unlock()
	return cloneMovies(recs), nil
}

// CanRecommend reports whether the recommendation gate is open.
func (s *SessionService) CanRecommend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && len(s.user.Ratings) >= models.MinRatingsForRecommendations
}

// Busy reports whether a search or recommendation call is in flight.
func (s *SessionService) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// User returns a copy of the current profile, or nil.
func (s *SessionService) User() *models.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone()
}

// Movies returns the current catalog list.
func (s *SessionService) Movies() []models.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMovies(s.movies)
}

// Recommendations returns the current recommendation list.
func (s *SessionService) Recommendations() []models.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMovies(s.recs)
}

// Snapshot returns a copy of the whole session state.
func (s *SessionService) Snapshot() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SessionState{
		User:            s.user.Clone(),
		View:            s.view,
		SearchQuery:     s.query,
		Movies:          cloneMovies(s.movies),
		Recommendations: cloneMovies(s.recs),
		Loading:         s.inFlight > 0,
		CanRecommend:    s.user != nil && len(s.user.Ratings) >= models.MinRatingsForRecommendations,
	}
}

func (s *SessionService) authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// begin claims an in-flight slot for the logged-in user and returns the
// profile the call runs for. exclusive fails with ErrBusy when another
// call holds a slot.
func (s *SessionService) begin(exclusive bool, minRatings int) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, ErrNotAuthenticated
	}
	if len(s.user.Ratings) < minRatings {
		return nil, ErrNotEnoughRatings
	}
	if exclusive && s.inFlight > 0 {
		return nil, ErrBusy
	}
	s.inFlight++
	return s.user.Clone(), nil
}

func (s *SessionService) fetchMovies(ctx context.Context, query string) []models.Movie {
	owner, err := s.begin(false, 0)
	if err != nil {
		return []models.Movie{}
	}
	return s.finishMovies(owner, s.catalog.SearchCatalog(ctx, query))
}

// finishMovies releases the slot taken by begin. Results landing after
// the session changed hands are dropped.
func (s *SessionService) finishMovies(owner *models.UserProfile, movies []models.Movie) []models.Movie {
	s.mu.Lock()
	s.inFlight--
	if s.sameUser(owner) {
		s.movies = movies
	}
	s.mu.Unlock()
	return cloneMovies(movies)
}

// sameUser reports whether owner is still the logged-in user. Callers
// hold s.mu.
func (s *SessionService) sameUser(owner *models.UserProfile) bool {
	return s.user != nil && owner != nil && s.user.Username == owner.Username
}

func cloneMovies(in []models.Movie) []models.Movie {
	out := make([]models.Movie, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}
