package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"movie-discovery-sinema/internal/models"
)

// ProfileKey is the fixed key holding the local user profile.
const ProfileKey = "sinema_user"

var (
	// ErrNoActiveSession is returned when a rating is written with no
	// stored profile.
	ErrNoActiveSession = errors.New("no user logged in")
	// ErrInvalidRating is returned for scores outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// ProfileRepository persists the single user profile in a KVStore.
type ProfileRepository struct {
	store KVStore
	key   string
	now   func() time.Time
}

// NewProfileRepository creates a repository storing the profile under
// prefix+ProfileKey.
func NewProfileRepository(store KVStore, prefix string) *ProfileRepository {
	return &ProfileRepository{
		store: store,
		key:   prefix + ProfileKey,
		now:   time.Now,
	}
}

// WithClock replaces the time source used for rating timestamps.
func (r *ProfileRepository) WithClock(now func() time.Time) *ProfileRepository {
	r.now = now
	return r
}

// Load returns the stored profile. Missing, unreadable or malformed
// records are all reported as absent.
func (r *ProfileRepository) Load(ctx context.Context) (*models.UserProfile, bool) {
	data, err := r.store.Get(ctx, r.key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			slog.Warn("failed to read stored profile", "key", r.key, "error", err)
		}
		return nil, false
	}

	var profile models.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		slog.Debug("ignoring malformed stored profile", "key", r.key, "error", err)
		return nil, false
	}
	if strings.TrimSpace(profile.Username) == "" {
		return nil, false
	}
	if profile.Ratings == nil {
		profile.Ratings = []models.UserRating{}
	}
	return &profile, true
}

// Save overwrites the stored profile.
func (r *ProfileRepository) Save(ctx context.Context, profile *models.UserProfile) error {
	if profile == nil {
		return fmt.Errorf("save profile: nil profile")
	}
	if profile.Ratings == nil {
		profile.Ratings = []models.UserRating{}
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := r.store.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Clear deletes the stored profile. Clearing an empty slot succeeds.
func (r *ProfileRepository) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, r.key); err != nil {
		return fmt.Errorf("clear profile: %w", err)
	}
	return nil
}

// UpsertRating inserts or overwrites the rating for movieID, writes the
// profile through and returns it.
func (r *ProfileRepository) UpsertRating(ctx context.Context, movieID, movieTitle string, rating int) (*models.UserProfile, error) {
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}

	profile, ok := r.Load(ctx)
	if !ok {
		return nil, ErrNoActiveSession
	}

	entry := models.UserRating{
		MovieID:    movieID,
		MovieTitle: movieTitle,
		Rating:     rating,
		Timestamp:  r.now().UnixMilli(),
	}

	replaced := false
	for i := range profile.Ratings {
		if profile.Ratings[i].MovieID != movieID {
			continue
		}
		// keep timestamps strictly increasing for re-rates in the same millisecond
		if entry.Timestamp <= profile.Ratings[i].Timestamp {
			entry.Timestamp = profile.Ratings[i].Timestamp + 1
		}
		profile.Ratings[i] = entry
		replaced = true
		break
	}
	if !replaced {
		profile.Ratings = append(profile.Ratings, entry)
	}

	if err := r.Save(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
