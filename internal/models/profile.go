package models

// Rating bounds accepted by the persistence layer.
const (
	MinRating = 1
	MaxRating = 5
)

// UserRating is a single 1-5 score keyed by movie id.
type UserRating struct {
	MovieID    string `json:"movieId"`
	MovieTitle string `json:"movieTitle"`
	Rating     int    `json:"rating"`
	Timestamp  int64  `json:"timestamp"` // epoch millis
}

// UserProfile is the single persisted record of the local user.
type UserProfile struct {
	Username string       `json:"username"`
	Ratings  []UserRating `json:"ratings"`
}

// NewUserProfile returns a profile with no ratings.
func NewUserProfile(username string) *UserProfile {
	return &UserProfile{Username: username, Ratings: []UserRating{}}
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	ratings := make([]UserRating, len(p.Ratings))
	copy(ratings, p.Ratings)
	return &UserProfile{Username: p.Username, Ratings: ratings}
}

// RatingFor returns the score for movieID, or 0 when unrated.
func (p *UserProfile) RatingFor(movieID string) int {
	if p == nil {
		return 0
	}
	for _, r := range p.Ratings {
		if r.MovieID == movieID {
			return r.Rating
		}
	}
	return 0
}

// RatedNewestFirst returns ratings in reverse insertion order.
func (p *UserProfile) RatedNewestFirst() []UserRating {
	if p == nil {
		return []UserRating{}
	}
	out := make([]UserRating, 0, len(p.Ratings))
	for i := len(p.Ratings) - 1; i >= 0; i-- {
		out = append(out, p.Ratings[i])
	}
	return out
}
