package models

// View is one of the four screens of the session.
type View string

const (
	ViewAuth            View = "AUTH"
	ViewHome            View = "HOME"
	ViewProfile         View = "PROFILE"
	ViewRecommendations View = "RECOMMENDATIONS"
)

// Valid reports whether v is a known view.
func (v View) Valid() bool {
	switch v {
	case ViewAuth, ViewHome, ViewProfile, ViewRecommendations:
		return true
	}
	return false
}

// SessionState is a point-in-time copy of the controller state.
type SessionState struct {
	User            *UserProfile `json:"user"`
	View            View         `json:"view"`
	SearchQuery     string       `json:"search_query"`
	Movies          []Movie      `json:"movies"`
	Recommendations []Movie      `json:"recommendations"`
	Loading         bool         `json:"loading"`
	CanRecommend    bool         `json:"can_recommend"`
}

// LoginRequest is the request body for starting a session.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
}

// ChangeViewRequest is the request body for switching views.
type ChangeViewRequest struct {
	View View `json:"view" validate:"required,oneof=AUTH HOME PROFILE RECOMMENDATIONS"`
}

// RateMovieRequest is the request body for rating a movie.
type RateMovieRequest struct {
	MovieID    string `json:"movieId" validate:"required"`
	MovieTitle string `json:"movieTitle" validate:"required"`
	Rating     int    `json:"rating" validate:"min=1,max=5"`
}

// ProfileResponse is the profile view payload.
type ProfileResponse struct {
	Username string       `json:"username"`
	Count    int          `json:"count"`
	Ratings  []UserRating `json:"ratings"`
}

// MovieListResponse wraps a list of movies.
type MovieListResponse struct {
	Query string  `json:"query,omitempty"`
	Data  []Movie `json:"data"`
}
