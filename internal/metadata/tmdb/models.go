package tmdb

// MediaType identifies the kind of a search candidate.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeTV     MediaType = "tv"
	MediaTypePerson MediaType = "person"
)

// MultiSearchResponse is the response from /search/multi.
type MultiSearchResponse struct {
	Page         int                 `json:"page"`
	TotalResults int                 `json:"total_results"`
	TotalPages   int                 `json:"total_pages"`
	Results      []MultiSearchResult `json:"results"`
}

// MultiSearchResult is one ranked candidate from a multi search. Movies carry
// Title/ReleaseDate, TV series carry Name/FirstAirDate.
type MultiSearchResult struct {
	ID           int       `json:"id"`
	MediaType    MediaType `json:"media_type"`
	Title        string    `json:"title"`
	Name         string    `json:"name"`
	ReleaseDate  string    `json:"release_date"`
	FirstAirDate string    `json:"first_air_date"`
	Overview     string    `json:"overview"`
	PosterPath   *string   `json:"poster_path"`
	VoteAverage  float64   `json:"vote_average"`
	Popularity   float64   `json:"popularity"`
}

// Details is the merged detail + external-ids payload for a movie or series.
type Details struct {
	ID             int     `json:"id"`
	Title          string  `json:"title"`
	Name           string  `json:"name"`
	ReleaseDate    string  `json:"release_date"`
	FirstAirDate   string  `json:"first_air_date"`
	Overview       string  `json:"overview"`
	Runtime        int     `json:"runtime"`
	EpisodeRunTime []int   `json:"episode_run_time"`
	VoteAverage    float64 `json:"vote_average"`
	Genres         []Genre `json:"genres"`
	PosterPath     *string `json:"poster_path"`

	ExternalIDs *ExternalIDs `json:"external_ids"`
}

// Genre is a TMDB genre entry.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ExternalIDs holds cross-reference identifiers from /external_ids.
type ExternalIDs struct {
	ImdbID string `json:"imdb_id"`
	TvdbID int    `json:"tvdb_id"`
}

// ErrorResponse is the TMDB API error payload.
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}
