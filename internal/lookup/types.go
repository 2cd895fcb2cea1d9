package lookup

// ErrorCode is a stable machine-readable failure code returned to clients.
type ErrorCode string

const (
	// ErrCodeValidation is returned for bad inbound requests before the
	// pipeline runs.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrCodeInvalidLink means the link shape was recognized but no content
	// id could be extracted.
	ErrCodeInvalidLink ErrorCode = "INVALID_LINK"
	// ErrCodeUnresolvedLink means an id was extracted but no usable title was
	// found after the full scrape fallback chain, or the provider lookup for
	// the scraped title failed.
	ErrCodeUnresolvedLink ErrorCode = "UNRESOLVED_LINK"
	// ErrCodeNotFound means the provider search returned no candidates.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeProvider means a transport or API failure talking to the
	// metadata provider.
	ErrCodeProvider ErrorCode = "PROVIDER_ERROR"
	// ErrCodeInternal is an uncaught fault at the API boundary.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Result is the outcome of a lookup. Exactly one of the two shapes is
// populated: a success carries metadata fields, a failure carries Error and
// Message. Optional fields are omitted from JSON when empty.
type Result struct {
	Success bool   `json:"success"`
	Service string `json:"service,omitempty"`
	Title   string `json:"title,omitempty"`
	Rating  string `json:"rating,omitempty"`
	Genre   string `json:"genre,omitempty"`
	Runtime string `json:"runtime,omitempty"`
	Year    string `json:"year,omitempty"`
	ImdbID  string `json:"imdbId,omitempty"`
	Poster  string `json:"posterUrl,omitempty"`

	Error   ErrorCode `json:"error,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Failure builds a failed Result with the given code and message.
func Failure(code ErrorCode, message string) Result {
	return Result{Success: false, Error: code, Message: message}
}
