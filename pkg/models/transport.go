package models

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	// RetryAfterMs is set when the caller must wait before submitting again.
	RetryAfterMs int64 `json:"retryAfterMs,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
