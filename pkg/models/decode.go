package models

// DecodeResponse is the success body of POST /api/decode.
type DecodeResponse struct {
	// Message is the recovered text; empty when nothing was hidden.
	Message string `json:"message"`
	// Scheme echoes the requested scheme.
	Scheme string `json:"scheme"`
	// DetectedScheme is set when auto-detection resolved the scheme.
	DetectedScheme string `json:"detected_scheme,omitempty"`
}

// ErrorResponse is the failure body of every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
