package oracle

// HealthzResponse is the response body for GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Preimages     int    `json:"preimages"`
}

// SummaryResponse is the response body for GET /preimages.
type SummaryResponse struct {
	RunID       string `json:"run_id,omitempty"`
	Count       int    `json:"count"`
	Bytes       int64  `json:"bytes"`
	Fingerprint string `json:"fingerprint"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
