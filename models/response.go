package models

// Session lifecycle states reported by the API.
//
// "opening" covers the launch-navigate-fill window of an in-flight open.
// The core deliberately has no "authenticated" state: there is no
// programmatic login-success signal, so after open the session stays
// "awaiting_login" and the operator's timing is trusted.
const (
	SessionStateNone          = "none"
	SessionStateOpening       = "opening"
	SessionStateAwaitingLogin = "awaiting_login"
)

// SessionResponse is the response for the session endpoints.
type SessionResponse struct {
	// Success indicates whether the call completed without errors.
	Success bool `json:"success"`

	// State is one of the SessionState* values.
	State string `json:"state"`

	// LoginURL is the target login page, echoed for the operator.
	LoginURL string `json:"login_url,omitempty"`

	// OpenedAt is the RFC 3339 timestamp of session launch.
	OpenedAt string `json:"opened_at,omitempty"`

	// CurrentURL is the page's current location (the operator may have
	// navigated since open).
	CurrentURL string `json:"current_url,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// ExtractResponse is the response for POST /api/v1/extract/:table.
type ExtractResponse struct {
	// Success indicates whether the extraction completed without errors.
	Success bool `json:"success"`

	// Table holds the extracted rows for optional display. The written CSV
	// file is the durable guarantee; Table mirrors its content.
	Table *ExtractedTable `json:"table,omitempty"`

	// OutputPath is the CSV file written for this extraction.
	OutputPath string `json:"output_path,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// SnapshotResponse is the response for POST /api/v1/snapshot.
type SnapshotResponse struct {
	Success bool `json:"success"`

	// Content is the page capture in the requested format.
	Content string `json:"content,omitempty"`

	// Format echoes the effective snapshot format.
	Format string `json:"format,omitempty"`

	// Title is the captured page title.
	Title string `json:"title,omitempty"`

	// SourceURL is the page URL at capture time.
	SourceURL string `json:"source_url,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorResponse is the generic error body used by middleware and endpoints
// that have no richer payload.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// StepsMs is the time spent running pre-extraction steps.
	StepsMs int64 `json:"steps_ms,omitempty"`

	// ExtractMs is the time spent locating the table and walking its rows.
	ExtractMs int64 `json:"extract_ms,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string `json:"status"` // "healthy"
	Uptime       string `json:"uptime"`
	SessionState string `json:"session_state"`
	Tables       int    `json:"tables"` // number of configured tables
	Version      string `json:"version"`
}
