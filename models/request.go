package models

// OpenSessionRequest is the payload for POST /api/v1/session/open.
//
// Credentials are used once to fill the login form and are not persisted
// anywhere; 2FA and the final login submission are left to the operator in
// the visible browser window.
type OpenSessionRequest struct {
	// Username is typed into the configured username field. Required.
	Username string `json:"username" binding:"required"`

	// Password is typed into the configured password field. Required.
	Password string `json:"password" binding:"required"`
}

// SnapshotRequest is the payload for POST /api/v1/snapshot.
type SnapshotRequest struct {
	// Format controls the snapshot output.
	// Allowed: "markdown" (default), "text", "html", "article".
	Format string `json:"format,omitempty" binding:"omitempty,oneof=markdown text html article"`

	// CSSSelector optionally restricts the snapshot to the matched elements'
	// outer HTML. When nothing matches, the full page is used.
	CSSSelector string `json:"css_selector,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *SnapshotRequest) Defaults() {
	if r.Format == "" {
		r.Format = "markdown"
	}
}
