package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tabgate/models"
)

// OpenSession handles POST /api/v1/session/open.
//
// Flow:
//  1. Bind and validate the request body (username and password required).
//  2. Launch the visible browser, navigate to the login page and pre-fill
//     the credential fields.
//  3. Return immediately — the operator completes 2FA and submits the form
//     in the browser window. There is no login-success signal to wait for.
func OpenSession(core Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.OpenSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewSessionError(
				models.ErrCodeInvalidInput,
				"invalid request body: "+err.Error(),
				err,
			))
			return
		}

		slog.Info("opening session", "login_url", core.LoginURL())

		if err := core.OpenSession(c.Request.Context(), req.Username, req.Password); err != nil {
			respondError(c, err)
			return
		}

		state, currentURL, openedAt := core.SessionState()
		c.JSON(http.StatusOK, models.SessionResponse{
			Success:    true,
			State:      state,
			LoginURL:   core.LoginURL(),
			OpenedAt:   openedAt.Format(time.RFC3339),
			CurrentURL: currentURL,
		})
	}
}

// SessionStatus handles GET /api/v1/session.
func SessionStatus(core Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, currentURL, openedAt := core.SessionState()

		resp := models.SessionResponse{
			Success:    true,
			State:      state,
			CurrentURL: currentURL,
		}
		if state != models.SessionStateNone {
			resp.LoginURL = core.LoginURL()
			if !openedAt.IsZero() {
				resp.OpenedAt = openedAt.Format(time.RFC3339)
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// CloseSession handles DELETE /api/v1/session. Closing with no session open
// is not an error.
func CloseSession(core Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		core.CloseSession()
		c.JSON(http.StatusOK, models.SessionResponse{
			Success: true,
			State:   models.SessionStateNone,
		})
	}
}
