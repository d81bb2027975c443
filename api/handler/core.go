package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tabgate/models"
)

// Core is the operation surface the HTTP handlers are built on. The concrete
// implementation is service.Service; tests substitute a fake.
type Core interface {
	OpenSession(ctx context.Context, username, password string) error
	SessionState() (state, currentURL string, openedAt time.Time)
	CloseSession()
	LoginURL() string
	TableNames() []string
	ExtractTable(ctx context.Context, name string) (*models.ExtractedTable, string, models.TimingInfo, error)
	SnapshotPage(ctx context.Context, format, cssSelector string) (*models.SnapshotResponse, error)
}

// mapErrorToStatus translates internal error codes into HTTP status codes.
//
//	INVALID_INPUT                    → 400 (caller mistake)
//	UNAUTHORIZED                     → 401
//	ELEMENT_NOT_FOUND, TABLE_NOT_FOUND,
//	STALE_ELEMENT, STEP_FAILED,
//	SESSION_ACTIVE                   → 409 (page/session state conflict)
//	SESSION_CLOSED                   → 410 (the window is gone)
//	RATE_LIMITED                     → 429
//	BROWSER_LAUNCH_FAILED,
//	NAVIGATION_FAILED                → 502 (upstream browser/target failure)
//	everything else                  → 500
func mapErrorToStatus(code string) int {
	switch code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case models.ErrCodeElementNotFound,
		models.ErrCodeTableNotFound,
		models.ErrCodeStaleElement,
		models.ErrCodeStepFailed,
		models.ErrCodeSessionActive:
		return http.StatusConflict
	case models.ErrCodeSessionClosed:
		return http.StatusGone
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case models.ErrCodeBrowserLaunch, models.ErrCodeNavigation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorDetail extracts the structured detail from err, wrapping unexpected
// error types as INTERNAL_ERROR.
func errorDetail(err error) *models.ErrorDetail {
	var sessErr *models.SessionError
	if errors.As(err, &sessErr) {
		return sessErr.ToDetail()
	}
	return &models.ErrorDetail{
		Code:    models.ErrCodeInternal,
		Message: err.Error(),
	}
}

// respondError writes the uniform error body with the mapped status code.
func respondError(c *gin.Context, err error) {
	detail := errorDetail(err)
	slog.Error("request failed",
		"path", c.FullPath(),
		"code", detail.Code,
		"error", err,
	)
	c.JSON(mapErrorToStatus(detail.Code), models.ErrorResponse{
		Success: false,
		Error:   detail,
	})
}
