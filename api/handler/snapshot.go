package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tabgate/models"
)

// Snapshot handles POST /api/v1/snapshot. It captures the current page of the
// live session in the requested format without navigating or mutating it, so
// the operator can inspect what the extractor would see.
func Snapshot(core Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SnapshotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewSessionError(
				models.ErrCodeInvalidInput,
				"invalid request body: "+err.Error(),
				err,
			))
			return
		}
		req.Defaults()

		resp, err := core.SnapshotPage(c.Request.Context(), req.Format, req.CSSSelector)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
