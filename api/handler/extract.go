package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tabgate/models"
)

// Extract handles POST /api/v1/extract/:table.
//
// The table name must match a configured table. On success the CSV file has
// already been written (the file is the durable result; the JSON body mirrors
// it for display). On any failure no file is touched.
func Extract(core Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("table")

		table, outputPath, timing, err := core.ExtractTable(c.Request.Context(), name)
		if err != nil {
			respondError(c, err)
			return
		}

		slog.Info("extraction completed",
			"table", name,
			"rows", table.RowCount(),
			"output", outputPath,
			"total_ms", timing.TotalMs,
		)

		c.JSON(http.StatusOK, models.ExtractResponse{
			Success:    true,
			Table:      table,
			OutputPath: outputPath,
			Timing:     timing,
		})
	}
}
