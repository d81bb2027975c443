package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tabgate/models"
)

// Auth gates the API behind pre-shared keys. A request presents its key as
// either `X-API-Key: <key>` or `Authorization: Bearer <key>`. With no keys
// configured everything passes through, the default posture for a tool bound
// to 127.0.0.1.
func Auth(apiKeys []string) gin.HandlerFunc {
	valid := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			valid[k] = struct{}{}
		}
	}
	if len(valid) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := requestKey(c)
		if key == "" {
			abortUnauthorized(c, "missing API key: set X-API-Key or Authorization: Bearer <key>")
			return
		}
		if _, ok := valid[key]; !ok {
			abortUnauthorized(c, "invalid API key")
			return
		}
		// Downstream middleware keys rate limits off the caller identity.
		c.Set("api_key", key)
		c.Next()
	}
}

// requestKey pulls the API key from either supported header.
func requestKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	const bearer = "Bearer "
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, bearer) {
		return auth[len(bearer):]
	}
	return ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: msg,
		},
	})
}
