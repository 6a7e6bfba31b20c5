package middlewares

import (
	"bitbucket.org/mmdatafocus/garage_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CorrelationMiddleware tags every request with a correlation id so log
// lines from one request can be stitched together. An incoming header wins
// over a generated id.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := c.GetHeader("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}

		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Correlation-Id", correlationId)

		c.Next()
	}
}
