package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/conceptgraph/reasoner/internal/platform/ctxutil"
)

const headerRequestID = "X-Request-Id"

// RequestCorrelation gives every request a request id (the incoming
// X-Request-Id header if present, otherwise a new uuid), stashing it on the
// request context for logging and for the X-Request-Id response header.
func RequestCorrelation() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}

		ctx := ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{RequestID: reqID})
		c.Request = c.Request.WithContext(ctx)
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}
