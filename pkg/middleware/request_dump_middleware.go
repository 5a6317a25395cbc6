package middleware

import (
	"bytes"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crypto-persona-backend/utilities"
)

// maxDumpBody caps how much of a request body is logged.
const maxDumpBody = 4 << 10

// RequestDumpMiddleware logs every request at debug level, body included. The body is
// restored for the handlers.
func RequestDumpMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		dumped := bodyBytes
		if len(dumped) > maxDumpBody {
			dumped = dumped[:maxDumpBody]
		}
		utilities.L().Debug("request dump",
			zap.String("request_id", RequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("url", c.Request.URL.String()),
			zap.Any("headers", c.Request.Header),
			zap.Any("params", c.Params),
			zap.ByteString("body", dumped),
		)

		c.Next()
	}
}
