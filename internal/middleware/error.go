package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/patient-companion/pkg/httputil"
	"github.com/jwalitptl/patient-companion/pkg/logger"
)

// ErrorHandler renders errors handlers attached with c.Error when they did
// not write a response themselves.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, e := range c.Errors {
			log.Error(e.Err, "Request error",
				"request_id", c.GetString(ContextRequestID),
				"path", c.Request.URL.Path,
				"method", c.Request.Method)
		}

		if c.Writer.Written() {
			return
		}
		httputil.RespondWithError(c, c.Errors.Last().Err)
	}
}
