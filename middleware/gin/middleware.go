package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reoring/ormvalues"
	"github.com/reoring/ormvalues/middleware"
)

// Negotiate reads the output mode from the query parameter param
// (middleware.DefaultParam when empty), stores it in the request context, and
// aborts with 400 and an Issues payload when the value is not a known mode.
func Negotiate(param string) gin.HandlerFunc {
	if param == "" {
		param = middleware.DefaultParam
	}
	return func(c *gin.Context) {
		mode, err := middleware.ParseMode(c.Query(param))
		if err != nil {
			if iss, ok := ormvalues.AsIssues(err); ok {
				c.JSON(http.StatusBadRequest, middleware.ErrorPayload(iss))
				c.Abort()
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithMode(c.Request.Context(), mode))
		c.Next()
	}
}

// JSON renders v in the negotiated mode and writes it with status code.
func JSON(c *gin.Context, code int, v any, opts ...ormvalues.ExtractOpt) {
	c.JSON(code, middleware.Render(c.Request.Context(), v, opts...))
}

// GetMode fetches the negotiated mode from gin.Context.
func GetMode(c *gin.Context) (middleware.Mode, bool) {
	return middleware.ModeFromContext(c.Request.Context())
}
