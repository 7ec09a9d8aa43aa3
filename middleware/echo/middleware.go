package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/reoring/ormvalues"
	"github.com/reoring/ormvalues/middleware"
)

// Negotiate reads the output mode from the query parameter param
// (middleware.DefaultParam when empty) and stores it in the request context,
// or returns 400 with Issues when the value is not a known mode.
func Negotiate(param string) echo.MiddlewareFunc {
	if param == "" {
		param = middleware.DefaultParam
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			mode, err := middleware.ParseMode(c.QueryParam(param))
			if err != nil {
				if iss, ok := ormvalues.AsIssues(err); ok {
					return c.JSON(http.StatusBadRequest, middleware.ErrorPayload(iss))
				}
				return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
			}
			ctx := middleware.ContextWithMode(c.Request().Context(), mode)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// JSON renders v in the negotiated mode and sends it with status code.
func JSON(c echo.Context, code int, v any, opts ...ormvalues.ExtractOpt) error {
	return c.JSON(code, middleware.Render(c.Request().Context(), v, opts...))
}

// GetMode fetches the negotiated mode from echo.Context.
func GetMode(c echo.Context) (middleware.Mode, bool) {
	return middleware.ModeFromContext(c.Request().Context())
}
