package response

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// The public surface answers with bare status codes. Rejections carry no
// body at all, so a probing client learns nothing about which check failed.
// The only fixed payload the collector serves itself is the robots policy.

// RobotsBody disallows all crawling.
const RobotsBody = "User-agent: *\nDisallow: /\n"

// NoContent sends 204 with an empty body, the only success response.
func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// BadRequest sends 400 with an empty body.
func BadRequest(c echo.Context) error {
	return c.NoContent(http.StatusBadRequest)
}

// InternalError sends 500 with an empty body.
func InternalError(c echo.Context) error {
	return c.NoContent(http.StatusInternalServerError)
}

// Robots sends the fixed robots exclusion payload.
func Robots(c echo.Context) error {
	return c.String(http.StatusOK, RobotsBody)
}

// ErrorHandler converts every error reaching Echo, including the router's
// not-found and method-not-allowed errors and the body limit rejection, into
// a bare status code. observe, when non-nil, receives the final status.
func ErrorHandler(logger zerolog.Logger, observe func(status int)) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}
		if code >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		} else {
			logger.Debug().Int("status", code).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request rejected")
		}
		if observe != nil {
			observe(code)
		}
		if c.Response().Committed {
			return
		}
		if err := c.NoContent(code); err != nil {
			logger.Error().Err(err).Msg("write empty response")
		}
	}
}
