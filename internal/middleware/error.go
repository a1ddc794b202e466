package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/pharmacy-api/pkg/errors"
	"github.com/jwalitptl/pharmacy-api/pkg/httputil"
)

// ErrorLogger logs the errors handlers attached to the context. Internal
// failures are logged at error level with their cause; expected failures
// such as validation or not-found only at debug.
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		l := zerolog.Ctx(c.Request.Context())
		for _, e := range c.Errors {
			event := l.Error()
			if appErr, ok := errors.As(errors.FromDB(e.Err)); ok && appErr.HTTPStatus() < http.StatusInternalServerError {
				event = l.Debug()
			}
			event.Err(e.Err).
				Str("method", c.Request.Method).
				Str("path", c.FullPath()).
				Msg("Request error")
		}
	}
}

// NoRoute answers unknown routes with the standard envelope.
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		httputil.RespondWithFailure(c, http.StatusNotFound, "Route non trouvée")
	}
}
