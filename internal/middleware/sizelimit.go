package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pharmacy-api/pkg/httputil"
)

// SizeLimit rejects bodies larger than maxBytes. Declared lengths are
// checked up front; chunked bodies are cut off while reading.
func SizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			httputil.RespondWithFailure(c, http.StatusRequestEntityTooLarge, "Requête trop volumineuse")
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
