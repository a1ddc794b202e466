package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/pkg/errors"
	"github.com/jwalitptl/pharmacy-api/pkg/httputil"
)

const ContextCaller = "caller"

// Authenticator resolves a bearer token to the calling user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*model.Caller, error)
}

// Auth rejects requests without a valid bearer token and stores the caller
// in the gin context.
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			httputil.RespondWithError(c, errors.Unauthorized("Token d'accès requis"))
			return
		}
		if identify(c, a) {
			c.Next()
		}
	}
}

// OptionalAuth lets anonymous requests through. A request that does carry
// an Authorization header must still present a valid token.
func OptionalAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		if identify(c, a) {
			c.Next()
		}
	}
}

func identify(c *gin.Context, a Authenticator) bool {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		httputil.RespondWithError(c, errors.Unauthorized("Format d'autorisation invalide"))
		return false
	}

	caller, err := a.Authenticate(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		httputil.RespondWithError(c, err)
		return false
	}

	c.Set(ContextCaller, *caller)
	return true
}

// CurrentCaller returns the caller stored by Auth.
func CurrentCaller(c *gin.Context) (model.Caller, bool) {
	v, ok := c.Get(ContextCaller)
	if !ok {
		return model.Caller{}, false
	}
	caller, ok := v.(model.Caller)
	return caller, ok
}
