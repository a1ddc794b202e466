package middleware

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/pkg/errors"
	"github.com/jwalitptl/pharmacy-api/pkg/httputil"
)

const (
	HeaderSiteID  = "X-Site-ID"
	ContextSiteID = "site_id"
)

// SiteResolver looks a site up by id, returning nil when it does not exist.
type SiteResolver interface {
	Resolve(ctx context.Context, id int64) (*model.Site, error)
}

// SiteContext validates the X-Site-ID header, when present, against known
// active sites and stores the id for handlers.
func SiteContext(r SiteResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderSiteID)
		if raw == "" {
			c.Next()
			return
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httputil.RespondWithError(c, errors.BadRequest("En-tête X-Site-ID invalide", err))
			return
		}

		site, err := r.Resolve(c.Request.Context(), id)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		if site == nil || !site.IsActive {
			httputil.RespondWithError(c, errors.BadRequest("Site inconnu ou inactif", nil))
			return
		}

		c.Set(ContextSiteID, id)
		c.Next()
	}
}

// SiteID returns the site selected through the X-Site-ID header.
func SiteID(c *gin.Context) *int64 {
	v, ok := c.Get(ContextSiteID)
	if !ok {
		return nil
	}
	id, ok := v.(int64)
	if !ok {
		return nil
	}
	return &id
}
