package site

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pharmacy-api/internal/handler"
	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/pkg/httputil"
)

type Service interface {
	List(ctx context.Context, activeOnly bool) ([]*model.Site, error)
	Get(ctx context.Context, id int64) (*model.Site, error)
	Create(ctx context.Context, caller model.Caller, req model.SiteRequest) (*model.Site, error)
	Update(ctx context.Context, caller model.Caller, id int64, req model.SiteRequest) (*model.Site, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	sites := r.Group("/sites")
	{
		sites.GET("", h.List)
		sites.GET("/:id", h.Get)
		sites.POST("", h.Create)
		sites.PUT("/:id", h.Update)
	}
}

// List returns all sites, or only active ones with ?active=true.
func (h *Handler) List(c *gin.Context) {
	sites, err := h.svc.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, sites)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	site, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, site)
}

func (h *Handler) Create(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req model.SiteRequest
	if !handler.Bind(c, &req) {
		return
	}

	site, err := h.svc.Create(c.Request.Context(), caller, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, "Site créé avec succès", site)
}

func (h *Handler) Update(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.SiteRequest
	if !handler.Bind(c, &req) {
		return
	}

	site, err := h.svc.Update(c.Request.Context(), caller, id, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Site mis à jour avec succès", site)
}
