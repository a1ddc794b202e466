package consultation

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pharmacy-api/internal/handler"
	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/pkg/httputil"
)

type Service interface {
	Create(ctx context.Context, caller model.Caller, in model.ConsultationInput) (*model.Consultation, error)
	Get(ctx context.Context, caller model.Caller, id int64) (*model.Consultation, error)
	List(ctx context.Context, caller model.Caller, filter model.RecordFilter, page model.Page) (*model.ListResult[*model.Consultation], error)
	ListByDoctor(ctx context.Context, caller model.Caller, doctorID int64, filter model.RecordFilter, page model.Page) (*model.ListResult[*model.Consultation], error)
	Stats(ctx context.Context, caller model.Caller, filter model.StatsFilter) (*model.ConsultationStats, error)
	Update(ctx context.Context, caller model.Caller, id int64, u model.ConsultationUpdate) (*model.Consultation, error)
	Cancel(ctx context.Context, caller model.Caller, id int64) (*model.Consultation, error)
	Delete(ctx context.Context, caller model.Caller, id int64) error
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the consultation endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	consultations := r.Group("/consultations")
	{
		consultations.POST("", h.Create)
		consultations.GET("", h.List)
		consultations.GET("/stats", h.Stats)
		consultations.GET("/doctor/:doctor_id", h.ListByDoctor)
		consultations.GET("/:id", h.Get)
		consultations.PUT("/:id", h.Update)
		consultations.PATCH("/:id/cancel", h.Cancel)
		consultations.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	var in model.ConsultationInput
	if !handler.Bind(c, &in) {
		return
	}
	in.SiteID = handler.Site(c, caller, in.SiteID)

	consultation, err := h.svc.Create(c.Request.Context(), caller, in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, "Consultation créée avec succès", consultation)
}

func (h *Handler) List(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	filter, ok := handler.RecordFilter(c)
	if !ok {
		return
	}

	res, err := h.svc.List(c.Request.Context(), caller, filter, handler.Page(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	handler.RespondList(c, res)
}

func (h *Handler) ListByDoctor(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	doctorID, ok := handler.ParamID(c, "doctor_id")
	if !ok {
		return
	}
	filter, ok := handler.RecordFilter(c)
	if !ok {
		return
	}

	res, err := h.svc.ListByDoctor(c.Request.Context(), caller, doctorID, filter, handler.Page(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	handler.RespondList(c, res)
}

func (h *Handler) Stats(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	filter, ok := handler.StatsFilter(c)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), caller, filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}

func (h *Handler) Get(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	consultation, err := h.svc.Get(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, consultation)
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
	var u model.ConsultationUpdate
	if !handler.Bind(c, &u) {
		return
	}

	consultation, err := h.svc.Update(c.Request.Context(), caller, id, u)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Consultation mise à jour avec succès", consultation)
}

func (h *Handler) Cancel(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	consultation, err := h.svc.Cancel(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Consultation annulée", consultation)
}

func (h *Handler) Delete(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), caller, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Consultation supprimée avec succès", nil)
}
