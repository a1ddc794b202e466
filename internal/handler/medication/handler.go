package medication

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pharmacy-api/internal/handler"
	"github.com/jwalitptl/pharmacy-api/internal/model"
	medicationsvc "github.com/jwalitptl/pharmacy-api/internal/service/medication"
	"github.com/jwalitptl/pharmacy-api/pkg/httputil"
)

type Service interface {
	List(ctx context.Context, caller model.Caller, filter model.MedicationFilter, page model.Page) (*model.ListResult[*model.Medication], error)
	Stock(ctx context.Context, caller model.Caller, view medicationsvc.StockView, page model.Page) (*model.ListResult[*model.Medication], error)
	Get(ctx context.Context, caller model.Caller, id int64) (*model.Medication, error)
	Create(ctx context.Context, caller model.Caller, req model.CreateMedicationRequest) (*model.Medication, error)
	Update(ctx context.Context, caller model.Caller, id int64, req model.UpdateMedicationRequest) (*model.Medication, error)
	AdjustQuantity(ctx context.Context, caller model.Caller, id int64, req model.AdjustQuantityRequest) (*model.Medication, error)
	Delete(ctx context.Context, caller model.Caller, id int64) error
	Deactivate(ctx context.Context, caller model.Caller, id int64) (*model.Medication, error)
	Reactivate(ctx context.Context, caller model.Caller, id int64) (*model.Medication, error)
	Discontinue(ctx context.Context, caller model.Caller, id int64, req model.DiscontinueMedicationRequest) (*model.Medication, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	medications := r.Group("/medications")
	{
		medications.GET("", h.List)
		medications.GET("/low-stock", h.stock(medicationsvc.ViewLowStock))
		medications.GET("/out-of-stock", h.stock(medicationsvc.ViewOutOfStock))
		medications.GET("/expired", h.stock(medicationsvc.ViewExpired))
		medications.GET("/:id", h.Get)
		medications.POST("", h.Create)
		medications.PUT("/:id", h.Update)
		medications.PUT("/:id/quantity", h.AdjustQuantity)
		medications.DELETE("/:id", h.Delete)
		medications.PATCH("/:id/deactivate", h.Deactivate)
		medications.PATCH("/:id/reactivate", h.Reactivate)
		medications.PATCH("/:id/discontinue", h.Discontinue)
	}
}

func (h *Handler) List(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	filter := model.MedicationFilter{
		Search: c.Query("search"),
		Status: model.MedicationStatus(c.Query("status")),
	}

	res, err := h.svc.List(c.Request.Context(), caller, filter, handler.Page(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	handler.RespondList(c, res)
}

func (h *Handler) stock(view medicationsvc.StockView) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := handler.Caller(c)
		if !ok {
			return
		}
		res, err := h.svc.Stock(c.Request.Context(), caller, view, handler.Page(c))
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		handler.RespondList(c, res)
	}
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

	m, err := h.svc.Get(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, m)
}

func (h *Handler) Create(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req model.CreateMedicationRequest
	if !handler.Bind(c, &req) {
		return
	}

	m, err := h.svc.Create(c.Request.Context(), caller, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, "Médicament créé avec succès", m)
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
	var req model.UpdateMedicationRequest
	if !handler.Bind(c, &req) {
		return
	}

	m, err := h.svc.Update(c.Request.Context(), caller, id, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Médicament mis à jour avec succès", m)
}

func (h *Handler) AdjustQuantity(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.AdjustQuantityRequest
	if !handler.Bind(c, &req) {
		return
	}

	m, err := h.svc.AdjustQuantity(c.Request.Context(), caller, id, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Quantité mise à jour avec succès", m)
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
	httputil.RespondWithMessage(c, "Médicament supprimé avec succès", nil)
}

func (h *Handler) Deactivate(c *gin.Context) {
	h.transition(c, "Médicament désactivé", h.svc.Deactivate)
}

func (h *Handler) Reactivate(c *gin.Context) {
	h.transition(c, "Médicament réactivé", h.svc.Reactivate)
}

func (h *Handler) transition(c *gin.Context, message string, fn func(context.Context, model.Caller, int64) (*model.Medication, error)) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	m, err := fn(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, message, m)
}

// Discontinue requires {reason, confirmation:"ARRETER"}.
func (h *Handler) Discontinue(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.DiscontinueMedicationRequest
	if !handler.Bind(c, &req) {
		return
	}

	m, err := h.svc.Discontinue(c.Request.Context(), caller, id, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Médicament arrêté", m)
}
