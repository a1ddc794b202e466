package auth

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pharmacy-api/internal/handler"
	"github.com/jwalitptl/pharmacy-api/internal/middleware"
	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/pkg/httputil"
)

type Service interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Register(ctx context.Context, registrar *model.Caller, req model.RegisterRequest) (*model.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Profile(ctx context.Context, userID int64) (*model.Profile, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts /auth. authenticate guards the session routes,
// identify resolves an optional caller on register and limit throttles the
// credential endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authenticate, identify, limit gin.HandlerFunc) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", limit, h.Login)
		auth.POST("/register", limit, identify, h.Register)
		auth.POST("/refresh", limit, h.Refresh)
		auth.POST("/logout", authenticate, h.Logout)
		auth.GET("/profile", authenticate, h.Profile)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.Bind(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Connexion réussie", resp)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !handler.Bind(c, &req) {
		return
	}

	var registrar *model.Caller
	if caller, ok := middleware.CurrentCaller(c); ok {
		registrar = &caller
	}

	resp, err := h.svc.Register(c.Request.Context(), registrar, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, "Utilisateur créé avec succès", resp)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req model.RefreshTokenRequest
	if !handler.Bind(c, &req) {
		return
	}

	token, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"token": token})
}

// Logout is stateless: tokens are not tracked server side, the client drops
// them.
func (h *Handler) Logout(c *gin.Context) {
	httputil.RespondWithMessage(c, "Déconnexion réussie", nil)
}

func (h *Handler) Profile(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}

	profile, err := h.svc.Profile(c.Request.Context(), caller.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}
