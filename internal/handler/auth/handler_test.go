package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/pharmacy-api/internal/middleware"
	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/pkg/errors"
	"github.com/jwalitptl/pharmacy-api/pkg/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validator.Register(); err != nil {
		panic(err)
	}
}

type stubService struct {
	registered model.RegisterRequest
	registrar  *model.Caller
}

func (s *stubService) Login(_ context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	if req.Password != "secret123" {
		return nil, errors.Unauthorized("Email ou mot de passe incorrect")
	}
	return &model.AuthResponse{User: &model.User{ID: 1, Email: req.Email}, Token: "t"}, nil
}

func (s *stubService) Register(_ context.Context, registrar *model.Caller, req model.RegisterRequest) (*model.AuthResponse, error) {
	s.registered = req
	s.registrar = registrar
	return &model.AuthResponse{User: &model.User{ID: 2, Email: req.Email}, Token: "t"}, nil
}

func (s *stubService) Refresh(context.Context, string) (string, error) {
	return "fresh", nil
}

func (s *stubService) Profile(_ context.Context, userID int64) (*model.Profile, error) {
	return &model.Profile{User: &model.User{ID: userID}, Sites: []*model.Site{}}, nil
}

func newRouter(svc Service) *gin.Engine {
	pass := func(c *gin.Context) { c.Next() }
	return newLimitedRouter(svc, pass)
}

func newLimitedRouter(svc Service, limit gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	authenticate := func(c *gin.Context) {
		c.Set(middleware.ContextCaller, model.Caller{ID: 9, Role: model.RolePharmacist})
		c.Next()
	}
	identify := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "Bearer admin" {
			c.Set(middleware.ContextCaller, model.Caller{ID: 1, Role: model.RoleAdmin})
		}
		c.Next()
	}
	NewHandler(svc).RegisterRoutes(r.Group("/api"), authenticate, identify, limit)
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	r := newRouter(&stubService{})

	w := post(r, "/api/auth/login", `{"email":"a@b.fr","password":"secret123"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"t"`)

	w = post(r, "/api/auth/login", `{"email":"a@b.fr","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(r, "/api/auth/login", `{"email":"not-an-email","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "email valide")
}

func TestRegister_RoleValidation(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	w := post(r, "/api/auth/register",
		`{"first_name":"Awa","last_name":"Diallo","email":"a@b.fr","password":"secret123","role":"janitor"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Rôle invalide")

	w = post(r, "/api/auth/register",
		`{"first_name":"Awa","last_name":"Diallo","email":"a@b.fr","password":"secret123","role":"doctor"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, model.RoleDoctor, svc.registered.Role)
	assert.Nil(t, svc.registrar)
}

func TestRegister_PassesAuthenticatedRegistrar(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(
		`{"first_name":"Awa","last_name":"Diallo","email":"a@b.fr","password":"secret123","role":"admin"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer admin")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.registrar)
	assert.Equal(t, model.RoleAdmin, svc.registrar.Role)
}

func TestCredentialRoutesAreThrottled(t *testing.T) {
	var hits []string
	limit := func(c *gin.Context) {
		hits = append(hits, c.FullPath())
		c.Next()
	}
	r := newLimitedRouter(&stubService{}, limit)

	post(r, "/api/auth/login", `{"email":"a@b.fr","password":"secret123"}`)
	post(r, "/api/auth/register", `{"first_name":"Awa","last_name":"Diallo","email":"a@b.fr","password":"secret123"}`)
	post(r, "/api/auth/refresh", `{"refreshToken":"abc"}`)
	post(r, "/api/auth/logout", `{}`)

	assert.Equal(t, []string{"/api/auth/login", "/api/auth/register", "/api/auth/refresh"}, hits)
}

func TestRefreshAndProfile(t *testing.T) {
	r := newRouter(&stubService{})

	w := post(r, "/api/auth/refresh", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, "/api/auth/refresh", `{"refreshToken":"abc"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"fresh"`)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":9`)
}
