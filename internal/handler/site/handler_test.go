package site

import (
	"context"
	"encoding/json"
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
	activeOnly *bool
	created    *model.SiteRequest
}

func (s *stubService) List(_ context.Context, activeOnly bool) ([]*model.Site, error) {
	s.activeOnly = &activeOnly
	return []*model.Site{{ID: 1, Name: "Centre", IsActive: true}}, nil
}

func (s *stubService) Get(_ context.Context, id int64) (*model.Site, error) {
	if id != 1 {
		return nil, errors.NotFound("Site non trouvé")
	}
	return &model.Site{ID: 1, Name: "Centre"}, nil
}

func (s *stubService) Create(_ context.Context, caller model.Caller, req model.SiteRequest) (*model.Site, error) {
	if caller.Role != model.RoleAdmin {
		return nil, errors.Forbidden("Accès non autorisé")
	}
	s.created = &req
	return &model.Site{ID: 9, Name: req.Name, IsActive: true}, nil
}

func (s *stubService) Update(_ context.Context, _ model.Caller, id int64, req model.SiteRequest) (*model.Site, error) {
	return &model.Site{ID: id, Name: req.Name}, nil
}

func newRouter(svc Service, role model.Role) *gin.Engine {
	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		c.Set(middleware.ContextCaller, model.Caller{ID: 1, Role: role})
	})
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestList_ActiveFilter(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc, model.RolePharmacist)

	w := do(r, http.MethodGet, "/api/sites?active=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.activeOnly)
	assert.True(t, *svc.activeOnly)

	do(r, http.MethodGet, "/api/sites", "")
	assert.False(t, *svc.activeOnly)
}

func TestGet(t *testing.T) {
	r := newRouter(&stubService{}, model.RolePharmacist)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/sites/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/sites/2", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/sites/abc", "").Code)
}

func TestCreate(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc, model.RoleAdmin)

	w := do(r, http.MethodPost, "/api/sites", `{"name":"Annexe Nord","phone":"0102030405"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Success bool       `json:"success"`
		Message string     `json:"message"`
		Data    model.Site `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Site créé avec succès", body.Message)
	assert.Equal(t, int64(9), body.Data.ID)
	require.NotNil(t, svc.created)
	assert.Equal(t, "0102030405", *svc.created.Phone)
}

func TestCreate_Rejected(t *testing.T) {
	w := do(newRouter(&stubService{}, model.RoleAdmin), http.MethodPost, "/api/sites", `{"name":"A"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(newRouter(&stubService{}, model.RolePharmacist), http.MethodPost, "/api/sites", `{"name":"Annexe"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdate(t *testing.T) {
	w := do(newRouter(&stubService{}, model.RoleAdmin), http.MethodPut, "/api/sites/3", `{"name":"Centre-ville"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Site mis à jour avec succès")
}
