package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/pharmacy-api/internal/config"
	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct{}

func (fakeAuth) Authenticate(_ context.Context, token string) (*model.Caller, error) {
	if token != "good" {
		return nil, errors.InvalidToken(nil)
	}
	return &model.Caller{ID: 5, Role: model.RoleDoctor}, nil
}

type fakeSites map[int64]*model.Site

func (f fakeSites) Resolve(_ context.Context, id int64) (*model.Site, error) {
	return f[id], nil
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := gin.New()
	r.GET("/me", Auth(fakeAuth{}), func(c *gin.Context) {
		caller, ok := CurrentCaller(c)
		assert.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": caller.ID})
	})

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", map[string]string{"Authorization": "Basic abc"}).Code)

	w := perform(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token invalide")

	w = perform(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":5}`, w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/whoami", OptionalAuth(fakeAuth{}), func(c *gin.Context) {
		caller, ok := CurrentCaller(c)
		c.JSON(http.StatusOK, gin.H{"known": ok, "id": caller.ID})
	})

	w := perform(r, http.MethodGet, "/whoami", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"known":false,"id":0}`, w.Body.String())

	w = perform(r, http.MethodGet, "/whoami", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"known":true,"id":5}`, w.Body.String())

	w = perform(r, http.MethodGet, "/whoami", map[string]string{"Authorization": "Bearer bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSiteContext(t *testing.T) {
	sites := fakeSites{
		1: {ID: 1, Name: "Centre", IsActive: true},
		2: {ID: 2, Name: "Fermé", IsActive: false},
	}
	r := gin.New()
	r.GET("/", SiteContext(sites), func(c *gin.Context) {
		if id := SiteID(c); id != nil {
			c.JSON(http.StatusOK, gin.H{"site": *id})
			return
		}
		c.JSON(http.StatusOK, gin.H{"site": nil})
	})

	w := perform(r, http.MethodGet, "/", nil)
	assert.JSONEq(t, `{"site":null}`, w.Body.String())

	w = perform(r, http.MethodGet, "/", map[string]string{HeaderSiteID: "1"})
	assert.JSONEq(t, `{"site":1}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/", map[string]string{HeaderSiteID: "abc"}).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/", map[string]string{HeaderSiteID: "2"}).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/", map[string]string{HeaderSiteID: "9"}).Code)
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, "Trop de requêtes")
	r := gin.New()
	r.GET("/", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)

	w := perform(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Trop de requêtes")

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.9:1234"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, other)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(config.CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization"},
	}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodOptions, "/", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))

	w = perform(r, http.MethodGet, "/", map[string]string{"Origin": "http://evil.example"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNoRouteAndSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(SizeLimit(4))
	r.NoRoute(NoRoute())
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Route non trouvée"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.ContentLength = 10
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := perform(r, http.MethodGet, "/", nil)
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
	assert.Equal(t, w.Header().Get(HeaderXRequestID), w.Body.String())

	const rid = "0b7c3f5e-2d4a-4f0e-9a51-2c1f2e6d9b10"
	w = perform(r, http.MethodGet, "/", map[string]string{HeaderXRequestID: rid})
	assert.Equal(t, rid, w.Body.String())
}
