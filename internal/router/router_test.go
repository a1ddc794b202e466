package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/pharmacy-api/internal/config"
	"github.com/jwalitptl/pharmacy-api/internal/handler/auth"
	"github.com/jwalitptl/pharmacy-api/internal/handler/consultation"
	"github.com/jwalitptl/pharmacy-api/internal/handler/health"
	"github.com/jwalitptl/pharmacy-api/internal/handler/medication"
	"github.com/jwalitptl/pharmacy-api/internal/handler/prescription"
	"github.com/jwalitptl/pharmacy-api/internal/handler/site"
	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/pkg/errors"
	"github.com/jwalitptl/pharmacy-api/pkg/metrics"
)

type denyAll struct{}

func (denyAll) Authenticate(context.Context, string) (*model.Caller, error) {
	return nil, errors.InvalidToken(nil)
}

type noSites struct{}

func (noSites) Resolve(context.Context, int64) (*model.Site, error) { return nil, nil }

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{MaxBodyBytes: 1 << 20, RequestTimeout: time.Second},
		CORS:        config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	reg := prometheus.NewRegistry()

	r := NewRouter(cfg, Handlers{
		Health:        health.NewHandler(okPinger{}, reg, health.Info{Name: "Pharmacy API"}),
		Auth:          auth.NewHandler(nil),
		Sites:         site.NewHandler(nil),
		Medications:   medication.NewHandler(nil),
		Consultations: consultation.NewHandler(nil),
		Prescriptions: prescription.NewHandler(nil),
	}, denyAll{}, noSites{}, metrics.New("test", reg))
	r.Setup()
	return r.Engine()
}

func TestRouter(t *testing.T) {
	engine := newTestRouter()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
		{http.MethodGet, "/api/consultations", http.StatusUnauthorized},
		{http.MethodGet, "/api/medical-prescriptions/1", http.StatusUnauthorized},
		{http.MethodGet, "/api/medications/low-stock", http.StatusUnauthorized},
		{http.MethodGet, "/api/sites", http.StatusUnauthorized},
		{http.MethodPost, "/api/auth/logout", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}
