package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CacheConfig describes the Cache-Control header sent on GET responses.
// Mutating requests always get no-store.
type CacheConfig struct {
	MaxAge  int
	NoStore bool
	Vary    []string
}

// NoStoreConfig is used for patient records.
func NoStoreConfig() CacheConfig {
	return CacheConfig{NoStore: true}
}

// CatalogConfig lets clients briefly reuse reference data such as sites.
func CatalogConfig() CacheConfig {
	return CacheConfig{MaxAge: 60, Vary: []string{"Authorization"}}
}

func CacheControl(cfg CacheConfig) gin.HandlerFunc {
	value := "no-store"
	if !cfg.NoStore {
		value = "private, max-age=" + strconv.Itoa(cfg.MaxAge) + ", must-revalidate"
	}
	vary := strings.Join(cfg.Vary, ", ")

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Header("Cache-Control", "no-store")
			c.Next()
			return
		}
		c.Header("Cache-Control", value)
		if vary != "" {
			c.Header("Vary", vary)
		}
		c.Next()
	}
}
