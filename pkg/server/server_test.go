package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/georgestephanis/support-widget/pkg/logging"
	"github.com/georgestephanis/support-widget/pkg/monitoring"
)

func TestSetupServiceRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logging.NewLogger()
	hc := monitoring.NewHealthChecker("svc", "v1")
	mc := monitoring.NewMetricsCollectorWithRegistry("svc", "v1", "abc", prometheus.NewRegistry())
	r := SetupServiceRouter(logger, "svc", hc, mc)
	r.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })

	for _, path := range []string{"/ping", "/health", "/metrics"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequestWithContext(context.Background(), "GET", path, nil)
		r.ServeHTTP(w, req)
		if w.Code != 200 {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestDefaultConfigUsesPortEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	cfg := DefaultConfig("svc", "18000")
	if cfg.Port != "9999" {
		t.Fatalf("expected PORT override, got %s", cfg.Port)
	}
	t.Setenv("PORT", "")
	if DefaultConfig("svc", "18000").Port != "18000" {
		t.Fatalf("expected default port")
	}
}
