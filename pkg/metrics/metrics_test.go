package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTopicFamily(t *testing.T) {
	tests := map[string]string{
		"dashboard:orders":     "dashboard:orders",
		"orders:customer:42":   "orders:customer",
		"notifications:waiter": "notifications:waiter",
		"menu:notifications:5": "menu:notifications",
		"plain":                "plain",
	}
	for in, want := range tests {
		if got := TopicFamily(in); got != want {
			t.Errorf("TopicFamily(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInstrumentUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Instrument())
	r.GET("/v1/orders/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/orders/:id", "204"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/orders/9", nil))

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/orders/:id", "204"))
	if after != before+1 {
		t.Fatalf("request counter = %v, want %v", after, before+1)
	}
}
