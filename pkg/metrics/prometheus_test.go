package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_CountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	p := NewPrometheus(NewPrometheusOptions{
		Subsystem: "http",
		Registry:  reg,
		ReqCntURLLabelMappingFn: func(c *gin.Context) string {
			return c.FullPath()
		},
	})

	r := gin.New()
	p.Use(r)
	r.GET("/api/subjects/:subject_id/access", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/subjects/"+id+"/access", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	require.Equal(t, 2.0, testutil.ToFloat64(p.reqCnt.WithLabelValues("200", "GET", "/api/subjects/:subject_id/access", "")))

	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.True(t, strings.Contains(w.Body.String(), "examportal_http_req_total"))
}

func TestPaymentCollectorsRegistered(t *testing.T) {
	TransactionTransitions.WithLabelValues("INITIATED", "SUCCESS", "callback").Inc()
	require.GreaterOrEqual(t, testutil.ToFloat64(TransactionTransitions.WithLabelValues("INITIATED", "SUCCESS", "callback")), 1.0)
}
