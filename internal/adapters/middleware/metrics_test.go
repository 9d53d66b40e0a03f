package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsMiddleware_RecordsPatternAndStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /children/{child_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := MetricsMiddleware(mux)

	counter := httpRequestsTotal.WithLabelValues("GET /children/{child_id}", "GET", "404")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest("GET", "/children/7d3c2a8e-0f1b-4c55-9a51-2b8f0b1f6f10", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestMetricsMiddleware_UnmatchedDefaultsToOK(t *testing.T) {
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	counter := httpRequestsTotal.WithLabelValues("unmatched", "GET", "200")
	before := testutil.ToFloat64(counter)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/anything", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
