package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	m := New()

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}).Methods(http.MethodPost)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues(http.MethodPost, "/api/analyze", "400")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requestInFlight))
}

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordAnalysis("success", "ai")
	m.RecordAnalysis("success", "ai")
	m.RecordAnalysis("client_input", "")
	m.RecordClassifierRejection()
	m.ObserveAICall("OpenAI", "rate_limit", 150*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analysisTotal.WithLabelValues("success", "ai")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analysisTotal.WithLabelValues("client_input", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.classifierRejections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aiAttemptsTotal.WithLabelValues("OpenAI", "rate_limit")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RecordClassifierRejection()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "invoice_classifier_rejections_total 1"))
}
