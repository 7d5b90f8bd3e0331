package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := New(reg)
	second := New(reg)

	first.ObserveCatalog("song", "delete", errors.New("boom"))
	second.ObserveCatalog("song", "delete", nil)

	if got := testutil.ToFloat64(first.catalogOps.WithLabelValues("song", "delete", "error")); got != 1 {
		t.Fatalf("expected 1 failed delete, got %v", got)
	}
	if got := testutil.ToFloat64(first.catalogOps.WithLabelValues("song", "delete", "ok")); got != 1 {
		t.Fatalf("expected shared collector to count successful delete, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveMedia("upload", nil, time.Second)
	m.AddUploadedBytes(10)
	m.ObserveCatalog("genre", "add", nil)
	m.ObserveHTTP("GET", "200", time.Millisecond)
}

func TestHandlerExposesMediaMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveMedia("upload", nil, 10*time.Millisecond)
	m.AddUploadedBytes(512)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`musicatlas_media_operations_total{operation="upload",result="ok"} 1`,
		`musicatlas_media_uploaded_bytes_total 512`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in exposition:\n%s", want, body)
		}
	}
}
