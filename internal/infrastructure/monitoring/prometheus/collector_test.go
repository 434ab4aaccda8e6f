package prometheus

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, nil)
	assert.Error(t, err)
}

func TestNewMetricsCollector_ProcessMetrics(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", EnableProcessMetrics: true, EnableGoMetrics: true}, nil)
	require.NoError(t, err)
	out := scrape(t, c)
	assert.Contains(t, out, "go_goroutines")
}

func TestRegisterCounter(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("requests_total", "help", "method").WithLabelValues("GET").Add(3)

	assert.Contains(t, scrape(t, c), `test_unit_requests_total{method="GET"} 3`)
}

func TestRegisterCounter_SameNameReturnsSameVector(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("dup_total", "help").WithLabelValues().Inc()
	c.RegisterCounter("dup_total", "help").WithLabelValues().Inc()

	assert.Contains(t, scrape(t, c), "test_unit_dup_total 2")
}

func TestRegister_TypeMismatchIsNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("thing", "help")
	g := c.RegisterGauge("thing", "help")

	assert.NotPanics(t, func() { g.WithLabelValues().Set(5) })
	_, isNoop := g.(noopGaugeVec)
	assert.True(t, isNoop)
}

func TestRegisterGaugeAndHistogram(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterGauge("in_flight", "help").WithLabelValues().Set(4)
	h := c.RegisterHistogram("latency_seconds", "help", []float64{0.1, 1}).WithLabelValues()
	h.Observe(0.05)
	h.Observe(0.5)

	out := scrape(t, c)
	assert.Contains(t, out, "test_unit_in_flight 4")
	assert.Contains(t, out, `test_unit_latency_seconds_bucket{le="0.1"} 1`)
	assert.Contains(t, out, "test_unit_latency_seconds_count 2")
}

func TestConcurrentRegistration(t *testing.T) {
	c := newTestCollector(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RegisterCounter("concurrent_total", "help").WithLabelValues().Inc()
		}()
	}
	wg.Wait()

	assert.Contains(t, scrape(t, c), "test_unit_concurrent_total 20")
}

func TestTimer(t *testing.T) {
	c := newTestCollector(t)
	timer := NewTimer(c.RegisterHistogram("op_seconds", "help", nil).WithLabelValues())
	time.Sleep(time.Millisecond)
	assert.Greater(t, timer.ObserveDuration(), time.Duration(0))
	assert.Contains(t, scrape(t, c), "test_unit_op_seconds_count 1")

	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}

//Personal.AI order the ending
