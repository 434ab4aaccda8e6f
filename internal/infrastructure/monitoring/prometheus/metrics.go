package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds the application metrics. It satisfies the metric sinks of
// the parser, the drug validator and the due-scanner.
type AppMetrics struct {
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	ParseTotal        CounterVec
	ParseDuration     HistogramVec
	ParseEntityCount  HistogramVec
	ValidationTotal   CounterVec
	ValidationLatency HistogramVec

	ScanTotal         CounterVec
	ScanDuration      HistogramVec
	RemindersDueTotal CounterVec
	LastScanTimestamp GaugeVec

	PrescriptionsTotal CounterVec
	ErrorsTotal        CounterVec
}

var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultExternalDurationBuckets = []float64{.05, .1, .25, .5, 1, 2, 5, 10}
	DefaultEntityCountBuckets      = []float64{0, 1, 2, 4, 8, 16, 32, 64}
)

func NewAppMetrics(c MetricsCollector) *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal:   c.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code"),
		HTTPRequestDuration: c.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path"),
		HTTPActiveRequests:  c.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method"),

		ParseTotal:        c.RegisterCounter("parse_total", "Medication text parses by outcome", "outcome"),
		ParseDuration:     c.RegisterHistogram("parse_duration_seconds", "Medication text parse duration", DefaultHTTPDurationBuckets, "outcome"),
		ParseEntityCount:  c.RegisterHistogram("parse_entity_count", "Entities recognised per parse", DefaultEntityCountBuckets),
		ValidationTotal:   c.RegisterCounter("drug_validation_total", "Drug vocabulary validations by outcome", "outcome"),
		ValidationLatency: c.RegisterHistogram("drug_validation_duration_seconds", "Drug vocabulary lookup duration", DefaultExternalDurationBuckets, "outcome"),

		ScanTotal:         c.RegisterCounter("due_scan_total", "Due-reminder scans by status", "status"),
		ScanDuration:      c.RegisterHistogram("due_scan_duration_seconds", "Due-reminder scan duration", DefaultHTTPDurationBuckets),
		RemindersDueTotal: c.RegisterCounter("reminders_due_total", "Reminders reported as due"),
		LastScanTimestamp: c.RegisterGauge("due_scan_last_success_timestamp_seconds", "Unix time of the last successful scan"),

		PrescriptionsTotal: c.RegisterCounter("prescriptions_created_total", "Prescriptions created by source and resulting status", "source", "status"),
		ErrorsTotal:        c.RegisterCounter("errors_total", "Errors by component and code", "component", "code"),
	}
}

func (m *AppMetrics) RecordParse(outcome string, entityCount int, d time.Duration) {
	m.ParseTotal.WithLabelValues(outcome).Inc()
	m.ParseDuration.WithLabelValues(outcome).Observe(d.Seconds())
	m.ParseEntityCount.WithLabelValues().Observe(float64(entityCount))
}

func (m *AppMetrics) RecordValidation(outcome string, d time.Duration) {
	m.ValidationTotal.WithLabelValues(outcome).Inc()
	m.ValidationLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *AppMetrics) RecordScan(status string, due int, d time.Duration) {
	m.ScanTotal.WithLabelValues(status).Inc()
	m.ScanDuration.WithLabelValues().Observe(d.Seconds())
	if due > 0 {
		m.RemindersDueTotal.WithLabelValues().Add(float64(due))
	}
	if status == "ok" {
		m.LastScanTimestamp.WithLabelValues().Set(float64(time.Now().Unix()))
	}
}

func (m *AppMetrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *AppMetrics) RecordPrescription(source, status string) {
	m.PrescriptionsTotal.WithLabelValues(source, status).Inc()
}

func (m *AppMetrics) RecordError(component, code string) {
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

//Personal.AI order the ending
