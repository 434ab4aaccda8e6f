package prometheus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppMetrics_Recorders(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	m.RecordParse("ok", 5, 20*time.Millisecond)
	m.RecordParse("empty", 0, time.Millisecond)
	m.RecordValidation("found", 300*time.Millisecond)
	m.RecordValidation("indeterminate", 5*time.Second)
	m.RecordScan("ok", 3, 10*time.Millisecond)
	m.RecordScan("skipped", 0, time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/v1/reminders", 200, 15*time.Millisecond)
	m.RecordPrescription("voice", "scheduled")
	m.RecordError("scheduler", "SCH_002")

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_parse_total{outcome="ok"} 1`)
	assert.Contains(t, out, `test_unit_parse_total{outcome="empty"} 1`)
	assert.Contains(t, out, "test_unit_parse_entity_count_count 2")
	assert.Contains(t, out, `test_unit_drug_validation_total{outcome="indeterminate"} 1`)
	assert.Contains(t, out, `test_unit_due_scan_total{status="ok"} 1`)
	assert.Contains(t, out, `test_unit_due_scan_total{status="skipped"} 1`)
	assert.Contains(t, out, "test_unit_reminders_due_total 3")
	assert.Contains(t, out, "test_unit_due_scan_last_success_timestamp_seconds")
	assert.Contains(t, out, `test_unit_http_requests_total{method="GET",path="/api/v1/reminders",status_code="200"} 1`)
	assert.Contains(t, out, `test_unit_prescriptions_created_total{source="voice",status="scheduled"} 1`)
	assert.Contains(t, out, `test_unit_errors_total{code="SCH_002",component="scheduler"} 1`)
}

//Personal.AI order the ending
