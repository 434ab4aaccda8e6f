package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRemind/internal/application/reminder"
	"github.com/turtacn/MedRemind/internal/intelligence/med_extractor"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

func newExtractionRouter(svc reminder.Service) http.Handler {
	h := NewExtractionHandler(med_extractor.NewDefaultParser(nil, nil, nil, nil), svc, nil)
	r := chi.NewRouter()
	r.Post("/parse", h.Parse)
	r.Post("/schedule/preview", h.Preview)
	return r
}

func TestParse_ReturnsNLPResult(t *testing.T) {
	w := do(newExtractionRouter(&mockReminderService{}), http.MethodPost, "/parse", "application/json",
		[]byte(`{"text":"Take Metformin 500 mg twice a day with food"}`))
	require.Equal(t, http.StatusOK, w.Code)

	var res medication.NLPResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.StructuredMedications, 1)
	assert.Equal(t, "Metformin", res.StructuredMedications[0].Name)
	assert.NotEmpty(t, res.RawEntities)
}

func TestParse_BlankText(t *testing.T) {
	w := do(newExtractionRouter(&mockReminderService{}), http.MethodPost, "/parse", "application/json", []byte(`{"text":"  "}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MED_002", decodeError(t, w).Error.Code)
}

func TestPreview(t *testing.T) {
	svc := &mockReminderService{}
	svc.On("PreviewSchedule", mock.Anything, &reminder.PreviewInput{Text: "Lipitor at night"}).Return([]reminder.SchedulePreview{{
		Rule: "night", Times: []string{"9:00 PM"}, Canonical: []string{"21:00"},
	}}, nil)

	w := do(newExtractionRouter(svc), http.MethodPost, "/schedule/preview", "application/json", []byte(`{"text":"Lipitor at night"}`))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Schedules []reminder.SchedulePreview `json:"schedules"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Schedules, 1)
	assert.Equal(t, []string{"21:00"}, body.Schedules[0].Canonical)
}

//Personal.AI order the ending
