package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/MedRemind/internal/application/reminder"
	"github.com/turtacn/MedRemind/internal/domain/prescription"
	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// ReminderHandler serves the /reminders resource.
type ReminderHandler struct {
	svc          reminder.Service
	maxFormBytes int64
	logger       logging.Logger
}

// NewReminderHandler creates a ReminderHandler. maxFormBytes bounds the
// multipart body of manual entries.
func NewReminderHandler(svc reminder.Service, maxFormBytes int64, logger logging.Logger) *ReminderHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if maxFormBytes <= 0 {
		maxFormBytes = 20 << 20
	}
	return &ReminderHandler{svc: svc, maxFormBytes: maxFormBytes, logger: logger.Named("reminder_handler")}
}

// VoiceRequest is the body of POST /reminders/voice.
type VoiceRequest struct {
	Text string `json:"text"`
}

// ManualRequest is the JSON form of POST /reminders/manual.
type ManualRequest struct {
	MedicationName string   `json:"medicationName"`
	Dosage         string   `json:"dosage"`
	Frequency      string   `json:"frequency"`
	Instructions   string   `json:"instructions"`
	ReminderTimes  []string `json:"reminderTimes"`
}

// UpdateRequest is the body of PUT /reminders/{id}.
type UpdateRequest struct {
	Status              *medication.Status               `json:"status,omitempty"`
	MedicationSchedules *[]medication.MedicationSchedule `json:"medicationSchedules,omitempty"`
}

// AddVoice handles POST /reminders/voice.
func (h *ReminderHandler) AddVoice(w http.ResponseWriter, r *http.Request) {
	var req VoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.AddVoiceReminder(r.Context(), getUserIDFromContext(r), req.Text)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":        "Reminder created successfully from voice input",
		"prescriptionId": res.PrescriptionID,
		"reminder":       res.Reminder,
	})
}

// AddManual handles POST /reminders/manual. Accepts multipart (with optional
// packageImage/medicationImage files) or JSON.
func (h *ReminderHandler) AddManual(w http.ResponseWriter, r *http.Request) {
	input := &reminder.ManualInput{UserID: getUserIDFromContext(r)}

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxFormBytes)
		if err := r.ParseMultipartForm(h.maxFormBytes); err != nil {
			writeAppError(w, r, h.logger, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid multipart form"))
			return
		}
		input.MedicationName = r.FormValue("medicationName")
		input.Dosage = r.FormValue("dosage")
		input.Frequency = r.FormValue("frequency")
		input.Instructions = r.FormValue("instructions")
		input.ReminderTimes = splitTimes(r.MultipartForm.Value["reminderTimes"])

		var err error
		if input.PackageImage, err = readFormFile(r, "packageImage"); err != nil {
			writeAppError(w, r, h.logger, err)
			return
		}
		if input.MedicationImage, err = readFormFile(r, "medicationImage"); err != nil {
			writeAppError(w, r, h.logger, err)
			return
		}
	} else {
		var req ManualRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeAppError(w, r, h.logger, err)
			return
		}
		input.MedicationName = req.MedicationName
		input.Dosage = req.Dosage
		input.Frequency = req.Frequency
		input.Instructions = req.Instructions
		input.ReminderTimes = req.ReminderTimes
	}

	res, err := h.svc.AddManualReminder(r.Context(), input)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":              "Reminder created successfully from manual input",
		"prescriptionId":       res.PrescriptionID,
		"structuredMedication": res.StructuredMedication,
		"reminder":             res.Reminder,
		"warning":              res.Warning,
	})
}

// CreateTest handles POST /reminders/test.
func (h *ReminderHandler) CreateTest(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.CreateTestReminder(r.Context(), getUserIDFromContext(r))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":        "Test reminder created successfully",
		"prescriptionId": v.ID,
		"reminder":       v,
	})
}

// List handles GET /reminders.
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	filter := prescription.ListFilter{
		Status: medication.Status(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	}
	items, err := h.svc.ListReminders(r.Context(), getUserIDFromContext(r), filter)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Get handles GET /reminders/{id}.
func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetReminder(r.Context(), getUserIDFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Update handles PUT /reminders/{id}.
func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	v, err := h.svc.UpdateReminder(r.Context(), &reminder.UpdateInput{
		UserID:              getUserIDFromContext(r),
		ID:                  chi.URLParam(r, "id"),
		Status:              req.Status,
		MedicationSchedules: req.MedicationSchedules,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Reminder updated successfully",
		"reminder": v,
	})
}

// Delete handles DELETE /reminders/{id}.
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteReminder(r.Context(), getUserIDFromContext(r), chi.URLParam(r, "id")); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// splitTimes accepts repeated fields and comma separated lists.
func splitTimes(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

//Personal.AI order the ending
