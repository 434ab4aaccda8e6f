package handlers

import (
	"net/http"

	"github.com/turtacn/MedRemind/internal/application/reminder"
	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/internal/intelligence/med_extractor"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// ExtractionHandler exposes the parser and the schedule generator without
// persisting anything.
type ExtractionHandler struct {
	parser med_extractor.Parser
	svc    reminder.Service
	logger logging.Logger
}

// NewExtractionHandler creates an ExtractionHandler.
func NewExtractionHandler(parser med_extractor.Parser, svc reminder.Service, logger logging.Logger) *ExtractionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ExtractionHandler{parser: parser, svc: svc, logger: logger.Named("extraction_handler")}
}

// ParseRequest is the body of POST /parse.
type ParseRequest struct {
	Text string `json:"text"`
}

// PreviewRequest is the body of POST /schedule/preview.
type PreviewRequest struct {
	Text       string                           `json:"text,omitempty"`
	Medication *medication.StructuredMedication `json:"medication,omitempty"`
}

// Parse handles POST /parse.
func (h *ExtractionHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.parser.Parse(r.Context(), req.Text)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Preview handles POST /schedule/preview.
func (h *ExtractionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	out, err := h.svc.PreviewSchedule(r.Context(), &reminder.PreviewInput{Text: req.Text, Medication: req.Medication})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schedules": out})
}

//Personal.AI order the ending
