package handlers

import (
	"net/http"

	"github.com/turtacn/MedRemind/internal/application/reminder"
	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/pkg/errors"
)

// PrescriptionHandler serves prescription photo uploads.
type PrescriptionHandler struct {
	svc          reminder.Service
	maxFormBytes int64
	logger       logging.Logger
}

// NewPrescriptionHandler creates a PrescriptionHandler.
func NewPrescriptionHandler(svc reminder.Service, maxFormBytes int64, logger logging.Logger) *PrescriptionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if maxFormBytes <= 0 {
		maxFormBytes = 32 << 20
	}
	return &PrescriptionHandler{svc: svc, maxFormBytes: maxFormBytes, logger: logger.Named("prescription_handler")}
}

// Upload handles POST /prescriptions/upload. The multipart form carries a
// required prescriptionImage and optional packageImage and medicationImage.
func (h *PrescriptionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		writeAppError(w, r, h.logger, errors.New(errors.ErrCodeBadRequest, "multipart/form-data is required"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFormBytes)
	if err := r.ParseMultipartForm(h.maxFormBytes); err != nil {
		writeAppError(w, r, h.logger, errors.Wrap(err, errors.ErrCodeImageTooLarge, "upload could not be read"))
		return
	}

	input := &reminder.UploadInput{UserID: getUserIDFromContext(r)}
	rx, err := readFormFile(r, "prescriptionImage")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if rx == nil {
		writeAppError(w, r, h.logger, errors.New(errors.ErrCodeImageMissing, "No prescription image uploaded."))
		return
	}
	input.Image = *rx
	if input.PackageImage, err = readFormFile(r, "packageImage"); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if input.MedicationImage, err = readFormFile(r, "medicationImage"); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.UploadPrescription(r.Context(), input)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	status := http.StatusCreated
	if res.PrescriptionID == "" {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

//Personal.AI order the ending
