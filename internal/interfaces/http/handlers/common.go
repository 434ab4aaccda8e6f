// Common helper functions for HTTP handlers.

package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/turtacn/MedRemind/internal/application/reminder"
	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/internal/interfaces/http/middleware"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// defaultMaxBodyBytes bounds JSON request bodies.
const defaultMaxBodyBytes = 1 << 20

// getUserIDFromContext extracts user ID from request context (set by auth middleware).
func getUserIDFromContext(r *http.Request) string {
	return middleware.ContextGetUserID(r.Context())
}

// parsePagination extracts limit and offset from query parameters.
func parsePagination(r *http.Request) (int, int) {
	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorDetail is the inner object of an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ErrorResponse is the standard error response body. Suggestion and NLPData
// accompany rejected voice input.
type ErrorResponse struct {
	Error      ErrorDetail           `json:"error"`
	Suggestion string                `json:"suggestion,omitempty"`
	NLPData    *medication.NLPResult `json:"nlpData,omitempty"`
}

// writeAppError maps application errors to their registered HTTP status.
// Errors outside the AppError family are masked as 500.
func writeAppError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	var resp ErrorResponse

	var rej *reminder.Rejection
	if errors.As(err, &rej) {
		resp.Suggestion = rej.Suggestion
		resp.NLPData = rej.NLPData
	}

	var ae *errors.AppError
	if !errors.As(err, &ae) {
		logger.Error("unhandled error",
			logging.String("path", r.URL.Path),
			logging.String("request_id", logging.RequestIDFromContext(r.Context())),
			logging.Err(err))
		resp.Error = ErrorDetail{Code: string(errors.ErrCodeInternal), Message: "internal server error"}
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	status := ae.HTTPStatus()
	resp.Error = ErrorDetail{Code: string(ae.Code), Message: ae.Message, Detail: ae.Detail}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			logging.String("path", r.URL.Path),
			logging.String("code", string(ae.Code)),
			logging.String("request_id", logging.RequestIDFromContext(r.Context())),
			logging.Err(err))
		if ae.Message == "" {
			resp.Error.Message = errors.DefaultMessageForCode(ae.Code)
		}
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, defaultMaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return errors.New(errors.ErrCodeBadRequest, "request body is required")
		}
		return errors.Wrap(err, errors.ErrCodeBadRequest, "invalid JSON body")
	}
	return nil
}

// readFormFile returns the named multipart file, or nil when absent.
func readFormFile(r *http.Request, field string) (*reminder.ImageFile, error) {
	f, hdr, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid multipart field").WithDetail(field)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read upload").WithDetail(field)
	}
	return &reminder.ImageFile{Data: data, Filename: hdr.Filename}, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

//Personal.AI order the ending
