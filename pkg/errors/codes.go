package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeStorageError       ErrorCode = "COMMON_015"
	ErrCodeMessageQueueError  ErrorCode = "COMMON_016"
)

// Aliases used at call sites that predate the module-prefixed names.
const (
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
)

// Medication extraction error codes
const (
	ErrCodeExtractionEmpty   ErrorCode = "MED_001"
	ErrCodeTextMissing       ErrorCode = "MED_002"
	ErrCodeMedicationUnknown ErrorCode = "MED_003"
	ErrCodeVocabularyInvalid ErrorCode = "MED_004"
	ErrCodeNameRequired      ErrorCode = "MED_005"
	ErrCodeFrequencyRequired ErrorCode = "MED_006"
)

// Drug vocabulary (external lookup) error codes
const (
	ErrCodeVocabularyUnavailable ErrorCode = "VOC_001"
	ErrCodeVocabularyParseError  ErrorCode = "VOC_002"
	ErrCodeVocabularyRateLimited ErrorCode = "VOC_003"
)

// OCR collaborator error codes
const (
	ErrCodeOCRFailed     ErrorCode = "OCR_001"
	ErrCodeOCRNoText     ErrorCode = "OCR_002"
	ErrCodeImageMissing  ErrorCode = "OCR_003"
	ErrCodeImageTooLarge ErrorCode = "OCR_004"
)

// Prescription / reminder aggregate error codes
const (
	ErrCodePrescriptionNotFound  ErrorCode = "RX_001"
	ErrCodePrescriptionForbidden ErrorCode = "RX_002"
	ErrCodeStatusInvalid         ErrorCode = "RX_003"
	ErrCodeUserMissing           ErrorCode = "RX_004"
)

// Scheduling error codes
const (
	ErrCodeScheduleCreateFailed ErrorCode = "SCH_001"
	ErrCodeScanFailed           ErrorCode = "SCH_002"
	ErrCodeTimeFormatInvalid    ErrorCode = "SCH_003"
	ErrCodeNotifyFailed         ErrorCode = "SCH_004"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeMessageQueueError:  http.StatusInternalServerError,

	ErrCodeExtractionEmpty:   http.StatusBadRequest,
	ErrCodeTextMissing:       http.StatusBadRequest,
	ErrCodeMedicationUnknown: http.StatusBadRequest,
	ErrCodeVocabularyInvalid: http.StatusInternalServerError,
	ErrCodeNameRequired:      http.StatusBadRequest,
	ErrCodeFrequencyRequired: http.StatusBadRequest,

	ErrCodeVocabularyUnavailable: http.StatusServiceUnavailable,
	ErrCodeVocabularyParseError:  http.StatusBadGateway,
	ErrCodeVocabularyRateLimited: http.StatusTooManyRequests,

	ErrCodeOCRFailed:     http.StatusBadGateway,
	ErrCodeOCRNoText:     http.StatusBadRequest,
	ErrCodeImageMissing:  http.StatusBadRequest,
	ErrCodeImageTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodePrescriptionNotFound:  http.StatusNotFound,
	ErrCodePrescriptionForbidden: http.StatusForbidden,
	ErrCodeStatusInvalid:         http.StatusConflict,
	ErrCodeUserMissing:           http.StatusBadRequest,

	ErrCodeScheduleCreateFailed: http.StatusInternalServerError,
	ErrCodeScanFailed:           http.StatusInternalServerError,
	ErrCodeTimeFormatInvalid:    http.StatusBadRequest,
	ErrCodeNotifyFailed:         http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default user-facing messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization error",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeStorageError:       "object storage error",
	ErrCodeMessageQueueError:  "message queue error",

	ErrCodeExtractionEmpty:   "no medication found in text",
	ErrCodeTextMissing:       "text is required",
	ErrCodeMedicationUnknown: "medication not recognized",
	ErrCodeVocabularyInvalid: "entity vocabulary is invalid",
	ErrCodeNameRequired:      "medication name is required",
	ErrCodeFrequencyRequired: "frequency is required",

	ErrCodeVocabularyUnavailable: "drug vocabulary lookup unavailable",
	ErrCodeVocabularyParseError:  "drug vocabulary response could not be parsed",
	ErrCodeVocabularyRateLimited: "drug vocabulary lookup rate limited",

	ErrCodeOCRFailed:     "text recognition failed",
	ErrCodeOCRNoText:     "No text detected or OCR failed.",
	ErrCodeImageMissing:  "prescription image is required",
	ErrCodeImageTooLarge: "prescription image is too large",

	ErrCodePrescriptionNotFound:  "reminder not found",
	ErrCodePrescriptionForbidden: "reminder belongs to another user",
	ErrCodeStatusInvalid:         "invalid reminder status",
	ErrCodeUserMissing:           "user id is required",

	ErrCodeScheduleCreateFailed: "failed to create medication schedules",
	ErrCodeScanFailed:           "reminder scan failed",
	ErrCodeTimeFormatInvalid:    "invalid reminder time",
	ErrCodeNotifyFailed:         "reminder notification failed",
}

// HTTPStatusForCode returns the HTTP status for code, 500 when unmapped.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the registered default message for code.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError reports whether code maps to a 4xx status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError reports whether code maps to a 5xx status.
func IsServerError(code ErrorCode) bool {
	return HTTPStatusForCode(code) >= 500
}

// ModuleForCode returns the module prefix of code ("MED" for "MED_001").
func ModuleForCode(code ErrorCode) string {
	parts := strings.SplitN(string(code), "_", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "UNKNOWN"
	}
	return parts[0]
}

//Personal.AI order the ending
