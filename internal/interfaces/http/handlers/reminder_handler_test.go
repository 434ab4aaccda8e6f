package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRemind/internal/application/reminder"
	"github.com/turtacn/MedRemind/internal/domain/prescription"
	"github.com/turtacn/MedRemind/internal/interfaces/http/middleware"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

type mockReminderService struct{ mock.Mock }

func (m *mockReminderService) UploadPrescription(ctx context.Context, in *reminder.UploadInput) (*reminder.UploadResult, error) {
	args := m.Called(ctx, in)
	if v := args.Get(0); v != nil {
		return v.(*reminder.UploadResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReminderService) AddVoiceReminder(ctx context.Context, userID, text string) (*reminder.VoiceResult, error) {
	args := m.Called(ctx, userID, text)
	if v := args.Get(0); v != nil {
		return v.(*reminder.VoiceResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReminderService) AddManualReminder(ctx context.Context, in *reminder.ManualInput) (*reminder.ManualResult, error) {
	args := m.Called(ctx, in)
	if v := args.Get(0); v != nil {
		return v.(*reminder.ManualResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReminderService) CreateTestReminder(ctx context.Context, userID string) (*reminder.ReminderView, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.(*reminder.ReminderView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReminderService) ListReminders(ctx context.Context, userID string, f prescription.ListFilter) ([]*reminder.ReminderView, error) {
	args := m.Called(ctx, userID, f)
	if v := args.Get(0); v != nil {
		return v.([]*reminder.ReminderView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReminderService) GetReminder(ctx context.Context, userID, id string) (*reminder.ReminderView, error) {
	args := m.Called(ctx, userID, id)
	if v := args.Get(0); v != nil {
		return v.(*reminder.ReminderView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReminderService) UpdateReminder(ctx context.Context, in *reminder.UpdateInput) (*reminder.ReminderView, error) {
	args := m.Called(ctx, in)
	if v := args.Get(0); v != nil {
		return v.(*reminder.ReminderView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReminderService) DeleteReminder(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockReminderService) PreviewSchedule(ctx context.Context, in *reminder.PreviewInput) ([]reminder.SchedulePreview, error) {
	args := m.Called(ctx, in)
	if v := args.Get(0); v != nil {
		return v.([]reminder.SchedulePreview), args.Error(1)
	}
	return nil, args.Error(1)
}

// newTestRouter mounts the handlers behind auth with a fixed user.
func newTestRouter(svc reminder.Service) http.Handler {
	rh := NewReminderHandler(svc, 0, nil)
	ph := NewPrescriptionHandler(svc, 0, nil)
	r := chi.NewRouter()
	r.Use(middleware.NewAuthMiddleware(nil, middleware.AuthConfig{AnonymousUserID: "u1"}, nil).Handler)
	r.Post("/prescriptions/upload", ph.Upload)
	r.Post("/reminders/voice", rh.AddVoice)
	r.Post("/reminders/manual", rh.AddManual)
	r.Post("/reminders/test", rh.CreateTest)
	r.Get("/reminders", rh.List)
	r.Get("/reminders/{id}", rh.Get)
	r.Put("/reminders/{id}", rh.Update)
	r.Delete("/reminders/{id}", rh.Delete)
	return r
}

func do(h http.Handler, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAddVoice_Created(t *testing.T) {
	svc := &mockReminderService{}
	svc.On("AddVoiceReminder", mock.Anything, "u1", "Metformin twice a day").Return(&reminder.VoiceResult{
		PrescriptionID: "rx-1",
		Reminder: reminder.VoiceReminder{
			MedicationView:   reminder.MedicationView{Medicine: "Metformin", Times: []string{"8:00 AM", "8:00 PM"}},
			ConfirmationText: "I've set reminders for Metformin at 8:00 AM and 8:00 PM. Say 'Edit' to change or 'Confirm' to save.",
			PrescriptionID:   "rx-1",
		},
	}, nil)

	w := do(newTestRouter(svc), http.MethodPost, "/reminders/voice", "application/json", []byte(`{"text":"Metformin twice a day"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		PrescriptionID string `json:"prescriptionId"`
		Reminder       struct {
			Medicine         string   `json:"medicine"`
			Times            []string `json:"times"`
			ConfirmationText string   `json:"confirmationText"`
		} `json:"reminder"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rx-1", body.PrescriptionID)
	assert.Equal(t, "Metformin", body.Reminder.Medicine)
	assert.Equal(t, []string{"8:00 AM", "8:00 PM"}, body.Reminder.Times)
	assert.Contains(t, body.Reminder.ConfirmationText, "Say 'Edit'")
}

func TestAddVoice_RejectionCarriesSuggestion(t *testing.T) {
	svc := &mockReminderService{}
	nlp := &medication.NLPResult{RawEntities: []medication.RawEntity{}, StructuredMedications: []medication.StructuredMedication{}}
	svc.On("AddVoiceReminder", mock.Anything, "u1", "hello").Return(nil, &reminder.Rejection{
		Err:        errors.New(errors.ErrCodeExtractionEmpty, "Could not extract medication details from the provided text."),
		Suggestion: "Try saying something like ...",
		NLPData:    nlp,
	})

	w := do(newTestRouter(svc), http.MethodPost, "/reminders/voice", "application/json", []byte(`{"text":"hello"}`))
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeError(t, w)
	assert.Equal(t, "MED_001", resp.Error.Code)
	assert.Equal(t, "Try saying something like ...", resp.Suggestion)
	assert.NotNil(t, resp.NLPData)
}

func TestAddVoice_BadJSON(t *testing.T) {
	w := do(newTestRouter(&mockReminderService{}), http.MethodPost, "/reminders/voice", "application/json", []byte(`{`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "COMMON_002", decodeError(t, w).Error.Code)
}

func TestAddManual_Multipart(t *testing.T) {
	svc := &mockReminderService{}
	svc.On("AddManualReminder", mock.Anything, mock.MatchedBy(func(in *reminder.ManualInput) bool {
		return in.UserID == "u1" && in.MedicationName == "Lipitor" && in.Frequency == "once a day" &&
			assert.ObjectsAreEqual([]string{"8:00 AM", "21:00"}, in.ReminderTimes) &&
			in.PackageImage != nil && string(in.PackageImage.Data) == "box" && in.MedicationImage == nil
	})).Return(&reminder.ManualResult{PrescriptionID: "rx-2", Warning: "could not be verified"}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("medicationName", "Lipitor")
	_ = mw.WriteField("frequency", "once a day")
	_ = mw.WriteField("reminderTimes", "8:00 AM, 21:00")
	fw, err := mw.CreateFormFile("packageImage", "box.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("box"))
	require.NoError(t, mw.Close())

	w := do(newTestRouter(svc), http.MethodPost, "/reminders/manual", mw.FormDataContentType(), buf.Bytes())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"warning":"could not be verified"`)
	svc.AssertExpectations(t)
}

func TestAddManual_JSONValidationError(t *testing.T) {
	svc := &mockReminderService{}
	svc.On("AddManualReminder", mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeFrequencyRequired, "Missing required field: frequency"))

	w := do(newTestRouter(svc), http.MethodPost, "/reminders/manual", "application/json", []byte(`{"medicationName":"Lipitor"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MED_006", decodeError(t, w).Error.Code)
}

func TestCreateTest(t *testing.T) {
	svc := &mockReminderService{}
	svc.On("CreateTestReminder", mock.Anything, "u1").Return(&reminder.ReminderView{ID: "rx-3", Status: medication.StatusScheduled}, nil)

	w := do(newTestRouter(svc), http.MethodPost, "/reminders/test", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"prescriptionId":"rx-3"`)
}

func TestList_PassesFilter(t *testing.T) {
	svc := &mockReminderService{}
	svc.On("ListReminders", mock.Anything, "u1", prescription.ListFilter{Status: medication.StatusScheduled, Limit: 10, Offset: 5}).
		Return([]*reminder.ReminderView{{ID: "a"}, {ID: "b"}}, nil)

	w := do(newTestRouter(svc), http.MethodGet, "/reminders?status=scheduled&limit=10&offset=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var items []reminder.ReminderView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items, 2)
}

func TestGet_ErrorMapping(t *testing.T) {
	svc := &mockReminderService{}
	svc.On("GetReminder", mock.Anything, "u1", "other").Return(nil, errors.New(errors.ErrCodePrescriptionForbidden, "prescription belongs to another user"))
	svc.On("GetReminder", mock.Anything, "u1", "gone").Return(nil, errors.New(errors.ErrCodePrescriptionNotFound, "prescription not found"))
	svc.On("GetReminder", mock.Anything, "u1", "boom").Return(nil, assert.AnError)
	h := newTestRouter(svc)

	w := do(h, http.MethodGet, "/reminders/other", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "RX_002", decodeError(t, w).Error.Code)

	w = do(h, http.MethodGet, "/reminders/gone", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(h, http.MethodGet, "/reminders/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "internal server error", resp.Error.Message)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestUpdate(t *testing.T) {
	svc := &mockReminderService{}
	svc.On("UpdateReminder", mock.Anything, mock.MatchedBy(func(in *reminder.UpdateInput) bool {
		return in.ID == "rx-1" && in.UserID == "u1" && in.MedicationSchedules != nil &&
			len(*in.MedicationSchedules) == 1 && in.Status == nil
	})).Return(&reminder.ReminderView{ID: "rx-1"}, nil)

	body := `{"medicationSchedules":[{"name":"Lipitor","reminderTimes":["9:00 PM"],"active":true}]}`
	w := do(newTestRouter(svc), http.MethodPut, "/reminders/rx-1", "application/json", []byte(body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Reminder updated successfully")
}

func TestDelete(t *testing.T) {
	svc := &mockReminderService{}
	svc.On("DeleteReminder", mock.Anything, "u1", "rx-1").Return(nil)

	w := do(newTestRouter(svc), http.MethodDelete, "/reminders/rx-1", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestUpload(t *testing.T) {
	svc := &mockReminderService{}
	svc.On("UploadPrescription", mock.Anything, mock.MatchedBy(func(in *reminder.UploadInput) bool {
		return in.UserID == "u1" && in.Image.Filename == "rx.jpg" && string(in.Image.Data) == "img"
	})).Return(&reminder.UploadResult{OCRText: reminder.NoTextMessage}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("prescriptionImage", "rx.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("img"))
	require.NoError(t, mw.Close())

	w := do(newTestRouter(svc), http.MethodPost, "/prescriptions/upload", mw.FormDataContentType(), buf.Bytes())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"nlpData":null`)
}

func TestUpload_MissingImage(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("note", "x")
	require.NoError(t, mw.Close())

	w := do(newTestRouter(&mockReminderService{}), http.MethodPost, "/prescriptions/upload", mw.FormDataContentType(), buf.Bytes())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "OCR_003", decodeError(t, w).Error.Code)

	w = do(newTestRouter(&mockReminderService{}), http.MethodPost, "/prescriptions/upload", "application/json", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSplitTimes(t *testing.T) {
	assert.Equal(t, []string{"8:00 AM", "20:00", "9 pm"}, splitTimes([]string{"8:00 AM, 20:00", " 9 pm ", ""}))
	assert.Nil(t, splitTimes(nil))
	assert.True(t, strings.HasPrefix(reminder.NoTextMessage, "No text"))
}

//Personal.AI order the ending
