package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// Medication is one medication of a reminder, with display times.
type Medication struct {
	Medicine           string   `json:"medicine"`
	Dose               string   `json:"dose"`
	Times              []string `json:"times"`
	TimeContext        string   `json:"timeContext"`
	Instructions       string   `json:"instructions"`
	Frequency          string   `json:"frequency"`
	Active             bool     `json:"active"`
	PackageImageURL    string   `json:"packageImageUrl,omitempty"`
	MedicationImageURL string   `json:"medicationImageUrl,omitempty"`
}

// Reminder is a stored prescription as its owner sees it.
type Reminder struct {
	ID          string                `json:"id"`
	UserID      string                `json:"userId"`
	Source      medication.Source     `json:"source"`
	Status      medication.Status     `json:"status"`
	OCRText     string                `json:"ocrText,omitempty"`
	InputText   string                `json:"inputText,omitempty"`
	Images      medication.ImageURLs  `json:"images"`
	Medications []Medication          `json:"medications"`
	NLPResult   *medication.NLPResult `json:"nlpResult,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// VoiceReminder confirms a reminder created from spoken text.
type VoiceReminder struct {
	Medication
	ConfirmationText string `json:"confirmationText"`
	PrescriptionID   string `json:"prescriptionId"`
}

// VoiceResult is the response of AddVoice.
type VoiceResult struct {
	Message        string        `json:"message"`
	PrescriptionID string        `json:"prescriptionId"`
	Reminder       VoiceReminder `json:"reminder"`
}

// ManualRequest is a hand-entered medication. Times may be 12- or 24-hour.
type ManualRequest struct {
	MedicationName string   `json:"medicationName"`
	Dosage         string   `json:"dosage,omitempty"`
	Frequency      string   `json:"frequency,omitempty"`
	Instructions   string   `json:"instructions,omitempty"`
	ReminderTimes  []string `json:"reminderTimes,omitempty"`
}

// ManualResult is the response of AddManual. Warning is set when the drug
// name could not be validated.
type ManualResult struct {
	Message              string                          `json:"message"`
	PrescriptionID       string                          `json:"prescriptionId"`
	StructuredMedication medication.StructuredMedication `json:"structuredMedication"`
	Reminder             Medication                      `json:"reminder"`
	Warning              string                          `json:"warning,omitempty"`
}

// UpdateRequest changes the status and/or replaces the schedules. Nil
// fields are left as they are.
type UpdateRequest struct {
	Status              *medication.Status               `json:"status,omitempty"`
	MedicationSchedules *[]medication.MedicationSchedule `json:"medicationSchedules,omitempty"`
}

// ListOptions filters and pages List. Zero values use server defaults.
type ListOptions struct {
	Status medication.Status
	Limit  int
	Offset int
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Status != "" {
		q.Set("status", string(o.Status))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// RemindersClient covers /reminders.
type RemindersClient struct {
	client *Client
}

// List returns the caller's reminders, newest first.
func (r *RemindersClient) List(ctx context.Context, opts ListOptions) ([]Reminder, error) {
	var out []Reminder
	if err := r.client.do(ctx, http.MethodGet, "/reminders"+opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one reminder.
func (r *RemindersClient) Get(ctx context.Context, id string) (*Reminder, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: reminder id is required", ErrInvalidConfig)
	}
	var out Reminder
	if err := r.client.do(ctx, http.MethodGet, "/reminders/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddVoice creates a reminder from free text such as a speech transcript.
// Text with no recognisable medication fails with an *APIError whose
// IsRejected is true.
func (r *RemindersClient) AddVoice(ctx context.Context, text string) (*VoiceResult, error) {
	var out VoiceResult
	if err := r.client.do(ctx, http.MethodPost, "/reminders/voice", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddManual creates a reminder from a form.
func (r *RemindersClient) AddManual(ctx context.Context, req ManualRequest) (*ManualResult, error) {
	var out ManualResult
	if err := r.client.do(ctx, http.MethodPost, "/reminders/manual", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTest creates the canned test reminder.
func (r *RemindersClient) CreateTest(ctx context.Context) (*Reminder, error) {
	var out struct {
		Reminder Reminder `json:"reminder"`
	}
	if err := r.client.do(ctx, http.MethodPost, "/reminders/test", nil, &out); err != nil {
		return nil, err
	}
	return &out.Reminder, nil
}

// Update applies req to reminder id.
func (r *RemindersClient) Update(ctx context.Context, id string, req UpdateRequest) (*Reminder, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: reminder id is required", ErrInvalidConfig)
	}
	var out struct {
		Reminder Reminder `json:"reminder"`
	}
	if err := r.client.do(ctx, http.MethodPut, "/reminders/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out.Reminder, nil
}

// SetStatus is Update with only a status change.
func (r *RemindersClient) SetStatus(ctx context.Context, id string, status medication.Status) (*Reminder, error) {
	return r.Update(ctx, id, UpdateRequest{Status: &status})
}

// Delete removes reminder id.
func (r *RemindersClient) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: reminder id is required", ErrInvalidConfig)
	}
	return r.client.do(ctx, http.MethodDelete, "/reminders/"+url.PathEscape(id), nil, nil)
}

//Personal.AI order the ending
