package reminder

import (
	"strings"
	"time"

	"github.com/turtacn/MedRemind/pkg/types/medication"
)

const (
	defaultMedicine     = "Unknown"
	defaultNotSpecified = "Not specified"
	defaultInstructions = "Take as directed"
)

// MedicationView is the user-facing rendering of one medication. Times are
// 12-hour display strings.
type MedicationView struct {
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

// ReminderView is a stored prescription as returned to its owner.
type ReminderView struct {
	ID          string                `json:"id"`
	UserID      string                `json:"userId"`
	Source      medication.Source     `json:"source"`
	Status      medication.Status     `json:"status"`
	OCRText     string                `json:"ocrText,omitempty"`
	InputText   string                `json:"inputText,omitempty"`
	Images      medication.ImageURLs  `json:"images"`
	Medications []MedicationView      `json:"medications"`
	NLPResult   *medication.NLPResult `json:"nlpResult,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// FormatMedication renders a structured medication, filling unset slots with
// their display defaults.
func FormatMedication(m medication.StructuredMedication) MedicationView {
	return MedicationView{
		Medicine:           orDefault(m.Name, defaultMedicine),
		Dose:               orDefault(m.Dosage, defaultNotSpecified),
		Times:              displayTimes(m.ReminderTimes),
		TimeContext:        m.TimeContext,
		Instructions:       orDefault(m.Instructions, defaultInstructions),
		Frequency:          orDefault(m.Frequency, defaultNotSpecified),
		Active:             true,
		PackageImageURL:    m.PackageImageURL,
		MedicationImageURL: m.MedicationImageURL,
	}
}

// FormatSchedule renders a persisted schedule.
func FormatSchedule(s medication.MedicationSchedule) MedicationView {
	return MedicationView{
		Medicine:           orDefault(s.Name, defaultMedicine),
		Dose:               orDefault(s.Dosage, defaultNotSpecified),
		Times:              displayTimes(s.ReminderTimes),
		Instructions:       orDefault(s.Instructions, defaultInstructions),
		Frequency:          orDefault(s.Frequency, defaultNotSpecified),
		Active:             s.Active,
		PackageImageURL:    s.PackageImageURL,
		MedicationImageURL: s.MedicationImageURL,
	}
}

// NewReminderView renders p. withNLP controls whether the raw parse result
// is attached.
func NewReminderView(p *medication.Prescription, withNLP bool) *ReminderView {
	v := &ReminderView{
		ID:          p.ID,
		UserID:      p.UserID,
		Source:      p.Source,
		Status:      p.Status,
		OCRText:     p.OCRText,
		InputText:   p.InputText,
		Images:      p.Images,
		Medications: make([]MedicationView, 0, len(p.MedicationSchedules)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for _, s := range p.MedicationSchedules {
		v.Medications = append(v.Medications, FormatSchedule(s))
	}
	if withNLP {
		nlp := p.NLPResult
		v.NLPResult = &nlp
	}
	return v
}

// ConfirmationText is the spoken confirmation for a voice reminder.
func ConfirmationText(v MedicationView) string {
	at := "scheduled times"
	if len(v.Times) > 0 {
		at = strings.Join(v.Times, " and ")
	}
	return "I've set reminders for " + v.Medicine + " at " + at + ". Say 'Edit' to change or 'Confirm' to save."
}

// displayTimes accepts canonical or 12-hour values and renders 12-hour ones.
func displayTimes(times []string) []string {
	out := make([]string, 0, len(times))
	for _, t := range times {
		if c, err := medication.ToCanonicalClock(t); err == nil {
			t = c
		}
		out = append(out, medication.ToDisplayClock(t))
	}
	return out
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

//Personal.AI order the ending
