// Package medication holds the shared data model of the text-to-schedule
// pipeline: recognized entities, structured medication records, drug
// vocabulary validation outcomes, persisted schedules and the prescription
// aggregate that owns them.
package medication

import (
	"time"
)

// EntityType names a category of the named-entity vocabulary.
type EntityType string

const (
	EntityMedication  EntityType = "medication"
	EntityDosageUnit  EntityType = "dosageUnit"
	EntityTimeOfDay   EntityType = "timeOfDay"
	EntityMealTime    EntityType = "mealTime"
	EntityFrequency   EntityType = "frequencyTerm"
	EntityInstruction EntityType = "instructionTerm"
)

// EntityTypes lists every vocabulary category in recognition order.
var EntityTypes = []EntityType{
	EntityMedication,
	EntityDosageUnit,
	EntityTimeOfDay,
	EntityMealTime,
	EntityFrequency,
	EntityInstruction,
}

// Span is a half-open byte range [Start, End) into the text as submitted,
// before any whitespace folding.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// RawEntity is a typed vocabulary match. It is produced once per parse and
// never mutated.
type RawEntity struct {
	Type           EntityType `json:"entityType"`
	CanonicalValue string     `json:"canonicalValue"`
	SourceText     string     `json:"sourceText"`
	Span           Span       `json:"sourceSpan"`
}

// ValidationOutcome is the three-valued result of a drug vocabulary lookup.
type ValidationOutcome string

const (
	OutcomeFound         ValidationOutcome = "found"
	OutcomeNotFound      ValidationOutcome = "not_found"
	OutcomeIndeterminate ValidationOutcome = "indeterminate"
)

// ValidationResult records what the drug vocabulary said about a name.
// Identifier sets are only populated when Outcome is OutcomeFound; Error is
// only populated when Outcome is OutcomeIndeterminate.
type ValidationResult struct {
	Outcome           ValidationOutcome `json:"outcome"`
	Found             bool              `json:"found"`
	NameUsed          string            `json:"nameUsed"`
	BrandNames        []string          `json:"brandNames,omitempty"`
	GenericNames      []string          `json:"genericNames,omitempty"`
	ManufacturerNames []string          `json:"manufacturerNames,omitempty"`
	NDC               []string          `json:"ndc,omitempty"`
	SPLID             []string          `json:"splId,omitempty"`
	Error             string            `json:"error,omitempty"`
}

// DrugIdentifiers are the identifier sets returned on a vocabulary match.
type DrugIdentifiers struct {
	BrandNames        []string `json:"brandNames"`
	GenericNames      []string `json:"genericNames"`
	ManufacturerNames []string `json:"manufacturerNames"`
	NDC               []string `json:"ndc"`
	SPLID             []string `json:"splId"`
}

// Found builds a confirmed result.
func Found(name string, ids DrugIdentifiers) *ValidationResult {
	return &ValidationResult{
		Outcome:           OutcomeFound,
		Found:             true,
		NameUsed:          name,
		BrandNames:        ids.BrandNames,
		GenericNames:      ids.GenericNames,
		ManufacturerNames: ids.ManufacturerNames,
		NDC:               ids.NDC,
		SPLID:             ids.SPLID,
	}
}

// NotFound builds a confirmed-absent result.
func NotFound(name string) *ValidationResult {
	return &ValidationResult{Outcome: OutcomeNotFound, NameUsed: name}
}

// Indeterminate builds a could-not-check result.
func Indeterminate(name string, err error) *ValidationResult {
	r := &ValidationResult{Outcome: OutcomeIndeterminate, NameUsed: name}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// IsDefinitive reports whether the lookup reached a verdict.
func (v *ValidationResult) IsDefinitive() bool {
	return v != nil && v.Outcome != OutcomeIndeterminate
}

// IsConfirmedAbsent reports a definitive miss.
func (v *ValidationResult) IsConfirmedAbsent() bool {
	return v != nil && v.Outcome == OutcomeNotFound
}

// StructuredMedication is the canonical record for one medication mention.
// Empty strings stand for unset slots. A record is only ever surfaced with a
// non-empty Name.
type StructuredMedication struct {
	Name               string            `json:"name"`
	Dosage             string            `json:"dosage,omitempty"`
	Frequency          string            `json:"frequency,omitempty"`
	Instructions       string            `json:"instructions,omitempty"`
	ReminderTimes      []string          `json:"reminderTimes"`
	TimeContext        string            `json:"timeContext"`
	Validation         *ValidationResult `json:"validation,omitempty"`
	PackageImageURL    string            `json:"packageImageUrl,omitempty"`
	MedicationImageURL string            `json:"medicationImageUrl,omitempty"`
}

// NLPResult is the output of one parse: every entity seen plus the
// structured medications (zero or one) built from them.
type NLPResult struct {
	RawEntities           []RawEntity            `json:"rawEntities"`
	StructuredMedications []StructuredMedication `json:"structuredMedications"`
}

// Empty reports whether no medication could be structured.
func (r NLPResult) Empty() bool {
	return len(r.StructuredMedications) == 0
}

// MedicationSchedule is the persisted, schedulable form of a medication.
// ReminderTimes are stored as 24-hour "HH:MM".
type MedicationSchedule struct {
	Name               string    `json:"name"`
	Dosage             string    `json:"dosage,omitempty"`
	Frequency          string    `json:"frequency,omitempty"`
	Instructions       string    `json:"instructions,omitempty"`
	ReminderTimes      []string  `json:"reminderTimes"`
	Active             bool      `json:"active"`
	PackageImageURL    string    `json:"packageImageUrl,omitempty"`
	MedicationImageURL string    `json:"medicationImageUrl,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Source is where the regimen text came from.
type Source string

const (
	SourceOCR    Source = "ocr"
	SourceVoice  Source = "voice"
	SourceManual Source = "manual"
	SourceTest   Source = "test"
)

// Status is the lifecycle state of a prescription aggregate.
//
//	processing -> scheduled
//	processing -> no_meds_found
//	processing -> failed          (schedule persistence error)
type Status string

const (
	StatusProcessing  Status = "processing"
	StatusScheduled   Status = "scheduled"
	StatusNoMedsFound Status = "no_meds_found"
	StatusFailed      Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusScheduled, StatusNoMedsFound, StatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusProcessing:
		return next == StatusScheduled || next == StatusNoMedsFound || next == StatusFailed
	case StatusFailed, StatusNoMedsFound:
		return next == StatusProcessing
	case StatusScheduled:
		return next == StatusScheduled
	}
	return false
}

// ImageURLs groups the object-storage references attached to a prescription.
type ImageURLs struct {
	PrescriptionImageURL string `json:"prescriptionImageUrl,omitempty"`
	PackageImageURL      string `json:"packageImageUrl,omitempty"`
	MedicationImageURL   string `json:"medicationImageUrl,omitempty"`
}

// Prescription is the persisted aggregate owned by the reminder workflows.
type Prescription struct {
	ID                  string               `json:"id"`
	UserID              string               `json:"userId"`
	Source              Source               `json:"source"`
	OriginalFilename    string               `json:"originalFilename,omitempty"`
	OCRText             string               `json:"ocrText,omitempty"`
	InputText           string               `json:"inputText,omitempty"`
	Images              ImageURLs            `json:"images"`
	NLPResult           NLPResult            `json:"nlpResult"`
	MedicationSchedules []MedicationSchedule `json:"medicationSchedules"`
	Status              Status               `json:"status"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
}

// ActiveSchedules returns the schedules with Active set.
func (p *Prescription) ActiveSchedules() []MedicationSchedule {
	out := make([]MedicationSchedule, 0, len(p.MedicationSchedules))
	for _, s := range p.MedicationSchedules {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// DueReminder is one (prescription, medication) pair whose reminder time
// equals the scanned minute.
type DueReminder struct {
	PrescriptionID string    `json:"prescriptionId"`
	UserID         string    `json:"userId"`
	MedicationName string    `json:"medicationName"`
	Dosage         string    `json:"dosage,omitempty"`
	Instructions   string    `json:"instructions,omitempty"`
	Time           string    `json:"time"`
	ScannedAt      time.Time `json:"scannedAt"`
}

//Personal.AI order the ending
