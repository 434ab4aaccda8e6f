// Package prescription holds the aggregate rules of a stored prescription:
// the persistence contract, lifecycle transitions and ownership checks.
package prescription

import (
	"time"

	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// NewPrescription builds an aggregate in the processing state.
func NewPrescription(userID string, source medication.Source, now time.Time) (*medication.Prescription, error) {
	if userID == "" {
		return nil, errors.New(errors.ErrCodeUserMissing, "user id is required")
	}
	switch source {
	case medication.SourceOCR, medication.SourceVoice, medication.SourceManual, medication.SourceTest:
	default:
		return nil, errors.New(errors.CodeInvalidParam, "unknown prescription source").WithDetail(string(source))
	}
	now = now.UTC()
	return &medication.Prescription{
		UserID:              userID,
		Source:              source,
		Status:              medication.StatusProcessing,
		NLPResult:           medication.NLPResult{RawEntities: []medication.RawEntity{}, StructuredMedications: []medication.StructuredMedication{}},
		MedicationSchedules: []medication.MedicationSchedule{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// CheckTransition returns ErrCodeStatusInvalid when from -> to is not a
// lifecycle edge.
func CheckTransition(from, to medication.Status) error {
	if !to.Valid() {
		return errors.New(errors.ErrCodeStatusInvalid, "unknown status").WithDetail(string(to))
	}
	if from == to {
		return nil
	}
	if !from.CanTransitionTo(to) {
		return errors.New(errors.ErrCodeStatusInvalid, "status transition not allowed").
			WithDetail(string(from) + " -> " + string(to))
	}
	return nil
}

// CheckOwner rejects access by anyone but the aggregate's user.
func CheckOwner(p *medication.Prescription, userID string) error {
	if p == nil {
		return errors.New(errors.ErrCodePrescriptionNotFound, "prescription not found")
	}
	if p.UserID != userID {
		return errors.New(errors.ErrCodePrescriptionForbidden, "prescription belongs to another user")
	}
	return nil
}

// ApplyPatch copies the set fields of patch onto p. Status changes are
// checked against the lifecycle.
func ApplyPatch(p *medication.Prescription, patch Patch) error {
	if patch.Status != nil {
		if err := CheckTransition(p.Status, *patch.Status); err != nil {
			return err
		}
		p.Status = *patch.Status
	}
	if patch.NLPResult != nil {
		p.NLPResult = *patch.NLPResult
	}
	if patch.MedicationSchedules != nil {
		p.MedicationSchedules = *patch.MedicationSchedules
	}
	if patch.Images != nil {
		p.Images = *patch.Images
	}
	if !patch.UpdatedAt.IsZero() {
		p.UpdatedAt = patch.UpdatedAt.UTC()
	}
	return nil
}

// StatusPtr is a convenience for building patches.
func StatusPtr(s medication.Status) *medication.Status { return &s }

// SchedulesPtr is a convenience for building patches.
func SchedulesPtr(s []medication.MedicationSchedule) *[]medication.MedicationSchedule { return &s }

//Personal.AI order the ending
