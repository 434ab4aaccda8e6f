package prescription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

func TestNewPrescription(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.FixedZone("X", 3600))
	p, err := NewPrescription("u1", medication.SourceVoice, now)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, medication.StatusProcessing, p.Status)
	assert.Equal(t, time.UTC, p.CreatedAt.Location())
	assert.NotNil(t, p.MedicationSchedules)
	assert.NotNil(t, p.NLPResult.StructuredMedications)

	_, err = NewPrescription("", medication.SourceVoice, now)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUserMissing))

	_, err = NewPrescription("u1", medication.Source("fax"), now)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestCheckTransition(t *testing.T) {
	assert.NoError(t, CheckTransition(medication.StatusProcessing, medication.StatusScheduled))
	assert.NoError(t, CheckTransition(medication.StatusProcessing, medication.StatusNoMedsFound))
	assert.NoError(t, CheckTransition(medication.StatusScheduled, medication.StatusScheduled))
	assert.NoError(t, CheckTransition(medication.StatusFailed, medication.StatusProcessing))

	err := CheckTransition(medication.StatusScheduled, medication.StatusProcessing)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStatusInvalid))

	err = CheckTransition(medication.StatusProcessing, medication.Status("archived"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeStatusInvalid))
}

func TestCheckOwner(t *testing.T) {
	p := &medication.Prescription{ID: "p1", UserID: "u1"}
	assert.NoError(t, CheckOwner(p, "u1"))
	assert.True(t, errors.IsCode(CheckOwner(p, "u2"), errors.ErrCodePrescriptionForbidden))
	assert.True(t, errors.IsCode(CheckOwner(nil, "u1"), errors.ErrCodePrescriptionNotFound))
}

func TestApplyPatch(t *testing.T) {
	p := &medication.Prescription{Status: medication.StatusProcessing}
	later := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	schedules := []medication.MedicationSchedule{{Name: "Lipitor", ReminderTimes: []string{"22:00"}, Active: true}}

	err := ApplyPatch(p, Patch{
		Status:              StatusPtr(medication.StatusScheduled),
		MedicationSchedules: SchedulesPtr(schedules),
		UpdatedAt:           later,
	})
	require.NoError(t, err)
	assert.Equal(t, medication.StatusScheduled, p.Status)
	assert.Equal(t, schedules, p.MedicationSchedules)
	assert.Equal(t, later, p.UpdatedAt)

	err = ApplyPatch(p, Patch{Status: StatusPtr(medication.StatusNoMedsFound)})
	assert.True(t, errors.IsCode(err, errors.ErrCodeStatusInvalid))
	assert.Equal(t, medication.StatusScheduled, p.Status)
}

//Personal.AI order the ending
