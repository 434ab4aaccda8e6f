package med_extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRemind/pkg/types/medication"
)

type stubValidator struct {
	result *medication.ValidationResult
	calls  []string
}

func (s *stubValidator) Validate(_ context.Context, name string) *medication.ValidationResult {
	s.calls = append(s.calls, name)
	return s.result
}

func structure(t *testing.T, validator DrugValidator, text string) *medication.StructuredMedication {
	t.Helper()
	vocab := MustDefaultVocabulary()
	r := NewEntityRecognizer(vocab)
	s := NewMedicationStructurer(vocab, nil, validator, nil)
	cleaned := normaliseText(text)
	return s.Structure(context.Background(), cleaned, r.Recognize(cleaned))
}

func TestStructure_MetforminExample(t *testing.T) {
	med := structure(t, nil, "Take Metformin 500 mg twice a day with food")
	require.NotNil(t, med)

	assert.Equal(t, "Metformin", med.Name)
	assert.Equal(t, "500 mg", med.Dosage)
	assert.Equal(t, "twice a day", med.Frequency)
	assert.Equal(t, "Take with food", med.Instructions)
	assert.NotNil(t, med.ReminderTimes)
	assert.Empty(t, med.ReminderTimes)
	assert.Equal(t, "", med.TimeContext)
	assert.Nil(t, med.Validation)
}

func TestStructure_TimeEntitiesSortedAsStrings(t *testing.T) {
	med := structure(t, nil, "Take Lipitor 10 mg in the morning and after dinner")
	require.NotNil(t, med)

	assert.Equal(t, "Lipitor", med.Name)
	assert.Equal(t, "10 mg", med.Dosage)
	assert.Equal(t, []string{"6:30 PM", "8:00 AM"}, med.ReminderTimes)
	assert.Equal(t, "twice a day", med.Frequency)
	assert.Equal(t, "in the morning, after dinner", med.TimeContext)
}

func TestStructure_FallbackNameAndClockTimes(t *testing.T) {
	med := structure(t, nil, "Take Foobar 2 tablets at 9 pm and 7:30 am")
	require.NotNil(t, med)

	assert.Equal(t, "Foobar", med.Name)
	assert.Equal(t, "2 tablets", med.Dosage)
	assert.Equal(t, []string{"7:30 AM", "9 PM"}, med.ReminderTimes)
	assert.Equal(t, "9 pm, 7:30 am", med.TimeContext)
	assert.Equal(t, "twice a day", med.Frequency)
}

func TestStructure_OutOfRangeClockLeavesFrequency(t *testing.T) {
	med := structure(t, nil, "Take Foobar 2 tablets daily at 13:00 pm")
	require.NotNil(t, med)

	assert.Empty(t, med.ReminderTimes)
	assert.Empty(t, med.TimeContext)
	assert.Equal(t, "daily", med.Frequency)
}

func TestStructure_DisplayNameFromVocabulary(t *testing.T) {
	med := structure(t, nil, "ATORVASTATIN 20 mg at night")
	require.NotNil(t, med)

	assert.Equal(t, "Lipitor", med.Name)
	assert.Equal(t, []string{"10:00 PM"}, med.ReminderTimes)
	assert.Equal(t, "once a day", med.Frequency)
}

func TestStructure_DuplicateClockCollapsed(t *testing.T) {
	med := structure(t, nil, "Aspirin in the evening, evening again")
	require.NotNil(t, med)

	assert.Equal(t, []string{"6:00 PM"}, med.ReminderTimes)
	assert.Equal(t, "in the evening", med.TimeContext)
}

func TestStructure_NoMedication(t *testing.T) {
	assert.Nil(t, structure(t, nil, "I feel fine today"))
	assert.Nil(t, structure(t, nil, "twice a day with food"))
}

func TestStructure_UnitWithoutNumberLeavesDosageEmpty(t *testing.T) {
	med := structure(t, nil, "Crocin tablets daily")
	require.NotNil(t, med)

	assert.Equal(t, "", med.Dosage)
	assert.Equal(t, "daily", med.Frequency)
}

func TestStructure_NilEntitiesUsesFallbackOnly(t *testing.T) {
	s := NewMedicationStructurer(nil, nil, nil, nil)

	med := s.Structure(context.Background(), "take Zyrtec 10 mg daily with water", nil)
	require.NotNil(t, med)

	assert.Equal(t, "Zyrtec", med.Name)
	assert.Equal(t, "10", med.Dosage)
	assert.Equal(t, "daily", med.Frequency)
	assert.Equal(t, "with water", med.Instructions)
}

func TestStructure_ValidationAttachedButNeverBlocks(t *testing.T) {
	v := &stubValidator{result: medication.Indeterminate("Metformin", assert.AnError)}

	med := structure(t, v, "Take Metformin 500 mg twice a day with food")
	require.NotNil(t, med)

	assert.Equal(t, []string{"Metformin"}, v.calls)
	require.NotNil(t, med.Validation)
	assert.Equal(t, medication.OutcomeIndeterminate, med.Validation.Outcome)
	assert.Equal(t, "Metformin", med.Name)
}

func TestStructure_ValidatorSkippedWithoutName(t *testing.T) {
	v := &stubValidator{result: medication.NotFound("x")}

	assert.Nil(t, structure(t, v, "nothing to see"))
	assert.Empty(t, v.calls)
}

func TestStructure_Idempotent(t *testing.T) {
	text := "Take Lipitor 10 mg in the morning and after dinner"
	assert.Equal(t, structure(t, nil, text), structure(t, nil, text))
}

func TestFrequencyFromCount(t *testing.T) {
	assert.Equal(t, "once a day", FrequencyFromCount(1))
	assert.Equal(t, "twice a day", FrequencyFromCount(2))
	assert.Equal(t, "4 times a day", FrequencyFromCount(4))
}

//Personal.AI order the ending
