package med_extractor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// ---------------------------------------------------------------------------
// Fixed tables
// ---------------------------------------------------------------------------

// StructurerTimeTable maps timeOfDay and mealTime canonical values to display
// clock times. The schedule generator keeps its own, different table.
var StructurerTimeTable = map[string]string{
	"morning":   "8:00 AM",
	"breakfast": "7:30 AM",
	"noon":      "12:00 PM",
	"lunch":     "12:30 PM",
	"afternoon": "3:00 PM",
	"evening":   "6:00 PM",
	"dinner":    "6:30 PM",
	"night":     "10:00 PM",
}

// InstructionTable maps instructionTerm canonical values to display text.
var InstructionTable = map[string]string{
	"with_water":    "Take with water",
	"with_food":     "Take with food",
	"empty_stomach": "Take on empty stomach",
}

// ---------------------------------------------------------------------------
// Structurer
// ---------------------------------------------------------------------------

// MedicationStructurer merges recognizer and fallback output into one record.
type MedicationStructurer interface {
	// Structure returns nil when no medication name can be resolved.
	Structure(ctx context.Context, text string, entities []medication.RawEntity) *medication.StructuredMedication
}

type structurerImpl struct {
	vocab     *Vocabulary
	fallback  FallbackMatcher
	validator DrugValidator
	logger    logging.Logger
}

// NewMedicationStructurer wires a structurer. validator may be nil, in which
// case the Validation field is left unset.
func NewMedicationStructurer(vocab *Vocabulary, fallback FallbackMatcher, validator DrugValidator, logger logging.Logger) MedicationStructurer {
	if vocab == nil {
		vocab = MustDefaultVocabulary()
	}
	if fallback == nil {
		fallback = NewFallbackMatcher(vocab)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &structurerImpl{vocab: vocab, fallback: fallback, validator: validator, logger: logger}
}

func (s *structurerImpl) Structure(ctx context.Context, text string, entities []medication.RawEntity) *medication.StructuredMedication {
	med := &medication.StructuredMedication{ReminderTimes: []string{}}

	// 1. name
	med.Name = s.resolveName(text, entities)
	if med.Name == "" {
		s.logger.Debug("no medication name identified")
		return nil
	}

	// 2. dosage: a number is required, the unit is optional
	if num := s.fallback.DosageNumber(text); num != "" {
		med.Dosage = num
		if unit, ok := firstOf(entities, medication.EntityDosageUnit); ok {
			med.Dosage = num + " " + unit.SourceText
		}
	}

	// 3. frequency
	if freq, ok := firstOf(entities, medication.EntityFrequency); ok {
		med.Frequency = strings.ToLower(freq.SourceText)
	} else {
		med.Frequency = s.fallback.Frequency(text)
	}

	// 4. instructions
	if instr, ok := firstOf(entities, medication.EntityInstruction); ok {
		if mapped, known := InstructionTable[instr.CanonicalValue]; known {
			med.Instructions = mapped
		} else {
			med.Instructions = instr.SourceText
		}
	} else {
		med.Instructions = s.fallback.Instruction(text)
	}

	// 5. reminder times
	times, phrases := mapTimeEntities(entities)
	if len(times) == 0 {
		clock, said := s.fallback.ClockTimes(text)
		times = append(times, clock...)
		phrases = append(phrases, said...)
	}
	med.TimeContext = strings.Join(phrases, ", ")

	// 6. string sort
	sort.Strings(times)
	med.ReminderTimes = times

	// 7. frequency from count
	if med.Frequency == "" && len(med.ReminderTimes) > 0 {
		med.Frequency = FrequencyFromCount(len(med.ReminderTimes))
	}

	// 8. validation never aborts the record
	if s.validator != nil {
		med.Validation = s.validator.Validate(ctx, med.Name)
	}
	return med
}

func (s *structurerImpl) resolveName(text string, entities []medication.RawEntity) string {
	if e, ok := firstOf(entities, medication.EntityMedication); ok {
		if entry, found := s.vocab.Entry(e.Type, e.CanonicalValue); found {
			return entry.Display()
		}
		return e.SourceText
	}
	return s.fallback.MedicationName(text)
}

// mapTimeEntities maps timeOfDay then mealTime entities through
// StructurerTimeTable, dropping entries whose target time was already added.
// It returns the times and the source phrases in insertion order.
func mapTimeEntities(entities []medication.RawEntity) ([]string, []string) {
	times := []string{}
	var phrases []string
	seen := make(map[string]bool)
	for _, t := range []medication.EntityType{medication.EntityTimeOfDay, medication.EntityMealTime} {
		for _, e := range entities {
			if e.Type != t {
				continue
			}
			clock, ok := StructurerTimeTable[e.CanonicalValue]
			if !ok || seen[clock] {
				continue
			}
			seen[clock] = true
			times = append(times, clock)
			phrases = append(phrases, e.SourceText)
		}
	}
	return times, phrases
}

// FrequencyFromCount renders a reminder count as a cadence phrase.
func FrequencyFromCount(n int) string {
	switch n {
	case 1:
		return "once a day"
	case 2:
		return "twice a day"
	default:
		return fmt.Sprintf("%d times a day", n)
	}
}

func firstOf(entities []medication.RawEntity, t medication.EntityType) (medication.RawEntity, bool) {
	for _, e := range entities {
		if e.Type == t {
			return e, true
		}
	}
	return medication.RawEntity{}, false
}

//Personal.AI order the ending
