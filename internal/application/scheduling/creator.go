package scheduling

import (
	"context"
	"time"

	"github.com/turtacn/MedRemind/internal/domain/prescription"
	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// ScheduleCreator is the persistence step that follows a parse: it turns the
// structured medications into active schedules on the stored aggregate.
type ScheduleCreator struct {
	repo      prescription.Repository
	generator *Generator
	logger    logging.Logger
	now       func() time.Time
}

// NewScheduleCreator wires a ScheduleCreator.
func NewScheduleCreator(repo prescription.Repository, generator *Generator, logger logging.Logger) (*ScheduleCreator, error) {
	if repo == nil {
		return nil, errors.New(errors.CodeInvalidParam, "prescription repository is required")
	}
	if generator == nil {
		generator = NewGenerator()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ScheduleCreator{repo: repo, generator: generator, logger: logger.Named("schedule_creator"), now: time.Now}, nil
}

// BuildSchedules converts meds into active schedules with canonical 24-hour
// times. Images default to the prescription's own references. Times that
// cannot be read as a clock value are dropped and logged; when none survive,
// the times are inferred from the frequency instead.
func (c *ScheduleCreator) BuildSchedules(meds []medication.StructuredMedication, images medication.ImageURLs) []medication.MedicationSchedule {
	now := c.now().UTC()
	out := make([]medication.MedicationSchedule, 0, len(meds))
	for _, m := range meds {
		times, err := medication.CanonicalizeTimes(c.generator.Generate(m))
		if err != nil {
			c.logger.Warn("dropping unreadable reminder times",
				logging.String("medication", m.Name), logging.Err(err))
		}
		if len(times) == 0 && len(m.ReminderTimes) > 0 {
			// every explicit time was unreadable
			times, _ = medication.CanonicalizeTimes(c.generator.InferFromFrequency(m.Frequency))
		}
		s := medication.MedicationSchedule{
			Name:               m.Name,
			Dosage:             m.Dosage,
			Frequency:          m.Frequency,
			Instructions:       m.Instructions,
			ReminderTimes:      times,
			Active:             true,
			PackageImageURL:    firstNonEmpty(m.PackageImageURL, images.PackageImageURL),
			MedicationImageURL: firstNonEmpty(m.MedicationImageURL, images.MedicationImageURL),
			CreatedAt:          now,
		}
		out = append(out, s)
	}
	return out
}

// CreateInitialSchedules writes schedules for meds onto the prescription and
// moves it to scheduled, or to no_meds_found when meds is empty. A failed
// write marks the prescription failed.
func (c *ScheduleCreator) CreateInitialSchedules(ctx context.Context, prescriptionID string, meds []medication.StructuredMedication) ([]medication.MedicationSchedule, error) {
	p, err := c.repo.Get(ctx, prescriptionID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScheduleCreateFailed, "load prescription")
	}

	if len(meds) == 0 {
		patch := prescription.Patch{Status: prescription.StatusPtr(medication.StatusNoMedsFound), UpdatedAt: c.now()}
		if err := c.repo.Update(ctx, prescriptionID, patch); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeScheduleCreateFailed, "mark prescription without medications")
		}
		c.logger.Info("no medications to schedule", logging.String("prescription_id", prescriptionID))
		return []medication.MedicationSchedule{}, nil
	}

	schedules := c.BuildSchedules(meds, p.Images)
	patch := prescription.Patch{
		Status:              prescription.StatusPtr(medication.StatusScheduled),
		MedicationSchedules: prescription.SchedulesPtr(schedules),
		UpdatedAt:           c.now(),
	}
	if err := c.repo.Update(ctx, prescriptionID, patch); err != nil {
		failed := prescription.Patch{Status: prescription.StatusPtr(medication.StatusFailed), UpdatedAt: c.now()}
		if ferr := c.repo.Update(ctx, prescriptionID, failed); ferr != nil {
			c.logger.Error("could not mark prescription failed",
				logging.String("prescription_id", prescriptionID), logging.Err(ferr))
		}
		return nil, errors.Wrap(err, errors.ErrCodeScheduleCreateFailed, "save schedules")
	}

	c.logger.Info("created medication schedules",
		logging.String("prescription_id", prescriptionID),
		logging.Int("count", len(schedules)))
	return schedules, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

//Personal.AI order the ending
