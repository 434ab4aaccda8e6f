package kafka

import (
	"context"
	"fmt"

	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// ReminderPublisher emits reminder lifecycle events.
type ReminderPublisher struct {
	producer MessagePublisher
	source   string
	logger   logging.Logger
}

func NewReminderPublisher(producer MessagePublisher, source string, logger logging.Logger) *ReminderPublisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if source == "" {
		source = "medremind"
	}
	return &ReminderPublisher{producer: producer, source: source, logger: logger}
}

// PublishDue sends one reminder.due event per reminder, keyed by user so a
// user's reminders stay ordered within a partition.
func (p *ReminderPublisher) PublishDue(ctx context.Context, due []medication.DueReminder) error {
	if len(due) == 0 {
		return nil
	}
	msgs := make([]*ProducerMessage, 0, len(due))
	for _, d := range due {
		env, err := NewEventEnvelope(EventReminderDue, p.source, d)
		if err != nil {
			return err
		}
		msg, err := env.ToMessage(TopicReminderDue, d.UserID)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	res, err := p.producer.PublishBatch(ctx, msgs)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		return errors.New(errors.ErrCodeExternalService,
			fmt.Sprintf("%d of %d due reminders not published", res.Failed, len(msgs)))
	}
	return nil
}

// PublishScheduled announces that a prescription finished scheduling.
func (p *ReminderPublisher) PublishScheduled(ctx context.Context, rx *medication.Prescription) error {
	payload := PrescriptionScheduledPayload{
		PrescriptionID:  rx.ID,
		UserID:          rx.UserID,
		Source:          rx.Source,
		Status:          rx.Status,
		MedicationCount: len(rx.MedicationSchedules),
		ScheduledAt:     rx.UpdatedAt,
	}
	env, err := NewEventEnvelope(EventPrescriptionScheduled, p.source, payload)
	if err != nil {
		return err
	}
	env.TraceID = logging.RequestIDFromContext(ctx)
	msg, err := env.ToMessage(TopicPrescriptionScheduled, rx.ID)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

// Notifier delivers a due reminder to the patient.
type Notifier interface {
	Notify(ctx context.Context, r medication.DueReminder) error
}

// LogNotifier writes reminders to the log.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, r medication.DueReminder) error {
	n.logger.Info(fmt.Sprintf("REMINDER: Time to take %s (%s)", r.MedicationName, r.Dosage),
		logging.String("user_id", r.UserID),
		logging.String("prescription_id", r.PrescriptionID),
		logging.String("time", r.Time),
		logging.String("instructions", r.Instructions))
	return nil
}

// NewDueReminderHandler decodes reminder.due records and hands them to n.
func NewDueReminderHandler(n Notifier, logger logging.Logger) MessageHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return func(ctx context.Context, msg *Message) error {
		env, err := MessageToEventEnvelope(msg)
		if err != nil {
			logger.Warn("Dropping malformed reminder event", logging.Err(err))
			return nil
		}
		var due ReminderDuePayload
		if err := env.DecodePayload(&due); err != nil {
			logger.Warn("Dropping reminder event with bad payload",
				logging.String("event_id", env.EventID), logging.Err(err))
			return nil
		}
		return n.Notify(ctx, due)
	}
}

//Personal.AI order the ending
