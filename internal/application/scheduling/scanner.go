package scheduling

import (
	"context"
	"time"

	"github.com/turtacn/MedRemind/internal/domain/prescription"
	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// DuePublisher receives the reminders found due in one tick.
type DuePublisher interface {
	PublishDue(ctx context.Context, due []medication.DueReminder) error
}

// ScanLease lets exactly one scanner replica handle a given tick.
// Acquire returns false when another holder already owns key.
type ScanLease interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// ScanMetrics receives one observation per completed or failed tick.
type ScanMetrics interface {
	RecordScan(status string, due int, duration time.Duration)
}

type noopScanMetrics struct{}

func (noopScanMetrics) RecordScan(string, int, time.Duration) {}

// Scan statuses reported to ScanMetrics.
const (
	ScanStatusOK      = "ok"
	ScanStatusFailed  = "failed"
	ScanStatusSkipped = "skipped"
)

// ScannerConfig tunes the due-scanner.
type ScannerConfig struct {
	// Location is the wall clock reminder times are expressed in.
	Location *time.Location
	// LeaseTTL bounds how long a tick lease is held. Zero disables leasing.
	LeaseTTL time.Duration
}

// DueScanner reports which active schedules have a reminder at the current
// minute. Scan is read-only; it keeps no record of what it already reported,
// so a schedule is reported again on every tick within its minute.
type DueScanner struct {
	repo      prescription.Repository
	publisher DuePublisher
	lease     ScanLease
	metrics   ScanMetrics
	config    ScannerConfig
	logger    logging.Logger
}

// ScannerOption customises a DueScanner.
type ScannerOption func(*DueScanner)

// WithPublisher delivers due reminders found by Tick.
func WithPublisher(p DuePublisher) ScannerOption { return func(s *DueScanner) { s.publisher = p } }

// WithLease guards each tick with a lease keyed by the tick instant rounded
// to the second. Replicas on the same cron spec fire on the same second and
// share a key; several ticks within one minute get distinct keys.
func WithLease(l ScanLease) ScannerOption { return func(s *DueScanner) { s.lease = l } }

// WithScanMetrics records tick outcomes.
func WithScanMetrics(m ScanMetrics) ScannerOption { return func(s *DueScanner) { s.metrics = m } }

// NewDueScanner wires a DueScanner.
func NewDueScanner(repo prescription.Repository, config ScannerConfig, logger logging.Logger, opts ...ScannerOption) (*DueScanner, error) {
	if repo == nil {
		return nil, errors.New(errors.CodeInvalidParam, "prescription repository is required")
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &DueScanner{repo: repo, config: config, metrics: noopScanMetrics{}, logger: logger.Named("due_scanner")}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Scan loads every scheduled prescription and returns the active
// medications whose reminder times contain now's "HH:MM". Stored values
// that are not canonical are converted before comparing.
func (s *DueScanner) Scan(ctx context.Context, now time.Time) ([]medication.DueReminder, error) {
	now = now.In(s.config.Location)
	current := medication.FormatMinute(now)

	prescriptions, err := s.repo.FindByStatus(ctx, medication.StatusScheduled)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScanFailed, "query scheduled prescriptions")
	}

	due := make([]medication.DueReminder, 0)
	for _, p := range prescriptions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, sched := range p.MedicationSchedules {
			if !sched.Active || !hasTime(sched.ReminderTimes, current) {
				continue
			}
			due = append(due, medication.DueReminder{
				PrescriptionID: p.ID,
				UserID:         p.UserID,
				MedicationName: sched.Name,
				Dosage:         sched.Dosage,
				Instructions:   sched.Instructions,
				Time:           current,
				ScannedAt:      now,
			})
		}
	}
	return due, nil
}

// Tick runs one scheduled scan. Failures are logged and the tick is
// abandoned; the next tick starts fresh. It returns what was found so
// callers can report it.
func (s *DueScanner) Tick(ctx context.Context, now time.Time) []medication.DueReminder {
	start := time.Now()
	local := now.In(s.config.Location)
	minute := local.Format("2006-01-02T15:04")

	if s.lease != nil && s.config.LeaseTTL > 0 {
		tick := local.Round(time.Second).Format("2006-01-02T15:04:05")
		ok, err := s.lease.Acquire(ctx, "due_scan:"+tick, s.config.LeaseTTL)
		if err != nil {
			s.logger.Warn("scan lease unavailable, scanning anyway", logging.String("tick", tick), logging.Err(err))
		} else if !ok {
			s.logger.Debug("tick already scanned by another worker", logging.String("tick", tick))
			s.metrics.RecordScan(ScanStatusSkipped, 0, time.Since(start))
			return nil
		}
	}

	due, err := s.Scan(ctx, now)
	if err != nil {
		s.logger.Error("due scan failed", logging.String("minute", minute), logging.Err(err))
		s.metrics.RecordScan(ScanStatusFailed, 0, time.Since(start))
		return nil
	}

	for _, d := range due {
		s.logger.Info("reminder due",
			logging.String("user_id", d.UserID),
			logging.String("prescription_id", d.PrescriptionID),
			logging.String("medication", d.MedicationName),
			logging.String("time", d.Time))
	}

	if s.publisher != nil && len(due) > 0 {
		if err := s.publisher.PublishDue(ctx, due); err != nil {
			s.logger.Error("publish due reminders failed", logging.Int("count", len(due)), logging.Err(err))
		}
	}
	s.metrics.RecordScan(ScanStatusOK, len(due), time.Since(start))
	return due
}

func hasTime(times []string, current string) bool {
	for _, t := range times {
		if t == current {
			return true
		}
		if c, err := medication.ToCanonicalClock(t); err == nil && c == current {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
