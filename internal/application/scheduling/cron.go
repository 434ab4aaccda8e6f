package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// Ticker is the unit of work run on every cron firing.
type Ticker interface {
	Tick(ctx context.Context, now time.Time) []medication.DueReminder
}

// CronRunner fires a Ticker on a standard five-field cron spec. A firing
// that overlaps a still-running tick is skipped.
type CronRunner struct {
	c      *cron.Cron
	ticker Ticker
	ctx    context.Context
	cancel context.CancelFunc
	logger logging.Logger
}

// NewCronRunner validates spec and registers the tick job. Descriptors such
// as "@every 30s" are accepted.
func NewCronRunner(ticker Ticker, spec string, loc *time.Location, logger logging.Logger) (*CronRunner, error) {
	if ticker == nil {
		return nil, errors.New(errors.CodeInvalidParam, "ticker is required")
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.Named("cron")

	clog := cronLogger{logger}
	c := cron.New(
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
		cron.WithLocation(loc),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	r := &CronRunner{c: c, ticker: ticker, ctx: ctx, cancel: cancel, logger: logger}
	if _, err := c.AddFunc(spec, r.fire); err != nil {
		cancel()
		return nil, errors.Wrap(err, errors.CodeInvalidParam, fmt.Sprintf("invalid cron spec %q", spec))
	}
	return r, nil
}

func (r *CronRunner) fire() {
	r.ticker.Tick(r.ctx, time.Now())
}

// Start begins firing in the background.
func (r *CronRunner) Start() {
	r.logger.Info("scan scheduler started")
	r.c.Start()
}

// Stop prevents further firings and waits for a running tick to finish or
// ctx to end, whichever comes first. The running tick's context is cancelled
// when ctx ends.
func (r *CronRunner) Stop(ctx context.Context) error {
	done := r.c.Stop()
	select {
	case <-done.Done():
		r.cancel()
		r.logger.Info("scan scheduler stopped")
		return nil
	case <-ctx.Done():
		r.cancel()
		return ctx.Err()
	}
}

// cronLogger routes cron's key/value logging into logging.Logger.
type cronLogger struct{ l logging.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.l.Debug(msg, kvFields(kv)...)
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Error(msg, append(kvFields(kv), logging.Err(err))...)
}

func kvFields(kv []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logging.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}

//Personal.AI order the ending
