package med_extractor

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// ---------------------------------------------------------------------------
// Collaborator contract
// ---------------------------------------------------------------------------

// LookupResult is what a drug vocabulary returns for an exact-name query.
type LookupResult struct {
	Found       bool
	Identifiers medication.DrugIdentifiers
}

// DrugVocabulary is an external authoritative drug name lookup keyed by brand
// or generic name. A nil error with Found=false is a definitive miss; a
// non-nil error means the lookup could not be completed.
type DrugVocabulary interface {
	Lookup(ctx context.Context, name string) (*LookupResult, error)
}

// ---------------------------------------------------------------------------
// DrugValidator
// ---------------------------------------------------------------------------

// DrugValidator confirms a medication name against a DrugVocabulary. It never
// returns nil and never fails: lookup errors and timeouts surface as an
// indeterminate result.
type DrugValidator interface {
	Validate(ctx context.Context, name string) *medication.ValidationResult
}

// ValidatorConfig tunes the lookup.
type ValidatorConfig struct {
	// Timeout bounds a single lookup. Zero disables the bound.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DefaultValidatorConfig returns production defaults.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{Timeout: 5 * time.Second}
}

// ValidationMetrics receives one observation per lookup.
type ValidationMetrics interface {
	RecordValidation(outcome string, duration time.Duration)
}

type noopValidationMetrics struct{}

func (noopValidationMetrics) RecordValidation(string, time.Duration) {}

type drugValidatorImpl struct {
	vocab   DrugVocabulary
	config  ValidatorConfig
	metrics ValidationMetrics
	logger  logging.Logger
}

// NewDrugValidator wraps vocab.
func NewDrugValidator(vocab DrugVocabulary, config ValidatorConfig, metrics ValidationMetrics, logger logging.Logger) (DrugValidator, error) {
	if vocab == nil {
		return nil, errors.NewInvalidInputError("drug vocabulary is required")
	}
	if metrics == nil {
		metrics = noopValidationMetrics{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &drugValidatorImpl{vocab: vocab, config: config, metrics: metrics, logger: logger}, nil
}

func (v *drugValidatorImpl) Validate(ctx context.Context, name string) *medication.ValidationResult {
	name = strings.TrimSpace(name)
	if name == "" {
		return medication.Indeterminate(name, errors.New(errors.ErrCodeNameRequired, "no medication name to validate"))
	}

	if v.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := v.vocab.Lookup(ctx, name)
	elapsed := time.Since(start)

	var result *medication.ValidationResult
	switch {
	case err != nil:
		v.logger.Warn("drug vocabulary lookup failed",
			logging.String("name", name), logging.Err(err), logging.Duration("elapsed", elapsed))
		result = medication.Indeterminate(name, err)
	case res == nil || !res.Found:
		result = medication.NotFound(name)
	default:
		result = medication.Found(name, res.Identifiers)
	}
	v.metrics.RecordValidation(string(result.Outcome), elapsed)
	return result
}

//Personal.AI order the ending
