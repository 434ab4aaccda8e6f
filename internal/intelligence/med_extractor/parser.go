// Package med_extractor turns free medication-regimen text into a structured
// medication record: vocabulary entity recognition, pattern fallback,
// structuring and drug vocabulary validation.
//
// Every component is a stateless transformer over an immutable Vocabulary, so
// a single Parser may be shared across goroutines.
package med_extractor

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// Parse outcomes reported to ParseMetrics.
const (
	OutcomeStructured = "structured"
	OutcomeEmpty      = "empty"
)

// ParserConfig holds tuneable parameters for the pipeline.
type ParserConfig struct {
	MaxTextLength    int `mapstructure:"max_text_length" yaml:"max_text_length"`
	BatchConcurrency int `mapstructure:"batch_concurrency" yaml:"batch_concurrency"`
}

// DefaultParserConfig returns production defaults.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		MaxTextLength:    10000,
		BatchConcurrency: 4,
	}
}

// ParseMetrics receives one observation per Parse call.
type ParseMetrics interface {
	RecordParse(outcome string, entityCount int, duration time.Duration)
}

type noopParseMetrics struct{}

func (noopParseMetrics) RecordParse(string, int, time.Duration) {}

// Parser is the top-level text-to-record API.
type Parser interface {
	// Parse rejects blank text. Otherwise it always succeeds; a text with no
	// resolvable medication yields an empty StructuredMedications slice while
	// RawEntities are still returned.
	Parse(ctx context.Context, text string) (*medication.NLPResult, error)

	// ParseBatch parses texts concurrently, preserving order. Blank entries
	// produce empty results rather than failing the batch.
	ParseBatch(ctx context.Context, texts []string) ([]*medication.NLPResult, error)
}

type parserImpl struct {
	recognizer EntityRecognizer
	structurer MedicationStructurer
	config     ParserConfig
	metrics    ParseMetrics
	logger     logging.Logger
}

// NewParser wires a Parser.
func NewParser(recognizer EntityRecognizer, structurer MedicationStructurer, config ParserConfig, metrics ParseMetrics, logger logging.Logger) (Parser, error) {
	if recognizer == nil {
		return nil, errors.NewInvalidInputError("entity recognizer is required")
	}
	if structurer == nil {
		return nil, errors.NewInvalidInputError("medication structurer is required")
	}
	if metrics == nil {
		metrics = noopParseMetrics{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &parserImpl{
		recognizer: recognizer,
		structurer: structurer,
		config:     config,
		metrics:    metrics,
		logger:     logger,
	}, nil
}

// NewDefaultParser builds a Parser over vocab with the given validator, which
// may be nil.
func NewDefaultParser(vocab *Vocabulary, validator DrugValidator, metrics ParseMetrics, logger logging.Logger) Parser {
	if vocab == nil {
		vocab = MustDefaultVocabulary()
	}
	p, _ := NewParser(
		NewEntityRecognizer(vocab),
		NewMedicationStructurer(vocab, NewFallbackMatcher(vocab), validator, logger),
		DefaultParserConfig(),
		metrics,
		logger,
	)
	return p
}

func (p *parserImpl) Parse(ctx context.Context, text string) (*medication.NLPResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeTextMissing, "text is required")
	}
	start := time.Now()

	if p.config.MaxTextLength > 0 && len(text) > p.config.MaxTextLength {
		p.logger.WithContext(ctx).Warn("truncating medication text",
			logging.Int("length", len(text)),
			logging.Int("max_text_length", p.config.MaxTextLength))
		text = truncateRunes(text, p.config.MaxTextLength)
	}
	cleaned := normaliseText(text)

	entities := p.recognizer.Recognize(text)
	result := &medication.NLPResult{
		RawEntities:           entities,
		StructuredMedications: []medication.StructuredMedication{},
	}

	outcome := OutcomeEmpty
	if med := p.structurer.Structure(ctx, cleaned, entities); med != nil {
		result.StructuredMedications = append(result.StructuredMedications, *med)
		outcome = OutcomeStructured
	}

	elapsed := time.Since(start)
	p.metrics.RecordParse(outcome, len(entities), elapsed)
	p.logger.WithContext(ctx).Debug("parsed medication text",
		logging.String("outcome", outcome),
		logging.Int("entities", len(entities)),
		logging.Duration("elapsed", elapsed))
	return result, nil
}

func (p *parserImpl) ParseBatch(ctx context.Context, texts []string) ([]*medication.NLPResult, error) {
	results := make([]*medication.NLPResult, len(texts))
	if len(texts) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	limit := p.config.BatchConcurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.Parse(gctx, text)
			if err != nil {
				if errors.IsCode(err, errors.ErrCodeTextMissing) {
					results[i] = &medication.NLPResult{
						RawEntities:           []medication.RawEntity{},
						StructuredMedications: []medication.StructuredMedication{},
					}
					return nil
				}
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

//Personal.AI order the ending
