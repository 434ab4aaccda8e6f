package openfda

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/MedRemind/internal/infrastructure/database/redis"
	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/internal/intelligence/med_extractor"
)

// CachedVocabulary memoises definitive lookups. Errors are never cached so a
// flaky upstream does not pin names as unknown.
type CachedVocabulary struct {
	next   med_extractor.DrugVocabulary
	cache  redis.Cache
	ttl    time.Duration
	logger logging.Logger
}

func NewCachedVocabulary(next med_extractor.DrugVocabulary, cache redis.Cache, ttl time.Duration, log logging.Logger) *CachedVocabulary {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedVocabulary{next: next, cache: cache, ttl: ttl, logger: log}
}

func (v *CachedVocabulary) Lookup(ctx context.Context, name string) (*med_extractor.LookupResult, error) {
	key := "drugvocab:" + strings.ToLower(strings.TrimSpace(name))

	var out med_extractor.LookupResult
	err := v.cache.GetOrSet(ctx, key, &out, v.ttl, func(ctx context.Context) (interface{}, error) {
		v.logger.Debug("Drug vocabulary cache miss", logging.String("name", name))
		return v.next.Lookup(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

var _ med_extractor.DrugVocabulary = (*CachedVocabulary)(nil)
var _ med_extractor.DrugVocabulary = (*Client)(nil)

//Personal.AI order the ending
