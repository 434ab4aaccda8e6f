package openfda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRemind/internal/infrastructure/database/redis"
	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/internal/intelligence/med_extractor"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

type mockVocabulary struct {
	mock.Mock
}

func (m *mockVocabulary) Lookup(ctx context.Context, name string) (*med_extractor.LookupResult, error) {
	args := m.Called(ctx, name)
	res, _ := args.Get(0).(*med_extractor.LookupResult)
	return res, args.Error(1)
}

func newCachedVocabulary(t *testing.T, next med_extractor.DrugVocabulary) (*CachedVocabulary, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	log := logging.NewNopLogger()
	client, err := redis.NewClient(&redis.RedisConfig{Addr: mr.Addr()}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	cache := redis.NewRedisCache(client, log, redis.WithPrefix("t:"), redis.WithoutJitter())
	return NewCachedVocabulary(next, cache, time.Hour, log), mr
}

func TestCachedVocabulary_FoundIsCached(t *testing.T) {
	next := new(mockVocabulary)
	found := &med_extractor.LookupResult{Found: true, Identifiers: medication.DrugIdentifiers{BrandNames: []string{"LIPITOR"}}}
	next.On("Lookup", mock.Anything, "Lipitor").Return(found, nil).Once()

	v, mr := newCachedVocabulary(t, next)

	first, err := v.Lookup(context.Background(), "Lipitor")
	require.NoError(t, err)
	second, err := v.Lookup(context.Background(), "Lipitor")
	require.NoError(t, err)

	assert.Equal(t, found, first)
	assert.Equal(t, found, second)
	assert.True(t, mr.Exists("t:drugvocab:lipitor"))
	assert.Equal(t, time.Hour, mr.TTL("t:drugvocab:lipitor"))
	next.AssertExpectations(t)
}

func TestCachedVocabulary_DefinitiveMissIsCached(t *testing.T) {
	next := new(mockVocabulary)
	next.On("Lookup", mock.Anything, "Zzyzx").Return(&med_extractor.LookupResult{Found: false}, nil).Once()

	v, _ := newCachedVocabulary(t, next)

	for i := 0; i < 2; i++ {
		res, err := v.Lookup(context.Background(), "Zzyzx")
		require.NoError(t, err)
		assert.False(t, res.Found)
	}
	next.AssertExpectations(t)
}

func TestCachedVocabulary_ErrorsAreNotCached(t *testing.T) {
	next := new(mockVocabulary)
	next.On("Lookup", mock.Anything, "Lipitor").Return(nil, errors.New("timeout")).Twice()

	v, mr := newCachedVocabulary(t, next)

	for i := 0; i < 2; i++ {
		_, err := v.Lookup(context.Background(), "Lipitor")
		assert.Error(t, err)
	}
	assert.False(t, mr.Exists("t:drugvocab:lipitor"))
	next.AssertExpectations(t)
}

//Personal.AI order the ending
