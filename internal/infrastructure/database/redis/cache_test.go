package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/MedRemind/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache Cache
}

type drugEntry struct {
	Name  string `json:"name"`
	RxCUI string `json:"rxcui"`
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	log := logging.NewNopLogger()
	client := &Client{rdb: db, config: &RedisConfig{}, logger: log}
	s.cache = NewRedisCache(client, log, WithPrefix("test:"), WithoutJitter(), WithNullCacheTTL(time.Minute))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *CacheTestSuite) TestGet_Hit() {
	val := drugEntry{Name: "lipitor", RxCUI: "153165"}
	raw, _ := json.Marshal(val)
	s.mock.ExpectGet("test:lipitor").SetVal(string(raw))

	var dest drugEntry
	err := s.cache.Get(context.Background(), "Lipitor", &dest)

	assert.NoError(s.T(), err)
	assert.Equal(s.T(), val, dest)
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:k").RedisNil()

	var dest drugEntry
	err := s.cache.Get(context.Background(), "k", &dest)

	assert.Equal(s.T(), ErrCacheMiss, err)
	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestGet_NullMarkerIsMiss() {
	s.mock.ExpectGet("test:k").SetVal(nullMarker)

	var dest drugEntry
	assert.Equal(s.T(), ErrCacheMiss, s.cache.Get(context.Background(), "k", &dest))
}

func (s *CacheTestSuite) TestGet_BackendError() {
	s.mock.ExpectGet("test:k").SetErr(errors.New("conn reset"))

	var dest drugEntry
	err := s.cache.Get(context.Background(), "k", &dest)

	assert.Error(s.T(), err)
	assert.NotEqual(s.T(), ErrCacheMiss, err)
	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestSet_ExactTTL() {
	val := drugEntry{Name: "aspirin"}
	raw, _ := json.Marshal(val)
	s.mock.ExpectSet("test:aspirin", raw, time.Hour).SetVal("OK")

	assert.NoError(s.T(), s.cache.Set(context.Background(), "aspirin", val, time.Hour))
}

func (s *CacheTestSuite) TestSetNull() {
	s.mock.ExpectSet("test:unknown", nullMarker, time.Minute).SetVal("OK")

	assert.NoError(s.T(), s.cache.SetNull(context.Background(), "unknown"))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:k1", "test:k2").SetVal(2)

	assert.NoError(s.T(), s.cache.Delete(context.Background(), "k1", "k2"))
}

func (s *CacheTestSuite) TestDelete_NoKeys() {
	assert.NoError(s.T(), s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestGetOrSet_HitSkipsLoader() {
	val := drugEntry{Name: "lipitor"}
	raw, _ := json.Marshal(val)
	s.mock.ExpectGet("test:lipitor").SetVal(string(raw))

	called := false
	var dest drugEntry
	err := s.cache.GetOrSet(context.Background(), "lipitor", &dest, time.Hour, func(ctx context.Context) (interface{}, error) {
		called = true
		return nil, nil
	})

	assert.NoError(s.T(), err)
	assert.False(s.T(), called)
	assert.Equal(s.T(), val, dest)
}

func (s *CacheTestSuite) TestGetOrSet_MissLoadsAndStores() {
	val := drugEntry{Name: "metformin", RxCUI: "6809"}
	raw, _ := json.Marshal(val)
	s.mock.ExpectGet("test:metformin").RedisNil()
	s.mock.ExpectSet("test:metformin", raw, time.Hour).SetVal("OK")

	var dest drugEntry
	err := s.cache.GetOrSet(context.Background(), "metformin", &dest, time.Hour, func(ctx context.Context) (interface{}, error) {
		return val, nil
	})

	assert.NoError(s.T(), err)
	assert.Equal(s.T(), val, dest)
}

func (s *CacheTestSuite) TestGetOrSet_LoaderError() {
	s.mock.ExpectGet("test:k").RedisNil()

	var dest drugEntry
	err := s.cache.GetOrSet(context.Background(), "k", &dest, time.Hour, func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("upstream down")
	})

	assert.EqualError(s.T(), err, "upstream down")
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

//Personal.AI order the ending
