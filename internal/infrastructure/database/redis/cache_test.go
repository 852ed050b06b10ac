package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/reubenai/dealsense/internal/config"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
)

type CacheTestSuite struct {
	suite.Suite
	client *Client
	mock   redismock.ClientMock
	cache  *Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock

	s.client = &Client{
		rdb:    db,
		cfg:    config.RedisConfig{KeyPrefix: "test:", DefaultTTL: time.Hour},
		logger: logging.NewNopLogger(),
	}
	s.cache = NewCache(s.client, logging.NewNopLogger())
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *CacheTestSuite) TestGetHit() {
	s.mock.ExpectGet("test:enrichment:d1:vc_market_opportunity").SetVal(`{"tam":"$120B"}`)

	raw, err := s.cache.Get(context.Background(), "enrichment:d1:vc_market_opportunity")

	require.NoError(s.T(), err)
	assert.Equal(s.T(), `{"tam":"$120B"}`, string(raw))
}

func (s *CacheTestSuite) TestGetMissReturnsNilNil() {
	s.mock.ExpectGet("test:absent").RedisNil()

	raw, err := s.cache.Get(context.Background(), "absent")

	require.NoError(s.T(), err)
	assert.Nil(s.T(), raw)
}

func (s *CacheTestSuite) TestSetUsesDefaultTTLWhenUnset() {
	s.mock.ExpectSet("test:k", []byte("v"), time.Hour).SetVal("OK")

	err := s.cache.Set(context.Background(), "k", []byte("v"), 0)

	require.NoError(s.T(), err)
}

func (s *CacheTestSuite) TestSetExplicitTTL() {
	s.mock.ExpectSet("test:k", []byte("v"), 10*time.Minute).SetVal("OK")

	err := s.cache.Set(context.Background(), "k", []byte("v"), 10*time.Minute)

	require.NoError(s.T(), err)
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:a", "test:b").SetVal(2)

	err := s.cache.Delete(context.Background(), "a", "b")

	require.NoError(s.T(), err)
}

func (s *CacheTestSuite) TestGetOrSetLoadsOnMiss() {
	s.mock.ExpectGet("test:k").RedisNil()
	s.mock.ExpectGet("test:k").RedisNil() // re-check inside the flight
	s.mock.ExpectSet("test:k", []byte("loaded"), time.Minute).SetVal("OK")

	raw, err := s.cache.GetOrSet(context.Background(), "k", time.Minute, func(ctx context.Context) ([]byte, error) {
		return []byte("loaded"), nil
	})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), "loaded", string(raw))
}

func (s *CacheTestSuite) TestGetOrSetSkipsLoaderOnHit() {
	s.mock.ExpectGet("test:k").SetVal("cached")

	raw, err := s.cache.GetOrSet(context.Background(), "k", time.Minute, func(ctx context.Context) ([]byte, error) {
		s.T().Fatal("loader should not run on a hit")
		return nil, nil
	})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), "cached", string(raw))
}

func (s *CacheTestSuite) TestGetOrSetPropagatesLoaderError() {
	s.mock.ExpectGet("test:k").RedisNil()
	s.mock.ExpectGet("test:k").RedisNil()

	_, err := s.cache.GetOrSet(context.Background(), "k", time.Minute, func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("provider down")
	})

	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "provider down")
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestClientCloseIsIdempotent(t *testing.T) {
	db, _ := redismock.NewClientMock()
	c := &Client{rdb: db, logger: logging.NewNopLogger()}

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Raw()
	assert.ErrorIs(t, err, ErrClientClosed)
}
