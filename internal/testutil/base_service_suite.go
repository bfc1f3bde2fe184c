package testutil

import (
	"context"
	"time"

	"github.com/billhive/subsync/internal/cache"
	"github.com/billhive/subsync/internal/config"
	"github.com/billhive/subsync/internal/logger"
	"github.com/stretchr/testify/suite"
)

// Stores holds the repository fakes shared by service test suites
type Stores struct {
	SubscriptionStore *InMemorySubscriptionStore
	GridStore         *InMemoryGridStore
}

// BaseServiceTestSuite provides common functionality for service test suites:
// a context, a nop logger, a fresh cache, in-memory stores, a scripted
// gateway and a pinned clock.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	stores  Stores
	gateway *MockBillingGateway
	cache   cache.Cache
	logger  *logger.Logger
	config  *config.Configuration
	now     time.Time
}

// SetupTest initializes fresh dependencies before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.logger = logger.NewNopLogger()
	s.config = config.GetDefaultConfig()
	s.cache = cache.NewInMemoryCache()
	s.stores = Stores{
		SubscriptionStore: NewInMemorySubscriptionStore(),
		GridStore:         NewInMemoryGridStore(),
	}
	s.gateway = NewMockBillingGateway()
	s.now = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
}

// TearDownTest clears all stores after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.stores.SubscriptionStore.Clear()
	s.stores.GridStore.Clear()
	s.gateway.Clear()
	s.cache.Flush(s.ctx)
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetStores returns the in-memory stores
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetGateway returns the scripted billing gateway
func (s *BaseServiceTestSuite) GetGateway() *MockBillingGateway {
	return s.gateway
}

// GetCache returns the cache instance
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetNow returns the pinned test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

// SetNow pins the test time
func (s *BaseServiceTestSuite) SetNow(t time.Time) {
	s.now = t
}

// Clock returns a clock function frozen at the pinned test time
func (s *BaseServiceTestSuite) Clock() func() time.Time {
	return func() time.Time { return s.now }
}
