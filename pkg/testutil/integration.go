package testutil

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/seaschema/pkg/config"
)

// IntegrationEnvPrefix prefixes the variables describing a live database,
// e.g. SEASCHEMA_IT_POSTGRESQL_HOST
const IntegrationEnvPrefix = "SEASCHEMA_IT_"

// IntegrationTest skips the test in short mode
func IntegrationTest(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// ConnectionFromEnv reads SEASCHEMA_IT_<KIND>_{HOST,PORT,USERNAME,PASSWORD,
// DATABASE,SERVICE_NAME}. ok is false when HOST is not set.
func ConnectionFromEnv(kind string) (cfg config.ConnectionConfig, ok bool) {
	prefix := IntegrationEnvPrefix + strings.ToUpper(kind) + "_"
	get := func(key string) string { return os.Getenv(prefix + key) }

	cfg.Host = get("HOST")
	if cfg.Host == "" {
		return cfg, false
	}
	cfg.Port, _ = strconv.Atoi(get("PORT"))
	cfg.Username = get("USERNAME")
	cfg.Password = get("PASSWORD")
	cfg.Database = get("DATABASE")
	cfg.ServiceName = get("SERVICE_NAME")
	return cfg.WithDefaults(), true
}

// IntegrationTestSuite is the base for suites that need a live database of
// one kind. The suite is skipped when the database is not configured.
type IntegrationTestSuite struct {
	suite.Suite

	Kind       string
	Connection config.ConnectionConfig

	ctx       context.Context
	startTime time.Time
}

// SetupSuite loads the connection for Kind or skips the suite
func (s *IntegrationTestSuite) SetupSuite() {
	IntegrationTest(s.T())

	cfg, ok := ConnectionFromEnv(s.Kind)
	if !ok {
		s.T().Skipf("%s%s_HOST not set", IntegrationEnvPrefix, strings.ToUpper(s.Kind))
	}
	s.Connection = cfg
	s.ctx = TestContext(s.T(), 5*time.Minute)
	s.startTime = time.Now()
	s.T().Logf("integration suite for %s against %s", s.Kind, cfg)
}

// TearDownSuite reports the suite duration
func (s *IntegrationTestSuite) TearDownSuite() {
	if s.ctx != nil {
		s.T().Logf("integration suite completed in %v", time.Since(s.startTime))
	}
}

// Context returns the suite context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}
