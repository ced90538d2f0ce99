// Package config provides the configuration values used by seaschema.
//
// ConnectionConfig describes how to reach a single database instance and is
// handed to a connector by value; ManagerConfig controls retry and deadline
// behavior of the schema manager.
//
// Example usage:
//
//	cfg := config.ConnectionConfig{
//	    Host:     "localhost",
//	    Port:     5432,
//	    Username: "viewer",
//	    Password: os.Getenv("PG_PASSWORD"),
//	    Database: "account",
//	}.WithDefaults()
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"time"
)

const (
	// DefaultPoolMin is the minimum pool size when none is configured
	DefaultPoolMin = 1
	// DefaultPoolMax is the maximum pool size when none is configured
	DefaultPoolMax = 10
	// DefaultConnectTimeout bounds pool establishment
	DefaultConnectTimeout = 10 * time.Second
)

// ConnectionConfig describes how to reach one database instance.
// It is a value type: a connector keeps its own copy, so later changes made
// by the caller are never observed by a live connector.
type ConnectionConfig struct {
	// Host is the database server host name or address
	Host string `yaml:"host" json:"host"`
	// Port is the TCP port (1-65535)
	Port int `yaml:"port" json:"port"`
	// Username used to authenticate
	Username string `yaml:"username" json:"username"`
	// Password used to authenticate
	Password string `yaml:"password" json:"-"`
	// Database is the optional database name
	Database string `yaml:"database" json:"database,omitempty"`
	// ServiceName replaces Database for Oracle-like backends
	ServiceName string `yaml:"service_name" json:"service_name,omitempty"`
	// PoolMin is the number of sessions kept open
	PoolMin int `yaml:"pool_min" json:"pool_min"`
	// PoolMax bounds concurrent sessions
	PoolMax int `yaml:"pool_max" json:"pool_max"`
	// ConnectTimeout bounds pool establishment
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout,omitempty"`
	// Options carries driver specific parameters (e.g. sslmode)
	Options map[string]string `yaml:"options" json:"options,omitempty"`
}

// WithDefaults returns a copy with pool sizes and timeouts filled in.
func (c ConnectionConfig) WithDefaults() ConnectionConfig {
	if c.PoolMin == 0 {
		c.PoolMin = DefaultPoolMin
	}
	if c.PoolMax == 0 {
		c.PoolMax = DefaultPoolMax
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Options != nil {
		opts := make(map[string]string, len(c.Options))
		for k, v := range c.Options {
			opts[k] = v
		}
		c.Options = opts
	}
	return c
}

// Validate checks required fields and value ranges.
func (c ConnectionConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Username == "" {
		return fmt.Errorf("username is required")
	}
	if c.PoolMin <= 0 {
		return fmt.Errorf("pool_min must be positive")
	}
	if c.PoolMax <= 0 {
		return fmt.Errorf("pool_max must be positive")
	}
	if c.PoolMin > c.PoolMax {
		return fmt.Errorf("pool_min (%d) must not exceed pool_max (%d)", c.PoolMin, c.PoolMax)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("connect_timeout cannot be negative")
	}
	return nil
}

// Option returns a driver option or the fallback when it is unset.
func (c ConnectionConfig) Option(key, fallback string) string {
	if v, ok := c.Options[key]; ok && v != "" {
		return v
	}
	return fallback
}

// String renders the endpoint without credentials, for logs.
func (c ConnectionConfig) String() string {
	target := c.Database
	if target == "" {
		target = c.ServiceName
	}
	return fmt.Sprintf("%s@%s:%d/%s", c.Username, c.Host, c.Port, target)
}

// ManagerConfig controls retry and deadline behavior of the schema manager.
type ManagerConfig struct {
	// RetryAttempts is the total number of attempts per listing/describe call
	RetryAttempts int `yaml:"retry_attempts" json:"retry_attempts"`
	// RetryDelay is the wait before the second attempt
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
	// RetryMultiplier grows the wait after each failed attempt
	RetryMultiplier float64 `yaml:"retry_multiplier" json:"retry_multiplier"`
	// MaxRetryDelay caps a single wait
	MaxRetryDelay time.Duration `yaml:"max_retry_delay" json:"max_retry_delay"`
	// QueryTimeout bounds one lookup including all of its retries (0 = none)
	QueryTimeout time.Duration `yaml:"query_timeout" json:"query_timeout"`
	// MaxParallelLookups bounds concurrent table lookups in a batch
	// (0 = the connector's pool_max)
	MaxParallelLookups int `yaml:"max_parallel_lookups" json:"max_parallel_lookups"`
}

// DefaultManagerConfig returns three attempts with 2s/4s waits capped at 10s
// and a one minute budget per lookup.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		RetryAttempts:   3,
		RetryDelay:      2 * time.Second,
		RetryMultiplier: 2.0,
		MaxRetryDelay:   10 * time.Second,
		QueryTimeout:    time.Minute,
	}
}

// Validate checks the manager configuration for correctness.
func (m ManagerConfig) Validate() error {
	if m.RetryAttempts <= 0 {
		return fmt.Errorf("retry_attempts must be positive")
	}
	if m.RetryDelay < 0 || m.MaxRetryDelay < 0 {
		return fmt.Errorf("retry delays cannot be negative")
	}
	if m.RetryMultiplier < 1 {
		return fmt.Errorf("retry_multiplier must be at least 1")
	}
	if m.QueryTimeout < 0 {
		return fmt.Errorf("query_timeout cannot be negative")
	}
	if m.MaxParallelLookups < 0 {
		return fmt.Errorf("max_parallel_lookups cannot be negative")
	}
	return nil
}
