package config_test

import (
	"fmt"

	"github.com/ajitpratap0/seaschema/pkg/config"
)

// ExampleConnectionConfig_WithDefaults shows the pool defaults applied to a
// connection that does not set them.
func ExampleConnectionConfig_WithDefaults() {
	cfg := config.ConnectionConfig{
		Host:     "localhost",
		Port:     5432,
		Username: "viewer",
		Database: "account",
	}.WithDefaults()

	fmt.Println(cfg.PoolMin, cfg.PoolMax)
	fmt.Println(cfg.Validate() == nil)
	fmt.Println(cfg)

	// Output:
	// 1 10
	// true
	// viewer@localhost:5432/account
}

// ExampleDefaultManagerConfig shows the retry schedule used for lookups.
func ExampleDefaultManagerConfig() {
	m := config.DefaultManagerConfig()
	fmt.Println(m.RetryAttempts, m.RetryDelay, m.MaxRetryDelay)

	// Output:
	// 3 2s 10s
}
