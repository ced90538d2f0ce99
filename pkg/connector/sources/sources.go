// Package sources registers every backend connector with the global registry
package sources

import (
	// Import all backend connectors to trigger init() registration
	_ "github.com/ajitpratap0/seaschema/pkg/connector/sources/mysql"
	_ "github.com/ajitpratap0/seaschema/pkg/connector/sources/oracle"
	_ "github.com/ajitpratap0/seaschema/pkg/connector/sources/postgresql"
)
