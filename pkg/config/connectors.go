package config

import (
	"fmt"
	"strings"
)

// NamedConnection is one entry of a connection catalog.
type NamedConnection struct {
	ConnectionConfig `yaml:",inline"`

	// Name is the registry name the connector is created under
	Name string `yaml:"name" json:"name"`
	// Kind selects the backend (postgresql, mysql, oracle)
	Kind string `yaml:"kind" json:"kind"`
}

// Catalog is the on-disk description of the connections an operator can use.
//
//	manager:
//	  query_timeout: 30s
//	connections:
//	  - name: pg_source
//	    kind: postgresql
//	    host: localhost
//	    port: 5432
//	    username: viewer
//	    password: ${PG_PASSWORD}
//	    database: account
type Catalog struct {
	Manager     *ManagerConfig    `yaml:"manager" json:"manager,omitempty"`
	Connections []NamedConnection `yaml:"connections" json:"connections"`
}

// LoadCatalog reads a catalog file and applies defaults to every entry.
func LoadCatalog(path string) (*Catalog, error) {
	var cat Catalog
	if err := Load(path, &cat); err != nil {
		return nil, err
	}
	for i := range cat.Connections {
		cat.Connections[i].ConnectionConfig = cat.Connections[i].ConnectionConfig.WithDefaults()
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks that names are unique and every connection is usable.
func (c *Catalog) Validate() error {
	seen := make(map[string]struct{}, len(c.Connections))
	for _, nc := range c.Connections {
		if nc.Name == "" {
			return fmt.Errorf("connection name is required")
		}
		if nc.Kind == "" {
			return fmt.Errorf("connection %s: kind is required", nc.Name)
		}
		if _, dup := seen[nc.Name]; dup {
			return fmt.Errorf("connection %s defined more than once", nc.Name)
		}
		seen[nc.Name] = struct{}{}
		if err := nc.ConnectionConfig.Validate(); err != nil {
			return fmt.Errorf("connection %s: %w", nc.Name, err)
		}
	}
	if c.Manager != nil {
		if err := c.ManagerOrDefault().Validate(); err != nil {
			return fmt.Errorf("manager: %w", err)
		}
	}
	return nil
}

// Lookup finds a connection by name.
func (c *Catalog) Lookup(name string) (NamedConnection, bool) {
	for _, nc := range c.Connections {
		if nc.Name == name {
			return nc, true
		}
	}
	return NamedConnection{}, false
}

// Names returns the connection names in file order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Connections))
	for _, nc := range c.Connections {
		names = append(names, nc.Name)
	}
	return names
}

// ManagerOrDefault returns the catalog manager section merged over defaults.
func (c *Catalog) ManagerOrDefault() ManagerConfig {
	def := DefaultManagerConfig()
	if c.Manager == nil {
		return def
	}
	m := *c.Manager
	if m.RetryAttempts == 0 {
		m.RetryAttempts = def.RetryAttempts
	}
	if m.RetryDelay == 0 {
		m.RetryDelay = def.RetryDelay
	}
	if m.RetryMultiplier == 0 {
		m.RetryMultiplier = def.RetryMultiplier
	}
	if m.MaxRetryDelay == 0 {
		m.MaxRetryDelay = def.MaxRetryDelay
	}
	if m.QueryTimeout == 0 {
		m.QueryTimeout = def.QueryTimeout
	}
	return m
}

func (nc NamedConnection) String() string {
	return strings.ToLower(nc.Kind) + ":" + nc.Name
}
