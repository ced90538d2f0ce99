package mysql

import (
	"github.com/ajitpratap0/seaschema/pkg/connector/core"
	"github.com/ajitpratap0/seaschema/pkg/connector/registry"
)

func init() {
	registry.RegisterConnector(core.KindMySQL, New, "mariadb")
}
