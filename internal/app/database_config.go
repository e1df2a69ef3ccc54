package app

import (
	"strings"

	"github.com/charlesng35/postboard/internal/database"
)

// ConnectionConfig converts DatabaseConfig into the database package representation.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	cfg := database.Config{
		Driver:     strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:       strings.TrimSpace(c.Path),
		DSN:        strings.TrimSpace(c.DSN),
		LogQueries: c.LogQueries,
	}

	var host DBAuthConfig
	switch cfg.Driver {
	case "", database.DialectSQLite:
		cfg.Driver = database.DialectSQLite
		return cfg
	case database.DialectPostgres, "postgresql":
		cfg.Driver = database.DialectPostgres
		host = c.Postgres
	case database.DialectMySQL:
		host = c.MySQL
	default:
		// Left as-is so Open reports the unsupported driver.
		return cfg
	}

	cfg.Host = strings.TrimSpace(host.Host)
	cfg.Port = host.Port
	cfg.Name = strings.TrimSpace(host.Database)
	cfg.User = strings.TrimSpace(host.Username)
	cfg.Password = host.Password
	return cfg
}
