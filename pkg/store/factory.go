package store

import (
	"fmt"

	badgerstore "github.com/hardikhari96/sftp-cloud-connector/pkg/store/badger"
)

// New opens the store backend named by config.Type.
func New(config *Config) (Store, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	switch config.Type {
	case DatabaseTypeSQLite, DatabaseTypePostgres:
		return NewGORM(config)
	case DatabaseTypeBadger:
		return badgerstore.Open(config.Badger.Dir)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
}
