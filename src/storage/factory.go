package storage

import (
	"fmt"

	"orb-scanner/src/interfaces"
	"orb-scanner/src/logger"
	"orb-scanner/src/models"
)

// NewDatabase picks the backend from config. The config validator already
// rejects unknown types; this guards direct callers.
func NewDatabase(cfg *models.MStorageConfig, log *logger.Logger) (interfaces.IDatabase, error) {
	switch cfg.DBType {
	case "sqlite":
		return NewSQLiteDatabase(cfg.DBPath, log), nil
	case "postgres":
		return NewPostgresDatabase(cfg.DBConnectionString, log), nil
	default:
		return nil, fmt.Errorf("storage: unsupported db_type %q", cfg.DBType)
	}
}
