package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/sessiongate/internal/infrastructure/persistence/models"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

// AutoMigrateModels lists every table owned by the service.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.WebSessionModel{},
		&models.SessionAuditModel{},
	}
}

// GormAutoMigrateStrategy derives the schema from the persistence models.
// Used for sqlite development databases.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy(log logger.Interface) *GormAutoMigrateStrategy {
	return &GormAutoMigrateStrategy{
		logger: log.With("component", "migration.automigrate"),
	}
}

func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB) error {
	list := AutoMigrateModels()
	if err := db.AutoMigrate(list...); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	s.logger.Infow("auto migration completed", "models_count", len(list))
	return nil
}

func (s *GormAutoMigrateStrategy) GetName() string {
	return "gorm_auto_migrate"
}
