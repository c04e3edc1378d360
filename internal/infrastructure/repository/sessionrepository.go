package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/sessiongate/internal/infrastructure/persistence/models"
	"github.com/orris-inc/sessiongate/internal/shared/errors"
)

// WebSessionRepository stores browser sessions in the sessions table.
type WebSessionRepository struct {
	db     *gorm.DB
	mapper mappers.WebSessionMapper
}

func NewWebSessionRepository(db *gorm.DB) session.WebSessionRepository {
	return &WebSessionRepository{
		db:     db,
		mapper: mappers.NewWebSessionMapper(),
	}
}

func (r *WebSessionRepository) Save(ctx context.Context, s *session.WebSession) error {
	model := r.mapper.ToModel(s)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to save web session: %w", err)
	}
	return nil
}

func (r *WebSessionRepository) GetByID(ctx context.Context, id string) (*session.WebSession, error) {
	var model models.WebSessionModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("web session not found")
		}
		return nil, fmt.Errorf("failed to get web session by ID: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *WebSessionRepository) ListByUserID(ctx context.Context, userID uint) ([]*session.WebSession, error) {
	var sessionModels []models.WebSessionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_activity_at DESC").
		Find(&sessionModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list web sessions by user ID: %w", err)
	}

	sessions := make([]*session.WebSession, len(sessionModels))
	for i := range sessionModels {
		sessions[i] = r.mapper.ToDomain(&sessionModels[i])
	}
	return sessions, nil
}

// Delete removes a single session. A missing row is not an error; the row
// may already have been swept by an invalidation.
func (r *WebSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.WebSessionModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete web session: %w", err)
	}
	return nil
}

func (r *WebSessionRepository) DeleteByUserIDExcept(ctx context.Context, userID uint, keepID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND id <> ?", userID, keepID).
		Delete(&models.WebSessionModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete other web sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *WebSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.WebSessionModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired web sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
