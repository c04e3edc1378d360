package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/sessiongate/internal/infrastructure/persistence/models"
	"github.com/orris-inc/sessiongate/internal/shared/errors"
)

type SessionAuditRepository struct {
	db     *gorm.DB
	mapper mappers.SessionAuditMapper
}

func NewSessionAuditRepository(db *gorm.DB) session.AuditRepository {
	return &SessionAuditRepository{
		db:     db,
		mapper: mappers.NewSessionAuditMapper(),
	}
}

func (r *SessionAuditRepository) Create(ctx context.Context, record *session.AuditRecord) error {
	model := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create session audit: %w", err)
	}
	return nil
}

func (r *SessionAuditRepository) Update(ctx context.Context, record *session.AuditRecord) error {
	model := r.mapper.ToModel(record)
	result := r.db.WithContext(ctx).
		Model(&models.SessionAuditModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"logout_at":        model.LogoutAt,
			"duration_seconds": model.DurationSeconds,
			"status":           model.Status,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update session audit: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("session audit not found")
	}
	return nil
}

func (r *SessionAuditRepository) GetByID(ctx context.Context, id string) (*session.AuditRecord, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *SessionAuditRepository) FindActiveBySessionID(ctx context.Context, sessionID string) (*session.AuditRecord, error) {
	return r.first(r.active(ctx).Where("session_id = ?", sessionID).Order("login_at DESC"))
}

func (r *SessionAuditRepository) FindActiveByTokenID(ctx context.Context, tokenID string) (*session.AuditRecord, error) {
	return r.first(r.active(ctx).Where("token_id = ?", tokenID).Order("login_at DESC"))
}

func (r *SessionAuditRepository) FindLatestActiveByUserID(ctx context.Context, userID uint) (*session.AuditRecord, error) {
	return r.first(r.active(ctx).Where("user_id = ?", userID).Order("login_at DESC"))
}

func (r *SessionAuditRepository) ListActiveByUserID(ctx context.Context, userID uint) ([]*session.AuditRecord, error) {
	var list []models.SessionAuditModel
	if err := r.active(ctx).Where("user_id = ?", userID).Order("login_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list active session audits: %w", err)
	}
	return r.mapper.ToDomainList(list), nil
}

func (r *SessionAuditRepository) ListActiveByDevice(ctx context.Context, userID uint, deviceID string) ([]*session.AuditRecord, error) {
	var list []models.SessionAuditModel
	err := r.active(ctx).
		Where("user_id = ? AND device_id = ?", userID, deviceID).
		Order("login_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active session audits by device: %w", err)
	}
	return r.mapper.ToDomainList(list), nil
}

// ListActiveLoggedInBefore returns at most limit open rows, oldest first.
func (r *SessionAuditRepository) ListActiveLoggedInBefore(ctx context.Context, before time.Time, limit int) ([]*session.AuditRecord, error) {
	var list []models.SessionAuditModel
	err := r.active(ctx).
		Where("login_at < ?", before).
		Order("login_at ASC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale session audits: %w", err)
	}
	return r.mapper.ToDomainList(list), nil
}

func (r *SessionAuditRepository) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Where("status = ?", string(session.AuditStatusActive))
}

func (r *SessionAuditRepository) first(query *gorm.DB) (*session.AuditRecord, error) {
	var model models.SessionAuditModel
	if err := query.First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("session audit not found")
		}
		return nil, fmt.Errorf("failed to get session audit: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}
