package mappers

import (
	"time"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/infrastructure/persistence/models"
)

// SessionAuditMapper handles the conversion between audit records and persistence models.
type SessionAuditMapper interface {
	ToModel(entity *session.AuditRecord) *models.SessionAuditModel
	ToDomain(model *models.SessionAuditModel) *session.AuditRecord
	ToDomainList(models []models.SessionAuditModel) []*session.AuditRecord
}

type sessionAuditMapper struct{}

func NewSessionAuditMapper() SessionAuditMapper {
	return &sessionAuditMapper{}
}

func (m *sessionAuditMapper) ToModel(entity *session.AuditRecord) *models.SessionAuditModel {
	if entity == nil {
		return nil
	}
	return &models.SessionAuditModel{
		ID:              entity.ID,
		UserID:          entity.UserID,
		SessionID:       entity.SessionID,
		TokenID:         entity.TokenID,
		Platform:        entity.Platform.String(),
		DeviceType:      entity.DeviceType,
		DeviceID:        entity.DeviceID,
		IPAddress:       entity.IPAddress,
		UserAgent:       entity.UserAgent,
		LoginAt:         entity.LoginAt,
		LogoutAt:        entity.LogoutAt,
		DurationSeconds: entity.DurationSeconds,
		Status:          string(entity.Status),
		CreatedAt:       entity.CreatedAt,
		UpdatedAt:       entity.UpdatedAt,
	}
}

func (m *sessionAuditMapper) ToDomain(model *models.SessionAuditModel) *session.AuditRecord {
	if model == nil {
		return nil
	}

	var logoutAt *time.Time
	if model.LogoutAt != nil {
		t := model.LogoutAt.UTC()
		logoutAt = &t
	}

	return &session.AuditRecord{
		ID:              model.ID,
		UserID:          model.UserID,
		SessionID:       model.SessionID,
		TokenID:         model.TokenID,
		Platform:        session.Platform(model.Platform),
		DeviceType:      model.DeviceType,
		DeviceID:        model.DeviceID,
		IPAddress:       model.IPAddress,
		UserAgent:       model.UserAgent,
		LoginAt:         model.LoginAt.UTC(),
		LogoutAt:        logoutAt,
		DurationSeconds: model.DurationSeconds,
		Status:          session.AuditStatus(model.Status),
		CreatedAt:       model.CreatedAt.UTC(),
		UpdatedAt:       model.UpdatedAt.UTC(),
	}
}

func (m *sessionAuditMapper) ToDomainList(list []models.SessionAuditModel) []*session.AuditRecord {
	records := make([]*session.AuditRecord, len(list))
	for i := range list {
		records[i] = m.ToDomain(&list[i])
	}
	return records
}
