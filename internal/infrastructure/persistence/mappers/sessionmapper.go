package mappers

import (
	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/infrastructure/persistence/models"
)

// WebSessionMapper handles the conversion between web sessions and persistence models.
type WebSessionMapper interface {
	ToModel(entity *session.WebSession) *models.WebSessionModel
	ToDomain(model *models.WebSessionModel) *session.WebSession
}

type webSessionMapper struct{}

func NewWebSessionMapper() WebSessionMapper {
	return &webSessionMapper{}
}

func (m *webSessionMapper) ToModel(entity *session.WebSession) *models.WebSessionModel {
	if entity == nil {
		return nil
	}
	return &models.WebSessionModel{
		ID:             entity.ID,
		UserID:         entity.UserID,
		DeviceID:       entity.DeviceID,
		IPAddress:      entity.IPAddress,
		UserAgent:      entity.UserAgent,
		ExpiresAt:      entity.ExpiresAt,
		LastActivityAt: entity.LastActivityAt,
		CreatedAt:      entity.CreatedAt,
	}
}

func (m *webSessionMapper) ToDomain(model *models.WebSessionModel) *session.WebSession {
	if model == nil {
		return nil
	}
	return &session.WebSession{
		ID:             model.ID,
		UserID:         model.UserID,
		DeviceID:       model.DeviceID,
		IPAddress:      model.IPAddress,
		UserAgent:      model.UserAgent,
		ExpiresAt:      model.ExpiresAt.UTC(),
		LastActivityAt: model.LastActivityAt.UTC(),
		CreatedAt:      model.CreatedAt.UTC(),
	}
}
