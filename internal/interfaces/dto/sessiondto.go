package dto

import (
	"time"

	"github.com/orris-inc/sessiongate/internal/application/session/usecases"
	"github.com/orris-inc/sessiongate/internal/domain/session"
)

// CreateSessionRequest asks the engine to issue a token for a user the
// surrounding application has already authenticated.
type CreateSessionRequest struct {
	UserID     uint   `json:"user_id" binding:"required" validate:"required,gt=0"`
	DeviceID   string `json:"device_id" validate:"max=128"`
	DeviceType string `json:"device_type" validate:"omitempty,oneof=ios android web"`
	SessionID  string `json:"session_id" validate:"max=128"`
	Platform   string `json:"platform" validate:"omitempty,oneof=api"`
	IPAddress  string `json:"ip_address" validate:"omitempty,ip"`
	UserAgent  string `json:"user_agent" validate:"max=512"`
}

// RegisterSessionRequest reports a login whose credential was issued elsewhere.
type RegisterSessionRequest struct {
	UserID     uint   `json:"user_id" binding:"required" validate:"required,gt=0"`
	Platform   string `json:"platform" binding:"required" validate:"required,oneof=web app api"`
	DeviceID   string `json:"device_id" binding:"required" validate:"required,max=128"`
	DeviceType string `json:"device_type" validate:"omitempty,oneof=ios android web"`
	SessionID  string `json:"session_id" validate:"max=128"`
	TokenID    string `json:"token_id" validate:"max=64"`
	// IssuedAt is the token's iat in unix seconds.
	IssuedAt  int64  `json:"issued_at" binding:"required" validate:"required,gt=0"`
	IPAddress string `json:"ip_address" validate:"omitempty,ip"`
	UserAgent string `json:"user_agent" validate:"max=512"`
}

type ValidateSessionRequest struct {
	UserID     uint   `json:"user_id" binding:"required" validate:"required,gt=0"`
	Token      string `json:"token" binding:"required" validate:"required"`
	DeviceID   string `json:"device_id" validate:"max=128"`
	DeviceType string `json:"device_type" validate:"omitempty,oneof=ios android web"`
	SessionID  string `json:"session_id" validate:"max=128"`
	Platform   string `json:"platform" validate:"omitempty,oneof=api"`
}

type LogoutSessionRequest struct {
	UserID     uint   `json:"user_id" binding:"required" validate:"required,gt=0"`
	DeviceID   string `json:"device_id" validate:"max=128"`
	DeviceType string `json:"device_type" validate:"omitempty,oneof=ios android web"`
	SessionID  string `json:"session_id" validate:"max=128"`
	TokenID    string `json:"token_id" validate:"max=64"`
	Platform   string `json:"platform" validate:"omitempty,oneof=api"`
	// All signs the user out on every platform.
	All bool `json:"all"`
}

func (r *CreateSessionRequest) ToCommand() usecases.LoginCommand {
	return usecases.LoginCommand{
		UserID: r.UserID,
		Metadata: session.RequestMetadata{
			DeviceID:   r.DeviceID,
			DeviceType: r.DeviceType,
			SessionID:  r.SessionID,
			IPAddress:  r.IPAddress,
			UserAgent:  r.UserAgent,
		},
		Platform: session.Platform(r.Platform),
	}
}

func (r *RegisterSessionRequest) ToEvent() usecases.AuthenticationEvent {
	return usecases.AuthenticationEvent{
		UserID:     r.UserID,
		Platform:   session.Platform(r.Platform),
		DeviceID:   r.DeviceID,
		DeviceType: r.DeviceType,
		SessionID:  r.SessionID,
		TokenID:    r.TokenID,
		IssuedAt:   time.Unix(r.IssuedAt, 0).UTC(),
		IPAddress:  r.IPAddress,
		UserAgent:  r.UserAgent,
	}
}

func (r *ValidateSessionRequest) ToCommand() usecases.ValidateCommand {
	return usecases.ValidateCommand{
		UserID: r.UserID,
		Token:  r.Token,
		Metadata: session.RequestMetadata{
			DeviceID:   r.DeviceID,
			DeviceType: r.DeviceType,
			SessionID:  r.SessionID,
		},
		Platform: session.Platform(r.Platform),
	}
}

func (r *LogoutSessionRequest) ToCommand() usecases.LogoutCommand {
	return usecases.LogoutCommand{
		UserID: r.UserID,
		Metadata: session.RequestMetadata{
			DeviceID:   r.DeviceID,
			DeviceType: r.DeviceType,
			SessionID:  r.SessionID,
		},
		Platform: session.Platform(r.Platform),
		TokenID:  r.TokenID,
	}
}

type LoginResponse struct {
	Token            string    `json:"token"`
	TokenID          string    `json:"token_id"`
	ExpiresAt        time.Time `json:"expires_at"`
	Platform         string    `json:"platform"`
	DeviceID         string    `json:"device_id"`
	SessionID        string    `json:"session_id,omitempty"`
	PreviousDeviceID string    `json:"previous_device_id,omitempty"`
}

func ToLoginResponse(result *usecases.LoginResult) *LoginResponse {
	return &LoginResponse{
		Token:            result.Token.Token,
		TokenID:          result.Token.TokenID,
		ExpiresAt:        result.Token.ExpiresAt,
		Platform:         result.Identity.Platform.String(),
		DeviceID:         result.Identity.DeviceID,
		SessionID:        result.SessionID,
		PreviousDeviceID: result.PreviousDeviceID,
	}
}

type RegisterSessionResponse struct {
	Session          *SessionEntryDTO `json:"session"`
	PreviousDeviceID string           `json:"previous_device_id,omitempty"`
	Invalidated      bool             `json:"invalidated"`
}

func ToRegisterSessionResponse(result *usecases.HandleLoginResult) *RegisterSessionResponse {
	return &RegisterSessionResponse{
		Session:          ToSessionEntryDTO(result.Entry),
		PreviousDeviceID: result.PreviousDeviceID,
		Invalidated:      result.Invalidated,
	}
}

type DecisionResponse struct {
	Allowed  bool   `json:"allowed"`
	Rule     string `json:"rule"`
	Platform string `json:"platform"`
	DeviceID string `json:"device_id"`
}

func ToDecisionResponse(d usecases.Decision) *DecisionResponse {
	return &DecisionResponse{
		Allowed:  d.Allowed,
		Rule:     d.Rule,
		Platform: d.Platform.String(),
		DeviceID: d.DeviceID,
	}
}

// SessionEntryDTO is the tracked state of one signed-in device.
type SessionEntryDTO struct {
	DeviceID      string    `json:"device_id"`
	Platform      string    `json:"platform"`
	SessionID     string    `json:"session_id,omitempty"`
	TokenIssuedAt time.Time `json:"token_issued_at"`
	IPAddress     string    `json:"ip_address,omitempty"`
	UserAgent     string    `json:"user_agent,omitempty"`
}

func ToSessionEntryDTO(entry *session.Entry) *SessionEntryDTO {
	if entry == nil {
		return nil
	}
	return &SessionEntryDTO{
		DeviceID:      entry.DeviceID,
		Platform:      entry.Platform.String(),
		SessionID:     entry.SessionID,
		TokenIssuedAt: entry.TokenIssuedAt,
		IPAddress:     entry.IPAddress,
		UserAgent:     entry.UserAgent,
	}
}

type SessionAuditDTO struct {
	ID              string     `json:"id"`
	Platform        string     `json:"platform"`
	DeviceID        string     `json:"device_id"`
	DeviceType      string     `json:"device_type,omitempty"`
	IPAddress       string     `json:"ip_address,omitempty"`
	UserAgent       string     `json:"user_agent,omitempty"`
	Status          string     `json:"status"`
	LoginAt         time.Time  `json:"login_at"`
	LogoutAt        *time.Time `json:"logout_at,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
}

func ToSessionAuditDTO(record *session.AuditRecord) *SessionAuditDTO {
	if record == nil {
		return nil
	}
	return &SessionAuditDTO{
		ID:              record.ID,
		Platform:        record.Platform.String(),
		DeviceID:        record.DeviceID,
		DeviceType:      record.DeviceType,
		IPAddress:       record.IPAddress,
		UserAgent:       record.UserAgent,
		Status:          string(record.Status),
		LoginAt:         record.LoginAt,
		LogoutAt:        record.LogoutAt,
		DurationSeconds: record.DurationSeconds,
	}
}

type ActiveSessionsResponse struct {
	Current []*SessionEntryDTO `json:"current"`
	Open    []*SessionAuditDTO `json:"open"`
}

func ToActiveSessionsResponse(active *usecases.ActiveSessions) *ActiveSessionsResponse {
	resp := &ActiveSessionsResponse{
		Current: make([]*SessionEntryDTO, 0, len(active.Current)),
		Open:    make([]*SessionAuditDTO, 0, len(active.Open)),
	}
	for _, entry := range active.Current {
		resp.Current = append(resp.Current, ToSessionEntryDTO(entry))
	}
	for _, record := range active.Open {
		resp.Open = append(resp.Open, ToSessionAuditDTO(record))
	}
	return resp
}

type LogoutResponse struct {
	Platform       string           `json:"platform,omitempty"`
	DeviceID       string           `json:"device_id,omitempty"`
	Session        *SessionAuditDTO `json:"session,omitempty"`
	SessionsClosed int64            `json:"sessions_closed"`
}

func ToLogoutResponse(result *usecases.LogoutResult) *LogoutResponse {
	resp := &LogoutResponse{
		Platform: result.Identity.Platform.String(),
		DeviceID: result.Identity.DeviceID,
		Session:  ToSessionAuditDTO(result.Record),
	}
	if result.Record != nil {
		resp.SessionsClosed = 1
	}
	return resp
}
