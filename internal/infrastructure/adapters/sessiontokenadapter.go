// Package adapters connects infrastructure services to application ports.
package adapters

import (
	"github.com/orris-inc/sessiongate/internal/application/session/usecases"
	"github.com/orris-inc/sessiongate/internal/infrastructure/auth"
)

// SessionTokenAdapter exposes the JWT service as the session use cases'
// token issuer and decoder.
type SessionTokenAdapter struct {
	jwt *auth.JWTService
}

func NewSessionTokenAdapter(jwt *auth.JWTService) *SessionTokenAdapter {
	return &SessionTokenAdapter{jwt: jwt}
}

func (a *SessionTokenAdapter) IssueToken(req usecases.TokenRequest) (*usecases.IssuedToken, error) {
	issued, err := a.jwt.Issue(auth.IssueRequest{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		DeviceID:  req.DeviceID,
		Platform:  req.Platform,
	})
	if err != nil {
		return nil, err
	}
	return &usecases.IssuedToken{
		Token:     issued.Token,
		TokenID:   issued.TokenID,
		IssuedAt:  issued.IssuedAt,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

func (a *SessionTokenAdapter) Decode(token string) (*usecases.DecodedToken, error) {
	claims, err := a.jwt.VerifyIssued(token)
	if err != nil {
		return nil, err
	}
	return &usecases.DecodedToken{
		IssuedAt: claims.IssuedAt.Time.UTC(),
		DeviceID: claims.DeviceID,
		Platform: claims.Platform,
	}, nil
}
