package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/shared/biztime"
)

// ErrMissingIssuedAt is returned for tokens that verify but carry no iat.
var ErrMissingIssuedAt = errors.New("token has no issued-at claim")

// Claims carries everything the session engine needs to scope a token to a
// device. The registered jti claim is the token id used by the audit trail.
type Claims struct {
	UserID    uint             `json:"uid"`
	SessionID string           `json:"sid,omitempty"`
	DeviceID  string           `json:"device_id"`
	Platform  session.Platform `json:"platform"`
	jwt.RegisteredClaims
}

// IssueRequest describes the sign-in a token is issued for.
type IssueRequest struct {
	UserID    uint
	SessionID string
	DeviceID  string
	Platform  session.Platform
}

type IssuedToken struct {
	Token     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type JWTService struct {
	secret           []byte
	accessExpMinutes int
	appExpDays       int
	now              biztime.Clock
}

// NewJWTService creates an HS256 token service. Browser and API tokens live
// accessExpMinutes; app tokens live appExpDays.
func NewJWTService(secret string, accessExpMinutes, appExpDays int) *JWTService {
	return &JWTService{
		secret:           []byte(secret),
		accessExpMinutes: accessExpMinutes,
		appExpDays:       appExpDays,
		now:              biztime.NowUTC,
	}
}

// WithClock replaces the clock used for issuing and verifying tokens.
func (s *JWTService) WithClock(now biztime.Clock) *JWTService {
	s.now = now
	return s
}

func (s *JWTService) Issue(req IssueRequest) (*IssuedToken, error) {
	if req.UserID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if !req.Platform.IsValid() {
		return nil, fmt.Errorf("unknown platform %q", req.Platform)
	}

	// iat has second precision on the wire; keep the returned value identical
	now := s.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(s.lifetime(req.Platform))
	tokenID := uuid.NewString()

	claims := &Claims{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		DeviceID:  req.DeviceID,
		Platform:  req.Platform,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &IssuedToken{
		Token:     signed,
		TokenID:   tokenID,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// VerifyIssued verifies a token and requires its issue time. Expired, tampered
// and malformed tokens all fail here; callers decide what a failure means.
func (s *JWTService) VerifyIssued(tokenString string) (*Claims, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.IssuedAt == nil {
		return nil, ErrMissingIssuedAt
	}
	return claims, nil
}

func (s *JWTService) lifetime(platform session.Platform) time.Duration {
	if platform == session.PlatformApp {
		return time.Duration(s.appExpDays) * 24 * time.Hour
	}
	return time.Duration(s.accessExpMinutes) * time.Minute
}
