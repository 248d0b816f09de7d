package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gympoint/gympoint-backend/internal/domain"
)

// Token verification failures are split so callers can tell a client to
// refresh (expired) or to re-authenticate (invalid).
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
	TokenKindQR      TokenKind = "qr"
)

type Claims struct {
	UserID    uuid.UUID   `json:"uid"`
	SessionID uuid.UUID   `json:"sid"`
	Role      domain.Role `json:"role"`
	Kind      TokenKind   `json:"kind"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies every token the backend issues: access,
// refresh and the single-use QR check-in tokens. Verification is stateless;
// single use for QR tokens is enforced by the replay guard, not here.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	qrTTL      time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL, qrTTL time.Duration) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token manager: signing secret is not set")
	}
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		qrTTL:      qrTTL,
		now:        time.Now,
	}, nil
}

func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }
func (m *TokenManager) QRTTL() time.Duration      { return m.qrTTL }

func (m *TokenManager) IssueAccess(userID, sessionID uuid.UUID, role domain.Role) (string, time.Time, error) {
	return m.issue(userID, sessionID, role, TokenKindAccess, m.accessTTL)
}

func (m *TokenManager) IssueRefresh(userID, sessionID uuid.UUID, role domain.Role) (string, time.Time, error) {
	return m.issue(userID, sessionID, role, TokenKindRefresh, m.refreshTTL)
}

// IssueCheckInQR mints a short-lived check-in token. The embedded JTI is what
// the replay guard consumes.
func (m *TokenManager) IssueCheckInQR(userID uuid.UUID, role domain.Role) (string, time.Time, error) {
	return m.issue(userID, uuid.Nil, role, TokenKindQR, m.qrTTL)
}

func (m *TokenManager) issue(userID, sessionID uuid.UUID, role domain.Role, kind TokenKind, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		UserID:    userID,
		SessionID: sessionID,
		Role:      role,
		Kind:      kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature and expiry of a token. Expired-but-authentic
// tokens return ErrTokenExpired; everything else wrong returns
// ErrTokenInvalid.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseKind is Parse plus a check that the token was minted for the expected
// purpose, so an access token cannot be scanned as a QR code.
func (m *TokenManager) ParseKind(tokenString string, kind TokenKind) (*Claims, error) {
	claims, err := m.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
