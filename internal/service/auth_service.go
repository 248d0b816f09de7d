package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/idtoken"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/repository/ports"
	"github.com/gympoint/gympoint-backend/internal/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyInUse  = errors.New("email already in use")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrInvalidResetCode   = errors.New("reset code is invalid or expired")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password does not meet the policy")
	ErrInvalidRole        = errors.New("unknown role")
)

// ResetMailer delivers password-reset codes.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, email, otp string) error
}

// GoogleVerifier validates a Google ID token and returns its profile claims.
type GoogleVerifier func(ctx context.Context, idToken, audience string) (email string, name *string, picture *string, err error)

type TokenPair struct {
	AccessToken      string       `json:"access_token"`
	AccessExpiresAt  time.Time    `json:"access_expires_at"`
	RefreshToken     string       `json:"refresh_token"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
	User             *domain.User `json:"user"`
}

type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
	resets   ports.PasswordResetRepository
	tokens   *TokenManager
	mailer   ResetMailer

	googleAud    string
	verifyGoogle GoogleVerifier
	resetTTL     time.Duration
	otpLength    int
	now          func() time.Time
}

func NewAuthService(
	users ports.UserRepository,
	sessions ports.SessionRepository,
	resets ports.PasswordResetRepository,
	tokens *TokenManager,
	mailer ResetMailer,
	googleAudience string,
	resetTTL time.Duration,
	otpLength int,
) *AuthService {
	return &AuthService{
		users:        users,
		sessions:     sessions,
		resets:       resets,
		tokens:       tokens,
		mailer:       mailer,
		googleAud:    googleAudience,
		verifyGoogle: defaultGoogleVerifier,
		resetTTL:     resetTTL,
		otpLength:    otpLength,
		now:          time.Now,
	}
}

func defaultGoogleVerifier(ctx context.Context, rawToken, audience string) (string, *string, *string, error) {
	payload, err := idtoken.Validate(ctx, rawToken, audience)
	if err != nil {
		return "", nil, nil, err
	}
	email, _ := payload.Claims["email"].(string)
	var name, picture *string
	if v, ok := payload.Claims["name"].(string); ok && v != "" {
		name = &v
	}
	if v, ok := payload.Claims["picture"].(string); ok && v != "" {
		picture = &v
	}
	return email, name, picture, nil
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateEmailUser(ctx, email, domain.RoleMember, hash, salt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyInUse
		}
		return nil, err
	}
	return s.issuePair(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !util.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}
	return s.issuePair(ctx, user)
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, rawToken string) (*TokenPair, error) {
	email, name, picture, err := s.verifyGoogle(ctx, rawToken, s.googleAud)
	if err != nil || email == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.UpsertGoogleUser(ctx, strings.ToLower(email), name, picture)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}
	return s.issuePair(ctx, user)
}

// Refresh rotates the session: the presented refresh token is retired and a
// new session id, refresh token and access token are issued together.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ParseKind(refreshToken, TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.FindActiveSession(ctx, claims.SessionID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if subtle.ConstantTimeCompare(session.TokenHash, util.HashToken(refreshToken)) != 1 {
		return nil, ErrSessionNotFound
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}

	if err := s.sessions.DeactivateSession(ctx, session.ID); err != nil {
		return nil, err
	}
	return s.issuePair(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	return s.sessions.DeactivateSession(ctx, sessionID)
}

func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			// Do not reveal whether the address exists.
			return nil
		}
		return err
	}

	otp, err := util.GenerateNumericOTP(s.otpLength)
	if err != nil {
		return err
	}
	hash, salt, err := util.DerivePassword(otp)
	if err != nil {
		return err
	}

	if err := s.resets.ConsumeByUser(ctx, user.ID); err != nil {
		return err
	}
	if _, err := s.resets.Create(ctx, user.ID, hash, salt, s.now().Add(s.resetTTL)); err != nil {
		return err
	}
	return s.mailer.SendPasswordReset(ctx, user.Email, otp)
}

func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return ErrInvalidResetCode
		}
		return err
	}

	reset, err := s.resets.FindActiveByUser(ctx, user.ID, s.now())
	if err != nil {
		if isNotFound(err) {
			return ErrInvalidResetCode
		}
		return err
	}
	if !util.VerifyPassword(otp, reset.CodeSalt, reset.CodeHash) {
		return ErrInvalidResetCode
	}
	if err := util.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, salt); err != nil {
		return err
	}
	if err := s.resets.MarkConsumed(ctx, reset.ID); err != nil {
		return err
	}
	// Force a fresh login everywhere after a password change.
	return s.sessions.DeactivateByUser(ctx, user.ID)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	if !util.VerifyPassword(current, user.PasswordSalt, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := util.ValidatePassword(next); err != nil {
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}
	hash, salt, err := util.DerivePassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash, salt)
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName, phone, imageURL *string) (*domain.User, error) {
	user, err := s.users.UpdateProfile(ctx, userID, normalizeString(fullName), normalizeString(phone), normalizeString(imageURL))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context, role *domain.Role, limit, offset int) ([]domain.User, error) {
	if role != nil && !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, *role)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, role, limit, offset)
}

func (s *AuthService) SetUserRole(ctx context.Context, userID uuid.UUID, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	// Outstanding tokens carry the old role until they expire; kill the
	// sessions so the next refresh picks it up.
	if err := s.sessions.DeactivateByUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) (*domain.User, error) {
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !active {
		if err := s.sessions.DeactivateByUser(ctx, userID); err != nil {
			return nil, err
		}
	}
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) issuePair(ctx context.Context, user *domain.User) (*TokenPair, error) {
	sessionID := uuid.New()

	refreshToken, refreshExp, err := s.tokens.IssueRefresh(user.ID, sessionID, user.Role)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.CreateSession(ctx, sessionID, user.ID, util.HashToken(refreshToken), refreshExp); err != nil {
		return nil, err
	}

	accessToken, accessExp, err := s.tokens.IssueAccess(user.ID, sessionID, user.Role)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
		User:             user,
	}, nil
}
