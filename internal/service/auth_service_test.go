package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/util"
)

type fakeUserRepo struct {
	byEmail map[string]*domain.User
	byID    map[uuid.UUID]*domain.User

	createEmailErr     error
	createdEmails      []string
	passwordUpdatedFor []uuid.UUID
	countByRole        int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: make(map[string]*domain.User),
		byID:    make(map[uuid.UUID]*domain.User),
	}
}

func (f *fakeUserRepo) add(user *domain.User) *domain.User {
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return user
}

func (f *fakeUserRepo) CreateEmailUser(_ context.Context, email string, role domain.Role, hash, salt []byte) (*domain.User, error) {
	f.createdEmails = append(f.createdEmails, email)
	if f.createEmailErr != nil {
		return nil, f.createEmailErr
	}
	return f.add(&domain.User{
		ID:           uuid.New(),
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		PasswordSalt: salt,
		Active:       true,
	}), nil
}

func (f *fakeUserRepo) UpsertGoogleUser(_ context.Context, email string, fullName, imageURL *string) (*domain.User, error) {
	if existing, ok := f.byEmail[email]; ok {
		return existing, nil
	}
	return f.add(&domain.User{ID: uuid.New(), Email: email, FullName: fullName, ImageURL: imageURL, Role: domain.RoleMember, Active: true}), nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id uuid.UUID, fullName, phone, imageURL *string) (*domain.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	user.FullName = fullName
	user.Phone = phone
	user.ImageURL = imageURL
	return user, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash, salt []byte) error {
	user, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	f.passwordUpdatedFor = append(f.passwordUpdatedFor, id)
	user.PasswordHash = hash
	user.PasswordSalt = salt
	return nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, id uuid.UUID, role domain.Role) error {
	user, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Role = role
	return nil
}

func (f *fakeUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	user, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Active = active
	return nil
}

func (f *fakeUserRepo) List(_ context.Context, _ *domain.Role, _, _ int) ([]domain.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) CountByRole(_ context.Context, _ domain.Role) (int64, error) {
	return f.countByRole, nil
}

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*domain.Session)}
}

func (f *fakeSessionRepo) CreateSession(_ context.Context, id, userID uuid.UUID, tokenHash []byte, expiresAt time.Time) (*domain.Session, error) {
	session := &domain.Session{ID: id, UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt, IsActive: true}
	f.sessions[id] = session
	return session, nil
}

func (f *fakeSessionRepo) DeactivateSession(_ context.Context, id uuid.UUID) error {
	if session, ok := f.sessions[id]; ok {
		session.IsActive = false
	}
	return nil
}

func (f *fakeSessionRepo) DeactivateByUser(_ context.Context, userID uuid.UUID) error {
	for _, session := range f.sessions {
		if session.UserID == userID {
			session.IsActive = false
		}
	}
	return nil
}

func (f *fakeSessionRepo) FindActiveSession(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	session, ok := f.sessions[id]
	if !ok || !session.IsActive {
		return nil, sql.ErrNoRows
	}
	return session, nil
}

func (f *fakeSessionRepo) activeCount() int {
	n := 0
	for _, session := range f.sessions {
		if session.IsActive {
			n++
		}
	}
	return n
}

type fakeResetRepo struct {
	reset *domain.PasswordReset
}

func (f *fakeResetRepo) Create(_ context.Context, userID uuid.UUID, codeHash, codeSalt []byte, expiresAt time.Time) (*domain.PasswordReset, error) {
	f.reset = &domain.PasswordReset{ID: 1, UserID: userID, CodeHash: codeHash, CodeSalt: codeSalt, ExpiresAt: expiresAt}
	return f.reset, nil
}

func (f *fakeResetRepo) FindActiveByUser(_ context.Context, userID uuid.UUID, now time.Time) (*domain.PasswordReset, error) {
	if f.reset == nil || f.reset.UserID != userID || f.reset.Consumed || now.After(f.reset.ExpiresAt) {
		return nil, sql.ErrNoRows
	}
	return f.reset, nil
}

func (f *fakeResetRepo) MarkConsumed(_ context.Context, id int64) error {
	if f.reset != nil && f.reset.ID == id {
		f.reset.Consumed = true
	}
	return nil
}

func (f *fakeResetRepo) ConsumeByUser(_ context.Context, userID uuid.UUID) error {
	if f.reset != nil && f.reset.UserID == userID {
		f.reset.Consumed = true
	}
	return nil
}

type fakeResetMailer struct {
	emails []string
	otps   []string
	err    error
}

func (f *fakeResetMailer) SendPasswordReset(_ context.Context, email, otp string) error {
	f.emails = append(f.emails, email)
	f.otps = append(f.otps, otp)
	return f.err
}

type authFixture struct {
	svc      *AuthService
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	resets   *fakeResetRepo
	mailer   *fakeResetMailer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    newFakeUserRepo(),
		sessions: newFakeSessionRepo(),
		resets:   &fakeResetRepo{},
		mailer:   &fakeResetMailer{},
	}
	f.svc = NewAuthService(f.users, f.sessions, f.resets, newTestTokenManager(t), f.mailer, "test-audience", 15*time.Minute, 6)
	return f
}

func (f *authFixture) seedMember(t *testing.T, email, password string) *domain.User {
	t.Helper()
	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		t.Fatalf("DerivePassword: %v", err)
	}
	return f.users.add(&domain.User{
		ID:           uuid.New(),
		Email:        email,
		Role:         domain.RoleMember,
		PasswordHash: hash,
		PasswordSalt: salt,
		Active:       true,
	})
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.svc.Register(context.Background(), "new@example.com", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if len(f.users.createdEmails) != 0 {
		t.Fatal("a weak password must be rejected before the repository is called")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.users.createEmailErr = &pgconn.PgError{Code: "23505"}

	if _, err := f.svc.Register(context.Background(), "taken@example.com", "Sup3rSecret!x"); !errors.Is(err, ErrEmailAlreadyInUse) {
		t.Fatalf("expected ErrEmailAlreadyInUse, got %v", err)
	}
}

func TestRegisterIssuesSessionAndTokens(t *testing.T) {
	f := newAuthFixture(t)

	pair, err := f.svc.Register(context.Background(), "  New@Example.COM ", "Sup3rSecret!x")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if pair.User.Email != "new@example.com" {
		t.Errorf("email = %q, want it lowercased and trimmed", pair.User.Email)
	}
	if pair.User.Role != domain.RoleMember {
		t.Errorf("role = %v, want new accounts to start as members", pair.User.Role)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if f.sessions.activeCount() != 1 {
		t.Fatalf("active sessions = %d, want 1", f.sessions.activeCount())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.seedMember(t, "member@example.com", "Sup3rSecret!x")

	if _, err := f.svc.Login(context.Background(), "member@example.com", "WrongPassw0rd"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "nobody@example.com", "Sup3rSecret!x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for an unknown email, got %v", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedMember(t, "former@example.com", "Sup3rSecret!x")
	user.Active = false

	if _, err := f.svc.Login(context.Background(), "former@example.com", "Sup3rSecret!x"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	f := newAuthFixture(t)
	f.seedMember(t, "member@example.com", "Sup3rSecret!x")

	pair, err := f.svc.Login(context.Background(), "member@example.com", "Sup3rSecret!x")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	rotated, err := f.svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must issue a new token")
	}
	if f.sessions.activeCount() != 1 {
		t.Fatalf("active sessions = %d, want the old session retired", f.sessions.activeCount())
	}

	// The retired token must not work a second time.
	if _, err := f.svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for a reused refresh token, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	f.seedMember(t, "member@example.com", "Sup3rSecret!x")

	pair, err := f.svc.Login(context.Background(), "member@example.com", "Sup3rSecret!x")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for an access token, got %v", err)
	}
}

func TestLoginWithGoogle(t *testing.T) {
	f := newAuthFixture(t)
	name := "Jordan Doe"
	f.svc.verifyGoogle = func(_ context.Context, rawToken, audience string) (string, *string, *string, error) {
		if rawToken != "google-id-token" {
			t.Errorf("raw token = %q", rawToken)
		}
		if audience != "test-audience" {
			t.Errorf("audience = %q", audience)
		}
		return "Jordan@Example.com", &name, nil, nil
	}

	pair, err := f.svc.LoginWithGoogle(context.Background(), "google-id-token")
	if err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}
	if pair.User.Email != "jordan@example.com" {
		t.Errorf("email = %q, want it lowercased", pair.User.Email)
	}

	f.svc.verifyGoogle = func(_ context.Context, _, _ string) (string, *string, *string, error) {
		return "", nil, nil, errors.New("token used too late")
	}
	if _, err := f.svc.LoginWithGoogle(context.Background(), "stale"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for a failed verification, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedMember(t, "member@example.com", "Sup3rSecret!x")

	if err := f.svc.RequestPasswordReset(context.Background(), "member@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if len(f.mailer.otps) != 1 || len(f.mailer.otps[0]) != 6 {
		t.Fatalf("mailed otps = %v, want one six-digit code", f.mailer.otps)
	}
	otp := f.mailer.otps[0]

	if err := f.svc.ResetPassword(context.Background(), "member@example.com", "000000", "Fresh3rSecret!x"); !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("expected ErrInvalidResetCode for a wrong otp, got %v", err)
	}

	if err := f.svc.ResetPassword(context.Background(), "member@example.com", otp, "weak"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	if err := f.svc.ResetPassword(context.Background(), "member@example.com", otp, "Fresh3rSecret!x"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if len(f.users.passwordUpdatedFor) != 1 || f.users.passwordUpdatedFor[0] != user.ID {
		t.Fatalf("password updates = %v, want one for %v", f.users.passwordUpdatedFor, user.ID)
	}
	if !f.resets.reset.Consumed {
		t.Fatal("the reset code must be consumed after use")
	}

	// The consumed code must not work twice.
	if err := f.svc.ResetPassword(context.Background(), "member@example.com", otp, "Third3rSecret!x"); !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("expected ErrInvalidResetCode for a reused otp, got %v", err)
	}
}

func TestRequestPasswordResetSilentOnUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	if err := f.svc.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if len(f.mailer.emails) != 0 {
		t.Fatal("no mail may be sent for an unknown address")
	}
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	f := newAuthFixture(t)
	f.seedMember(t, "member@example.com", "Sup3rSecret!x")

	if _, err := f.svc.Login(context.Background(), "member@example.com", "Sup3rSecret!x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.svc.RequestPasswordReset(context.Background(), "member@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if err := f.svc.ResetPassword(context.Background(), "member@example.com", f.mailer.otps[0], "Fresh3rSecret!x"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if f.sessions.activeCount() != 0 {
		t.Fatalf("active sessions = %d, want every session revoked after a reset", f.sessions.activeCount())
	}
}

func TestSetUserRole(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedMember(t, "member@example.com", "Sup3rSecret!x")

	if _, err := f.svc.Login(context.Background(), "member@example.com", "Sup3rSecret!x"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	updated, err := f.svc.SetUserRole(context.Background(), user.ID, domain.RoleTrainer)
	if err != nil {
		t.Fatalf("SetUserRole: %v", err)
	}
	if updated.Role != domain.RoleTrainer {
		t.Errorf("role = %v, want %v", updated.Role, domain.RoleTrainer)
	}
	if f.sessions.activeCount() != 0 {
		t.Fatal("a role change must revoke the user's sessions")
	}

	if _, err := f.svc.SetUserRole(context.Background(), user.ID, domain.Role("janitor")); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := f.svc.SetUserRole(context.Background(), uuid.New(), domain.RoleStaff); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSetUserActive(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedMember(t, "member@example.com", "Sup3rSecret!x")

	if _, err := f.svc.Login(context.Background(), "member@example.com", "Sup3rSecret!x"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	disabled, err := f.svc.SetUserActive(context.Background(), user.ID, false)
	if err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}
	if disabled.Active {
		t.Fatal("expected the account to be disabled")
	}
	if f.sessions.activeCount() != 0 {
		t.Fatal("disabling an account must revoke its sessions")
	}
	if _, err := f.svc.Login(context.Background(), "member@example.com", "Sup3rSecret!x"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled after disabling, got %v", err)
	}

	if _, err := f.svc.SetUserActive(context.Background(), user.ID, true); err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "member@example.com", "Sup3rSecret!x"); err != nil {
		t.Fatalf("Login after re-enable: %v", err)
	}
}

func TestListUsersRejectsUnknownRole(t *testing.T) {
	f := newAuthFixture(t)
	bad := domain.Role("janitor")

	if _, err := f.svc.ListUsers(context.Background(), &bad, 10, 0); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedMember(t, "member@example.com", "Sup3rSecret!x")

	if err := f.svc.ChangePassword(context.Background(), user.ID, "WrongPassw0rd", "Fresh3rSecret!x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := f.svc.ChangePassword(context.Background(), user.ID, "Sup3rSecret!x", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := f.svc.ChangePassword(context.Background(), user.ID, "Sup3rSecret!x", "Fresh3rSecret!x"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
}
