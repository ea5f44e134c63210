package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/ug1-portal-api/internal/models"
	appErrors "github.com/noah-isme/ug1-portal-api/pkg/errors"
)

type mockAuthRepo struct {
	byEmail          map[string]*models.User
	byRegNo          map[string]*models.User
	created          []*models.User
	auditLogs        []*models.AuditLog
	lastLoginUpdated bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByRegistrationNumber(ctx context.Context, regNo string) (*models.User, error) {
	if u, ok := m.byRegNo[regNo]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "new-user"
	m.created = append(m.created, user)
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthRepo) {
	t.Helper()
	email := "tutor@uni.edu"
	regNo := "2021-ag-001"
	repo := &mockAuthRepo{
		byEmail: map[string]*models.User{
			email: {ID: "tutor-1", Email: &email, PasswordHash: hashPassword(t, "secret123"), FullName: "J. Doe", Role: models.RoleTutor, Department: "CS", Active: true},
		},
		byRegNo: map[string]*models.User{
			regNo: {ID: "student-1", RegistrationNumber: &regNo, PasswordHash: hashPassword(t, "secret123"), FullName: "Ali", Role: models.RoleStudent, Active: true},
		},
	}
	svc := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "test-secret", AccessTokenExpiry: time.Hour, Issuer: "ug1-portal"})
	return svc, repo
}

func TestAuthServiceLoginStaffAndStudent(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "tutor@uni.edu", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "/tutor", resp.Home)
	assert.True(t, repo.lastLoginUpdated)
	require.Len(t, repo.auditLogs, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTutor, claims.Role)
	assert.Equal(t, "tutor@uni.edu", claims.Email)
	assert.Equal(t, "CS", claims.Department)

	resp, err = svc.Login(context.Background(), models.LoginRequest{Identifier: "2021-ag-001", Password: "secret123"})
	require.NoError(t, err)
	claims, err = svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "2021-ag-001", claims.RegistrationNumber)
	assert.Equal(t, "/student", resp.Home)
}

func TestAuthServiceLoginRejectsBadPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "tutor@uni.edu", Password: "wrong"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Identifier: "nobody@uni.edu", Password: "secret123"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginRequiresIdentifier(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Password: "secret123"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "identifier", appErr.Field)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.byEmail["tutor@uni.edu"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "tutor@uni.edu", Password: "secret123"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthServiceValidateTokenFailures(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredential)

	other := NewAuthService(&mockAuthRepo{}, nil, nil, AuthConfig{AccessTokenSecret: "other-secret", AccessTokenExpiry: time.Hour})
	resp, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "tutor@uni.edu", Password: "secret123"})
	require.NoError(t, err)
	_, err = other.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredential)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredential)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAuthServiceRegister(t *testing.T) {
	svc, repo := newAuthFixture(t)

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "Manager@Uni.edu", FullName: "M. Khan", Password: "longenough", Role: models.RoleManager, Department: "CS",
	})
	require.NoError(t, err)
	assert.Equal(t, "manager@uni.edu", info.Email)
	require.Len(t, repo.created, 1)
	assert.NotEqual(t, "longenough", repo.created[0].PasswordHash)

	_, err = svc.Register(context.Background(), models.RegisterRequest{
		Email: "dg@uni.edu", FullName: "DG", Password: "longenough", Role: models.RoleDGOffice, Department: "Admin",
	})
	require.Error(t, err)
	assert.Equal(t, "role", appErrors.FromError(err).Field)

	_, err = svc.Register(context.Background(), models.RegisterRequest{
		Email: "tutor@uni.edu", FullName: "Dup", Password: "longenough", Role: models.RoleTutor, Department: "CS",
	})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}
