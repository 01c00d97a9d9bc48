package services

import (
	"context"
	"testing"
	"time"

	"github.com/school-system/schoolfees/internal/config"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuth(h *harness) *AuthService {
	return NewAuthService(h.repo, &config.Config{
		JWT: config.JWTConfig{
			Secret:        "test-secret",
			AccessExpiry:  time.Minute,
			RefreshExpiry: time.Hour,
		},
		Argon2: config.Argon2Config{
			Memory:      1024,
			Iterations:  1,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		},
	})
}

func TestAuthService_LoginResolvesRole(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	auth := newAuth(h)

	require.NoError(t, h.repo.CreateAdmin(ctx, &models.Admin{Name: "Head", Email: "head@school.test", IsSuper: true}))
	require.NoError(t, h.repo.CreateTeacher(ctx, &models.Teacher{Name: "Rahim", Email: "rahim@school.test"}))
	child := h.student(t, "901", "Six", 1)

	tests := []struct {
		name  string
		email string
		phone string
		login string
		role  string
	}{
		{"super admin by email", "head@school.test", "", "HEAD@school.test", models.RoleSuperAdmin},
		{"teacher", "rahim@school.test", "", "rahim@school.test", models.RoleTeacher},
		{"parent by phone", "", child.FatherPhone, child.FatherPhone, models.RoleParent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.CreateAccount(ctx, tt.email, tt.phone, "correct horse")
			require.NoError(t, err)

			tokens, profile, err := auth.Login(ctx, tt.login, "correct horse")
			require.NoError(t, err)
			assert.Equal(t, tt.role, profile.Role)

			claims, err := auth.VerifyToken(tokens.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, tt.role, claims.Role)
			assert.Equal(t, profile.AccountID, claims.AccountID)
		})
	}
}

func TestAuthService_LoginRejects(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	auth := newAuth(h)

	_, err := auth.CreateAccount(ctx, "stranger@example.test", "", "correct horse")
	require.NoError(t, err)
	_, _, err = auth.Login(ctx, "stranger@example.test", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "an account without a role cannot sign in")

	require.NoError(t, h.repo.CreateAdmin(ctx, &models.Admin{Name: "Office", Email: "office@school.test"}))
	_, err = auth.CreateAccount(ctx, "office@school.test", "", "correct horse")
	require.NoError(t, err)
	_, _, err = auth.Login(ctx, "office@school.test", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = auth.Login(ctx, "missing@school.test", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.CreateAccount(ctx, "", "", "correct horse")
	assert.Error(t, err)
}

func TestAuthService_LegacyBcryptHash(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	auth := newAuth(h)

	hash, err := bcrypt.GenerateFromPassword([]byte("old secret"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, h.repo.CreateAdmin(ctx, &models.Admin{Name: "Legacy", Email: "legacy@school.test"}))
	require.NoError(t, h.repo.CreateAccount(ctx, &models.Account{Email: "legacy@school.test", PasswordHash: string(hash), IsActive: true}))

	_, profile, err := auth.Login(ctx, "legacy@school.test", "old secret")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, profile.Role)

	_, _, err = auth.Login(ctx, "legacy@school.test", "new secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RefreshRotates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	auth := newAuth(h)

	require.NoError(t, h.repo.CreateAdmin(ctx, &models.Admin{Name: "Office", Email: "office@school.test"}))
	_, err := auth.CreateAccount(ctx, "office@school.test", "", "correct horse")
	require.NoError(t, err)
	tokens, _, err := auth.Login(ctx, "office@school.test", "correct horse")
	require.NoError(t, err)

	rotated, err := auth.RefreshTokens(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	_, err = auth.RefreshTokens(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	require.NoError(t, auth.RevokeToken(ctx, rotated.RefreshToken))
	_, err = auth.RefreshTokens(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}
