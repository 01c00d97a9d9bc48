package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/config"
	"github.com/school-system/schoolfees/internal/fees"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotActive      = errors.New("user not active")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token revoked")
)

type AuthService struct {
	repo   repository.Repository
	cfg    *config.Config
	params *argon2id.Params
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Profile is the signed-in account with its resolved role.
type Profile struct {
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}

type Claims struct {
	AccountID uuid.UUID `json:"account_id"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the actor passed to services.
func (c *Claims) Actor(ip string) Actor {
	return Actor{
		AccountID: c.AccountID.String(),
		Email:     c.Email,
		Phone:     c.Phone,
		Role:      c.Role,
		IP:        ip,
	}
}

func NewAuthService(repo repository.Repository, cfg *config.Config) *AuthService {
	params := &argon2id.Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}

	return &AuthService{
		repo:   repo,
		cfg:    cfg,
		params: params,
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, s.params)
}

// VerifyPassword accepts argon2id hashes and bcrypt hashes carried over from
// older accounts.
func (s *AuthService) VerifyPassword(hash, password string) (bool, error) {
	if strings.HasPrefix(hash, "$2") {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err
	}
	return argon2id.ComparePasswordAndHash(password, hash)
}

// Login signs in by email or phone number.
func (s *AuthService) Login(ctx context.Context, login, password string) (*TokenPair, *Profile, error) {
	account, err := s.repo.FindAccount(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !account.IsActive {
		return nil, nil, ErrUserNotActive
	}

	match, err := s.VerifyPassword(account.PasswordHash, password)
	if err != nil || !match {
		return nil, nil, ErrInvalidCredentials
	}

	profile, err := s.ResolveProfile(ctx, account)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := s.GenerateTokenPair(ctx, profile)
	if err != nil {
		return nil, nil, err
	}

	return tokens, profile, nil
}

// ResolveProfile decides the role of an account: admins first, then teachers,
// then guardians whose contact appears on a student record.
func (s *AuthService) ResolveProfile(ctx context.Context, account *models.Account) (*Profile, error) {
	profile := &Profile{AccountID: account.ID, Email: account.Email, Phone: account.Phone}

	admin, err := s.repo.FindAdmin(ctx, account.Email, account.Phone)
	switch {
	case err == nil:
		profile.Name = admin.Name
		profile.Role = models.RoleAdmin
		if admin.IsSuper {
			profile.Role = models.RoleSuperAdmin
		}
		return profile, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	teacher, err := s.repo.FindTeacher(ctx, account.Email, account.Phone)
	switch {
	case err == nil:
		profile.Name = teacher.Name
		profile.Role = models.RoleTeacher
		return profile, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	children, err := s.repo.FindStudentsByGuardian(ctx, account.Email, account.Phone)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, ErrInvalidCredentials
	}
	profile.Name = children[0].FatherName
	profile.Role = models.RoleParent
	return profile, nil
}

func (s *AuthService) GenerateTokenPair(ctx context.Context, p *Profile) (*TokenPair, error) {
	now := time.Now()

	accessClaims := &Claims{
		AccountID: p.AccountID,
		Role:      p.Role,
		Email:     p.Email,
		Phone:     p.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   p.AccountID.String(),
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, err
	}

	// The refresh token carries only the account; the role is resolved again on refresh.
	refreshClaims := &Claims{
		AccountID: p.AccountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.RefreshExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   p.AccountID.String(),
			ID:        uuid.NewString(),
		},
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	refreshTokenString, err := refreshToken.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, err
	}

	rt := &models.RefreshToken{
		AccountID: p.AccountID,
		Token:     refreshTokenString,
		ExpiresAt: now.Add(s.cfg.JWT.RefreshExpiry),
	}
	if err := s.repo.CreateRefreshToken(ctx, rt); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenString,
		ExpiresIn:    int64(s.cfg.JWT.AccessExpiry.Seconds()),
	}, nil
}

func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.VerifyToken(refreshToken)
	if err != nil {
		return nil, err
	}

	rt, err := s.repo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if rt.Revoked || time.Now().After(rt.ExpiresAt) {
		return nil, ErrTokenRevoked
	}

	account, err := s.repo.GetAccount(ctx, claims.AccountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, ErrUserNotActive
	}

	profile, err := s.ResolveProfile(ctx, account)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}

	return s.GenerateTokenPair(ctx, profile)
}

func (s *AuthService) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

func (s *AuthService) RevokeToken(ctx context.Context, refreshToken string) error {
	return s.repo.RevokeRefreshToken(ctx, refreshToken)
}

// CreateAccount stores sign-in credentials. At least one of email or phone is required.
func (s *AuthService) CreateAccount(ctx context.Context, email, phone, password string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return nil, &fees.ValidationError{Field: "email", Message: "email or phone is required"}
	}
	if len(password) < 8 {
		return nil, &fees.ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{Email: email, Phone: phone, PasswordHash: hash, IsActive: true}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
