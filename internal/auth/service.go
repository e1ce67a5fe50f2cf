package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Efi-kline/my-phone-shop/internal/cart"
	"github.com/Efi-kline/my-phone-shop/internal/profiles"
	pkgauth "github.com/Efi-kline/my-phone-shop/pkg/auth"
	"github.com/Efi-kline/my-phone-shop/pkg/auth/session"
	"github.com/Efi-kline/my-phone-shop/pkg/config"
	"github.com/Efi-kline/my-phone-shop/pkg/db"
	"github.com/Efi-kline/my-phone-shop/pkg/db/models"
	"github.com/Efi-kline/my-phone-shop/pkg/enums"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
	"github.com/Efi-kline/my-phone-shop/pkg/security"
)

const minPasswordLength = 8

// RegisterInput holds the payload to create an account.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// LoginInput holds the credential check payload.
type LoginInput struct {
	Email    string
	Password string
}

// RefreshInput carries the expired access token with the refresh token
// that proves the session is still live.
type RefreshInput struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult bundles the minted token pair with the profile it belongs to.
type AuthResult struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	Profile      *profiles.ProfileDTO `json:"profile"`
}

// Service owns account creation and the session lifecycle.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Refresh(ctx context.Context, input RefreshInput) (*AuthResult, error)
	Logout(ctx context.Context, accessID string) error
	LoginWithIdentity(ctx context.Context, identity OAuthIdentity) (*AuthResult, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type clock func() time.Time

type service struct {
	repo     profiles.ProfileRepository
	carts    cart.CartRepository
	sessions sessionManager
	tx       txRunner
	jwt      config.JWTConfig
	password config.PasswordConfig
	now      clock
}

// NewService constructs an auth service instance.
func NewService(repo profiles.ProfileRepository, carts cart.CartRepository, sessions sessionManager, tx txRunner, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		repo:     repo,
		carts:    carts,
		sessions: sessions,
		tx:       tx,
		jwt:      jwtCfg,
		password: passwordCfg,
		now:      time.Now,
	}, nil
}

// Register creates the profile and its empty cart in one transaction,
// then signs the new account in.
func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(
			pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength),
		)
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	profile := &models.Profile{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         enums.RoleUser,
		IsActive:     true,
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).Create(ctx, profile)
		if err != nil {
			if db.IsUniqueViolation(err, "idx_profiles_email") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create profile")
		}
		profile = created
		if _, err := s.carts.WithTx(tx).Create(ctx, &models.Cart{ProfileID: profile.ID, Version: 1}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create cart")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register")
	}

	return s.issueTokens(ctx, profile)
}

// Login verifies the credentials. Unknown emails and wrong passwords
// share one message so accounts cannot be enumerated.
func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	profile, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}

	matches, err := security.VerifyPassword(input.Password, profile.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !matches {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}
	if !profile.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	if err := s.repo.TouchLastLogin(ctx, profile.ID, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: touch last login")
	}

	return s.issueTokens(ctx, profile)
}

// Refresh rotates the session. The access token may be expired but must
// still carry a valid signature.
func (s *service) Refresh(ctx context.Context, input RefreshInput) (*AuthResult, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwt, input.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	profile, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if !profile.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	accessToken, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		UserID: profile.ID,
		Email:  profile.Email,
		Role:   profile.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		Profile:      profiles.NewProfileDTO(profile),
	}, nil
}

// Logout drops the refresh session tied to the access identifier.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) issueTokens(ctx context.Context, profile *models.Profile) (*AuthResult, error) {
	accessID := session.NewAccessID()
	accessToken, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		UserID: profile.ID,
		Email:  profile.Email,
		Role:   profile.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refreshToken, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Profile:      profiles.NewProfileDTO(profile),
	}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}
	return email, nil
}
