package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Efi-kline/my-phone-shop/pkg/config"
	"github.com/Efi-kline/my-phone-shop/pkg/db"
	"github.com/Efi-kline/my-phone-shop/pkg/db/models"
	"github.com/Efi-kline/my-phone-shop/pkg/enums"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
	"github.com/Efi-kline/my-phone-shop/pkg/security"
)

// OAuthIdentity is the external account resolved from an authorization
// code.
type OAuthIdentity struct {
	Email    string
	FullName string
}

// OAuthExchanger swaps an authorization code for the identity behind it.
type OAuthExchanger interface {
	Exchange(ctx context.Context, code string) (*OAuthIdentity, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type oauthExchanger struct {
	cfg    config.OAuthConfig
	client httpDoer
}

// NewOAuthExchanger builds the code-for-identity exchanger. client may
// be nil, in which case a default HTTP client with a timeout is used.
func NewOAuthExchanger(cfg config.OAuthConfig, client httpDoer) (OAuthExchanger, error) {
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("oauth: token url required")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("oauth: client credentials required")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &oauthExchanger{cfg: cfg, client: client}, nil
}

func (e *oauthExchanger) Exchange(ctx context.Context, code string) (*OAuthIdentity, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization code is required")
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", e.cfg.ClientID)
	form.Set("client_secret", e.cfg.ClientSecret)
	form.Set("redirect_uri", e.cfg.RedirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "oauth: build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "oauth: token endpoint unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "oauth: read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authorization code was rejected")
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		Email       string `json:"email"`
		Name        string `json:"name"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "oauth: decode token response")
	}
	if payload.AccessToken == "" || payload.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authorization code was rejected")
	}

	return &OAuthIdentity{
		Email:    strings.ToLower(strings.TrimSpace(payload.Email)),
		FullName: strings.TrimSpace(payload.Name),
	}, nil
}

// LoginWithIdentity signs in the external identity, provisioning the
// profile and its cart on first sight.
func (s *service) LoginWithIdentity(ctx context.Context, identity OAuthIdentity) (*AuthResult, error) {
	email, err := normalizeEmail(identity.Email)
	if err != nil {
		return nil, err
	}

	profile, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}

	if profile == nil {
		fullName := identity.FullName
		if fullName == "" {
			fullName = email
		}
		// OAuth accounts never authenticate locally; the hash exists
		// only so the column stays non-null.
		hash, err := security.HashPassword(uuid.NewString(), s.password)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash placeholder password")
		}
		created := &models.Profile{
			Email:        email,
			PasswordHash: hash,
			FullName:     fullName,
			Role:         enums.RoleUser,
			IsActive:     true,
		}
		if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			stored, err := s.repo.WithTx(tx).Create(ctx, created)
			if err != nil {
				if db.IsUniqueViolation(err, "idx_profiles_email") {
					return pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create profile")
			}
			created = stored
			if _, err := s.carts.WithTx(tx).Create(ctx, &models.Cart{ProfileID: created.ID, Version: 1}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create cart")
			}
			return nil
		}); err != nil {
			if pkgerrors.As(err) != nil {
				return nil, err
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision oauth profile")
		}
		profile = created
	}

	if !profile.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}
	if err := s.repo.TouchLastLogin(ctx, profile.ID, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: touch last login")
	}

	return s.issueTokens(ctx, profile)
}
