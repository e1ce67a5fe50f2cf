package auth

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Efi-kline/my-phone-shop/pkg/config"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
)

type stubDoer struct {
	status  int
	body    string
	request *http.Request
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.request = req
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Header:     http.Header{},
	}, nil
}

func testOAuthConfig() config.OAuthConfig {
	return config.OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     "https://provider.example.com/oauth/token",
		RedirectURL:  "https://shop.example.com/auth/callback",
	}
}

func TestOAuthExchange(t *testing.T) {
	t.Run("resolves the identity from the token response", func(t *testing.T) {
		doer := &stubDoer{
			status: http.StatusOK,
			body:   `{"access_token":"tok","email":"Dana@Example.com","name":"Dana Levi"}`,
		}
		exchanger, err := NewOAuthExchanger(testOAuthConfig(), doer)
		require.NoError(t, err)

		identity, err := exchanger.Exchange(context.Background(), "auth-code")
		require.NoError(t, err)
		assert.Equal(t, "dana@example.com", identity.Email)
		assert.Equal(t, "Dana Levi", identity.FullName)

		require.NotNil(t, doer.request)
		assert.Equal(t, http.MethodPost, doer.request.Method)
		require.NoError(t, doer.request.ParseForm())
		assert.Equal(t, "auth-code", doer.request.PostForm.Get("code"))
		assert.Equal(t, "client-id", doer.request.PostForm.Get("client_id"))
	})

	t.Run("provider rejection maps to unauthorized", func(t *testing.T) {
		doer := &stubDoer{status: http.StatusBadRequest, body: `{"error":"invalid_grant"}`}
		exchanger, err := NewOAuthExchanger(testOAuthConfig(), doer)
		require.NoError(t, err)

		_, err = exchanger.Exchange(context.Background(), "expired-code")
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	})

	t.Run("blank code rejected without a request", func(t *testing.T) {
		doer := &stubDoer{status: http.StatusOK, body: `{}`}
		exchanger, err := NewOAuthExchanger(testOAuthConfig(), doer)
		require.NoError(t, err)

		_, err = exchanger.Exchange(context.Background(), "  ")
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		assert.Nil(t, doer.request)
	})

	t.Run("missing token url refused at construction", func(t *testing.T) {
		cfg := testOAuthConfig()
		cfg.TokenURL = ""
		_, err := NewOAuthExchanger(cfg, nil)
		assert.Error(t, err)
	})
}
