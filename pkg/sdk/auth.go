package sdk

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

// AuthService talks to /api/auth.
type AuthService struct {
	c *Client
}

// Login performs the password grant. The body is form-encoded with
// username and password keys; the resulting token is persisted.
func (s *AuthService) Login(ctx context.Context, username, password string) (schema.Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var tok schema.Token
	if err := s.c.do(ctx, http.MethodPost, loginPath, nil, form, &tok); err != nil {
		return schema.Token{}, err
	}

	sess := schema.Session{AccessToken: tok.AccessToken, TokenType: tok.TokenType}
	if tok.ExpiresIn > 0 {
		sess.ExpiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	if err := s.c.tokens.Save(sess); err != nil {
		return tok, err
	}
	return tok, nil
}

func (s *AuthService) Register(ctx context.Context, reg schema.Registration) (schema.User, error) {
	var u schema.User
	err := s.c.do(ctx, http.MethodPost, "/api/auth/register", nil, reg, &u)
	return u, err
}

func (s *AuthService) Me(ctx context.Context) (schema.User, error) {
	var u schema.User
	err := s.c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &u)
	return u, err
}

// Logout forgets the local session. The backend keeps no server-side state.
func (s *AuthService) Logout() error {
	return s.c.tokens.Clear()
}
