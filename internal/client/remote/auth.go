package remote

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// AuthResult is the server answer to register and login.
type AuthResult struct {
	Token string `json:"token"`
	User  struct {
		Email string `json:"email"`
	} `json:"user"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and returns its first session token.
func (c *Client) Register(ctx context.Context, email, password string) (AuthResult, error) {
	return c.authenticate(ctx, apiRegister, email, password)
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	return c.authenticate(ctx, apiLogin, email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (AuthResult, error) {
	var res AuthResult
	if err := c.do(ctx, http.MethodPost, path, credentials{Email: email, Password: password}, &res); err != nil {
		return AuthResult{}, err
	}
	if res.Token == "" {
		return AuthResult{}, errors.New("server returned no token")
	}
	if res.User.Email == "" {
		res.User.Email = email
	}
	return res, nil
}

// Logout revokes the current token on the server. Failures are ignored.
func (c *Client) Logout(ctx context.Context) {
	if !c.Connected() {
		return
	}
	if err := c.do(ctx, http.MethodPost, apiLogout, nil, nil); err != nil {
		c.log.Debug("logout", zap.Error(err))
	}
}
