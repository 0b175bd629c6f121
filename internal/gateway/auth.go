package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/iliyamo/jewelry-storefront/internal/model"
)

// SignupResult is what account creation returns.  Token is empty unless
// the backend chose to issue one; today it never does.
type SignupResult struct {
	User  model.User
	Token string
}

// Login exchanges credentials for a bearer token.  The backend expects an
// OAuth2 password form, so the email travels as "username".  A 400 or 401
// becomes ErrInvalidCredentials carrying the backend's message verbatim.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", form: form}, &out)
	if err != nil {
		return "", reclassify(err, ErrInvalidCredentials, http.StatusBadRequest, http.StatusUnauthorized)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: login response carried no access_token", ErrBackend)
	}
	return out.AccessToken, nil
}

// Me fetches the authoritative profile.  A non-empty token is used instead
// of the persisted one.
func (c *Client) Me(ctx context.Context, token string) (model.User, error) {
	var w wireUser
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users/me", token: token}, &w); err != nil {
		return model.User{}, err
	}
	return userFromWire(w), nil
}

// Signup creates an account.
func (c *Client) Signup(ctx context.Context, name, email, password string) (SignupResult, error) {
	var out struct {
		wireUser
		AccessToken string `json:"access_token"`
	}
	body := wireSignup{Email: email, Password: password, FullName: name}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/signup", body: body}, &out); err != nil {
		return SignupResult{}, err
	}
	return SignupResult{User: userFromWire(out.wireUser), Token: out.AccessToken}, nil
}

// UpdateMe sends a partial profile update and returns the stored profile.
func (c *Client) UpdateMe(ctx context.Context, upd ProfileUpdate) (model.User, error) {
	var w wireUser
	if err := c.do(ctx, request{method: http.MethodPut, path: "/users/me", body: upd.toWire()}, &w); err != nil {
		return model.User{}, err
	}
	return userFromWire(w), nil
}
