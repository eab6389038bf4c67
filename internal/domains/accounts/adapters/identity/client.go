package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Apurer/pet-portal/internal/domains/accounts/domain"
	"github.com/Apurer/pet-portal/internal/domains/accounts/ports"
	"github.com/Apurer/pet-portal/internal/platform/httpclient"
)

var _ ports.IdentityProvider = (*Client)(nil)

// Client calls the hosted identity service over HTTP.
type Client struct {
	http *httpclient.Client
}

func NewClient(client *httpclient.Client) (*Client, error) {
	if client == nil || client.BaseURL == "" {
		return nil, errors.New("identity client requires a base URL")
	}
	return &Client{http: client}, nil
}

type emailRequest struct {
	Email string `json:"email"`
}

type confirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (c *Client) SignUp(ctx context.Context, input ports.SignUpInput) (*ports.SignUpResult, error) {
	var result ports.SignUpResult
	if err := c.call(ctx, http.MethodPost, "/signup", "", input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ConfirmSignUp(ctx context.Context, email, code string) error {
	return c.call(ctx, http.MethodPost, "/confirm-signup", "", confirmRequest{Email: email, Code: code}, nil)
}

func (c *Client) ResendCode(ctx context.Context, email string) (*ports.CodeDelivery, error) {
	var delivery ports.CodeDelivery
	if err := c.call(ctx, http.MethodPost, "/resend-code", "", emailRequest{Email: email}, &delivery); err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	var result ports.AuthResult
	if err := c.call(ctx, http.MethodPost, "/signin", "", credentialsRequest{Email: email, Password: password}, &result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("%w: sign in returned no access token", ports.ErrIdentityUpstream)
	}
	return &result, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.call(ctx, http.MethodPost, "/signout", accessToken, nil, nil)
}

func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*domain.User, error) {
	var user domain.User
	if err := c.call(ctx, http.MethodGet, "/me", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetAttributes(ctx context.Context, accessToken string) (domain.Attributes, error) {
	var attrs domain.Attributes
	err := c.call(ctx, http.MethodGet, "/me/attributes", accessToken, nil, &attrs)
	return attrs, err
}

func (c *Client) UpdateAttributes(ctx context.Context, accessToken string, attrs domain.Attributes) error {
	return c.call(ctx, http.MethodPut, "/me/attributes", accessToken, attrs, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (*ports.CodeDelivery, error) {
	var delivery ports.CodeDelivery
	if err := c.call(ctx, http.MethodPost, "/forgot-password", "", emailRequest{Email: email}, &delivery); err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (c *Client) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	return c.call(ctx, http.MethodPost, "/confirm-forgot-password", "", resetRequest{Email: email, Code: code, NewPassword: newPassword}, nil)
}

func (c *Client) call(ctx context.Context, method, path, accessToken string, in, out any) error {
	var headers map[string]string
	if accessToken != "" {
		headers = map[string]string{"Authorization": "Bearer " + accessToken}
	}
	return mapError(c.http.DoJSON(ctx, method, path, headers, in, out))
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var httpErr *httpclient.HTTPError
	if !errors.As(err, &httpErr) {
		return fmt.Errorf("%w: %w", ports.ErrIdentityUpstream, err)
	}
	switch httpErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", ports.ErrUnauthenticated, err)
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict:
		return fmt.Errorf("%w: %w", ports.ErrInvalidInput, err)
	default:
		return fmt.Errorf("%w: %w", ports.ErrIdentityUpstream, err)
	}
}
