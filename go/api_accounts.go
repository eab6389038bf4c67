package portalserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	accountsdomain "github.com/Apurer/pet-portal/internal/domains/accounts/domain"
	accountsports "github.com/Apurer/pet-portal/internal/domains/accounts/ports"
	apierrors "github.com/Apurer/pet-portal/internal/shared/errors"
)

// AccountsAPI wires HTTP transport with the accounts service and the session cookie.
type AccountsAPI struct {
	service accountsports.Service
	cookie  SessionCookie
}

// NewAccountsAPI creates an AccountsAPI backed by the provided service.
func NewAccountsAPI(service accountsports.Service, cookie SessionCookie) AccountsAPI {
	return AccountsAPI{service: service, cookie: cookie}
}

type emailRequest struct {
	Email string `json:"email"`
}

type confirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type confirmForgotPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// SignInResponse carries the session token for non-browser clients.
type SignInResponse struct {
	Token     string              `json:"token"`
	ExpiresAt string              `json:"expires_at"`
	User      accountsdomain.User `json:"user"`
}

// Post /api/v1/auth/signup
// Registers a user and sends a confirmation code
func (api *AccountsAPI) SignUp(c *gin.Context) {
	var payload accountsports.SignUpInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := api.service.SignUp(c.Request.Context(), payload)
	if err != nil {
		respondAccountError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Post /api/v1/auth/confirm
// Confirms a sign up with the emailed code
func (api *AccountsAPI) ConfirmSignUp(c *gin.Context) {
	var payload confirmRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := api.service.ConfirmSignUp(c.Request.Context(), payload.Email, payload.Code); err != nil {
		respondAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account confirmed. You can now sign in."})
}

// Post /api/v1/auth/resend-code
// Sends a new confirmation code
func (api *AccountsAPI) ResendCode(c *gin.Context) {
	var payload emailRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	delivery, err := api.service.ResendCode(c.Request.Context(), payload.Email)
	if err != nil {
		respondAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}

// Post /api/v1/auth/signin
// Logs user into the portal
func (api *AccountsAPI) SignIn(c *gin.Context) {
	var payload signInRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	session, err := api.service.SignIn(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, accountsports.ErrUnauthenticated) {
			_ = c.Error(err)
			problems.Respond(c, apierrors.ErrUnauthorized.WithDetail(badCredentialsMessage))
			return
		}
		respondAccountError(c, err)
		return
	}
	api.cookie.write(c, session.Token, session.ExpiresAt)
	c.JSON(http.StatusOK, SignInResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UTC().Format(http.TimeFormat),
		User:      session.User,
	})
}

// Post /api/v1/auth/signout
// Logs out current logged in user session
func (api *AccountsAPI) SignOut(c *gin.Context) {
	if session, ok := currentSession(c); ok {
		if err := api.service.SignOut(c.Request.Context(), session.Token); err != nil {
			respondAccountError(c, err)
			return
		}
	}
	api.cookie.clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// Post /api/v1/auth/forgot-password
// Sends a password reset code
func (api *AccountsAPI) ForgotPassword(c *gin.Context) {
	var payload emailRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	delivery, err := api.service.ForgotPassword(c.Request.Context(), payload.Email)
	if err != nil {
		respondAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}

// Post /api/v1/auth/confirm-forgot-password
// Sets a new password with the reset code
func (api *AccountsAPI) ConfirmForgotPassword(c *gin.Context) {
	var payload confirmForgotPasswordRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := api.service.ConfirmForgotPassword(c.Request.Context(), payload.Email, payload.Code, payload.NewPassword); err != nil {
		respondAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated. You can now sign in."})
}

// Get /api/v1/me
// Returns the signed-in user
func (api *AccountsAPI) GetMe(c *gin.Context) {
	session, _ := currentSession(c)
	user, err := api.service.CurrentUser(c.Request.Context(), session)
	if err != nil {
		respondAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "display_name": user.DisplayName()})
}

// Get /api/v1/me/attributes
func (api *AccountsAPI) GetAttributes(c *gin.Context) {
	session, _ := currentSession(c)
	attrs, err := api.service.GetAttributes(c.Request.Context(), session)
	if err != nil {
		respondAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, attrs)
}

// Put /api/v1/me/attributes
func (api *AccountsAPI) UpdateAttributes(c *gin.Context) {
	session, _ := currentSession(c)
	var payload accountsdomain.Attributes
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	attrs, err := api.service.UpdateAttributes(c.Request.Context(), session, payload)
	if err != nil {
		respondAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, attrs)
}
