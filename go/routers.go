// Package portalserver is the HTTP surface of the pet portal.
package portalserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
	// Authenticated routes answer 401 before the handler runs when no session is present.
	Authenticated bool
}

// NewRouter returns a new router. Middleware is installed before any route.
func NewRouter(handleFunctions ApiHandleFunctions, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)
	return NewRouterWithGinEngine(router, handleFunctions)
}

// NewRouterWithGinEngine adds the portal routes to an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		handlers := []gin.HandlerFunc{route.HandlerFunc}
		if route.Authenticated {
			handlers = []gin.HandlerFunc{RequireSession, route.HandlerFunc}
		}
		router.Handle(route.Method, route.Pattern, handlers...)
	}
	return router
}

// DefaultHandleFunc answers routes that have no handler wired.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// ApiHandleFunctions groups the handler sets served by the portal.
type ApiHandleFunctions struct {
	// Routes for the PortalAPI part of the API
	PortalAPI PortalAPI
	// Routes for the ListingsAPI part of the API
	ListingsAPI ListingsAPI
	// Routes for the AccountsAPI part of the API
	AccountsAPI AccountsAPI
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"Healthz",
			http.MethodGet,
			"/healthz",
			handleFunctions.PortalAPI.Healthz,
			false,
		},
		{
			"GetReference",
			http.MethodGet,
			"/api/v1/reference",
			handleFunctions.PortalAPI.GetReference,
			false,
		},
		{
			"GetHome",
			http.MethodGet,
			"/api/v1/home",
			handleFunctions.PortalAPI.GetHome,
			false,
		},
		{
			"ListListings",
			http.MethodGet,
			"/api/v1/listings",
			handleFunctions.ListingsAPI.ListListings,
			false,
		},
		{
			"GetListing",
			http.MethodGet,
			"/api/v1/listings/:listingId",
			handleFunctions.ListingsAPI.GetListing,
			false,
		},
		{
			"CreateListing",
			http.MethodPost,
			"/api/v1/listings",
			handleFunctions.ListingsAPI.CreateListing,
			true,
		},
		{
			"UpdateListing",
			http.MethodPut,
			"/api/v1/listings/:listingId",
			handleFunctions.ListingsAPI.UpdateListing,
			true,
		},
		{
			"DeleteListing",
			http.MethodDelete,
			"/api/v1/listings/:listingId",
			handleFunctions.ListingsAPI.DeleteListing,
			true,
		},
		{
			"ListMyListings",
			http.MethodGet,
			"/api/v1/me/listings",
			handleFunctions.ListingsAPI.ListMyListings,
			true,
		},
		{
			"SignUp",
			http.MethodPost,
			"/api/v1/auth/signup",
			handleFunctions.AccountsAPI.SignUp,
			false,
		},
		{
			"ConfirmSignUp",
			http.MethodPost,
			"/api/v1/auth/confirm",
			handleFunctions.AccountsAPI.ConfirmSignUp,
			false,
		},
		{
			"ResendCode",
			http.MethodPost,
			"/api/v1/auth/resend-code",
			handleFunctions.AccountsAPI.ResendCode,
			false,
		},
		{
			"SignIn",
			http.MethodPost,
			"/api/v1/auth/signin",
			handleFunctions.AccountsAPI.SignIn,
			false,
		},
		{
			"SignOut",
			http.MethodPost,
			"/api/v1/auth/signout",
			handleFunctions.AccountsAPI.SignOut,
			false,
		},
		{
			"ForgotPassword",
			http.MethodPost,
			"/api/v1/auth/forgot-password",
			handleFunctions.AccountsAPI.ForgotPassword,
			false,
		},
		{
			"ConfirmForgotPassword",
			http.MethodPost,
			"/api/v1/auth/confirm-forgot-password",
			handleFunctions.AccountsAPI.ConfirmForgotPassword,
			false,
		},
		{
			"GetMe",
			http.MethodGet,
			"/api/v1/me",
			handleFunctions.AccountsAPI.GetMe,
			true,
		},
		{
			"GetAttributes",
			http.MethodGet,
			"/api/v1/me/attributes",
			handleFunctions.AccountsAPI.GetAttributes,
			true,
		},
		{
			"UpdateAttributes",
			http.MethodPut,
			"/api/v1/me/attributes",
			handleFunctions.AccountsAPI.UpdateAttributes,
			true,
		},
	}
}
