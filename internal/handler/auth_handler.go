package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arunprabus/health-api/internal/model"
	"github.com/arunprabus/health-api/internal/service"
)

type AuthHandler struct {
	service      service.AuthService
	secureCookie bool
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	Provider  string `json:"provider,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type signupResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type loginResponse struct {
	Message   string       `json:"message"`
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt"`
}

type meResponse struct {
	User userResponse `json:"user"`
}

// NewAuthHandler builds the local auth endpoints. secureCookie marks the
// session cookie Secure, which production deployments behind TLS want.
func NewAuthHandler(service service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookie: secureCookie}
}

func (h *AuthHandler) RegisterPublicRoutes(g *echo.Group) {
	g.POST("/auth/signup", h.Signup)
	g.POST("/auth/login", h.Login)
	g.POST("/auth/logout", h.Logout)
}

func (h *AuthHandler) RegisterProtectedRoutes(g *echo.Group) {
	g.GET("/auth/me", h.Me)
}

// Signup godoc
// @Summary Register a local account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body credentialsRequest true "Email and password"
// @Success 201 {object} signupResponse
// @Failure 400 {object} errorResponse
// @Failure 429 {object} errorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid request")
	}
	user, err := h.service.Signup(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, signupResponse{
		Message: "Signup successful",
		User: userResponse{
			ID:        user.ID,
			Email:     user.Email,
			CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
		},
	})
}

// Login godoc
// @Summary Log in with a local account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body credentialsRequest true "Email and password"
// @Success 200 {object} loginResponse
// @Failure 401 {object} errorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid request")
	}
	resp, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeServiceError(c, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     AuthCookieName,
		Value:    resp.Token,
		Path:     "/",
		Expires:  resp.ExpiresAt,
		MaxAge:   int(time.Until(resp.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, loginResponse{
		Message:   "Login successful",
		User:      userResponse{ID: resp.User.ID, Email: resp.User.Email},
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout godoc
// @Summary Clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} messageResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} meResponse
// @Failure 401 {object} errorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	principal, ok := PrincipalFrom(c)
	if !ok {
		return unauthenticated(c)
	}

	user, err := h.service.CurrentUser(c.Request().Context(), principal.ID)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			return writeServiceError(c, err)
		}
		// Provider accounts that were never mirrored still have a principal.
		return c.JSON(http.StatusOK, meResponse{User: userResponse{
			ID:       principal.ID,
			Email:    principal.Email,
			Username: principal.Username,
			Provider: principal.Provider,
		}})
	}
	return c.JSON(http.StatusOK, meResponse{User: toUserResponse(user)})
}

func toUserResponse(user *model.User) userResponse {
	resp := userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Provider:  user.Provider,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
	if user.Username != nil {
		resp.Username = *user.Username
	}
	return resp
}
