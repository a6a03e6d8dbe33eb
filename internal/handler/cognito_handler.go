package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arunprabus/health-api/internal/service"
)

type CognitoHandler struct {
	service service.CognitoAuthService
}

type confirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type cognitoSignupResponse struct {
	Message string `json:"message"`
	UserSub string `json:"userSub"`
}

type cognitoLoginResponse struct {
	Message      string       `json:"message"`
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	IDToken      string       `json:"idToken"`
	ExpiresIn    int32        `json:"expiresIn"`
}

func NewCognitoHandler(service service.CognitoAuthService) *CognitoHandler {
	return &CognitoHandler{service: service}
}

func (h *CognitoHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/cognito/signup", h.Signup)
	g.POST("/auth/cognito/confirm", h.Confirm)
	g.POST("/auth/cognito/login", h.Login)
}

// Signup godoc
// @Summary Register with the managed identity provider
// @Tags cognito
// @Accept json
// @Produce json
// @Param request body credentialsRequest true "Email and password"
// @Success 201 {object} cognitoSignupResponse
// @Failure 400 {object} errorResponse
// @Router /auth/cognito/signup [post]
func (h *CognitoHandler) Signup(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid request")
	}
	sub, err := h.service.Signup(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, cognitoSignupResponse{
		Message: "Signup successful. Please check your email for verification.",
		UserSub: sub,
	})
}

// Confirm godoc
// @Summary Confirm a signup with the emailed code
// @Tags cognito
// @Accept json
// @Produce json
// @Param request body confirmRequest true "Email and verification code"
// @Success 200 {object} messageResponse
// @Failure 400 {object} errorResponse
// @Router /auth/cognito/confirm [post]
func (h *CognitoHandler) Confirm(c echo.Context) error {
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid request")
	}
	if err := h.service.Confirm(c.Request().Context(), req.Email, req.Code); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Account confirmed. You can now log in."})
}

// Login godoc
// @Summary Log in with the managed identity provider
// @Tags cognito
// @Accept json
// @Produce json
// @Param request body credentialsRequest true "Email and password"
// @Success 200 {object} cognitoLoginResponse
// @Failure 401 {object} errorResponse
// @Router /auth/cognito/login [post]
func (h *CognitoHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid request")
	}
	session, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, cognitoLoginResponse{
		Message:      "Login successful",
		User:         userResponse{ID: session.User.Sub, Email: session.User.Email},
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		IDToken:      session.IDToken,
		ExpiresIn:    session.ExpiresIn,
	})
}
