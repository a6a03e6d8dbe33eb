package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arunprabus/health-api/internal/model"
	"github.com/arunprabus/health-api/internal/service"
)

type ProfileHandler struct {
	service service.ProfileService
}

// profileRequest accepts camelCase fields and their snake_case spellings.
type profileRequest struct {
	Name                   string  `json:"name"`
	BloodGroup             string  `json:"bloodGroup"`
	BloodGroupSnake        string  `json:"blood_group" swaggerignore:"true"`
	InsuranceProvider      *string `json:"insuranceProvider"`
	InsuranceProviderSnake *string `json:"insurance_provider" swaggerignore:"true"`
	InsuranceNumber        *string `json:"insuranceNumber"`
	InsuranceNumberSnake   *string `json:"insurance_number" swaggerignore:"true"`
	PDFURL                 *string `json:"pdfUrl"`
	PDFURLSnake            *string `json:"pdf_url" swaggerignore:"true"`
	Notes                  *string `json:"notes"`
}

type profileResponse struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	BloodGroup        string  `json:"bloodGroup"`
	InsuranceProvider *string `json:"insuranceProvider"`
	InsuranceNumber   *string `json:"insuranceNumber"`
	PDFURL            *string `json:"pdfUrl"`
	Notes             *string `json:"notes"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
}

func NewProfileHandler(service service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/profile", h.Create)
	g.GET("/profile", h.Get)
	g.PUT("/profile", h.Update)
	g.DELETE("/profile", h.Delete)
}

// Create godoc
// @Summary Create the caller's health profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body profileRequest true "Profile"
// @Success 201 {object} successResponse{data=profileResponse}
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /profile [post]
func (h *ProfileHandler) Create(c echo.Context) error {
	principal, ok := PrincipalFrom(c)
	if !ok {
		return unauthenticated(c)
	}
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid request")
	}
	profile, err := h.service.Create(c.Request().Context(), principal.ID, req.input())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, successResponse{
		Success: true,
		Message: "Profile created successfully",
		Data:    toProfileResponse(profile),
	})
}

// Get godoc
// @Summary Get the caller's health profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} successResponse{data=profileResponse}
// @Failure 404 {object} errorResponse
// @Router /profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	principal, ok := PrincipalFrom(c)
	if !ok {
		return unauthenticated(c)
	}
	profile, err := h.service.Get(c.Request().Context(), principal.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, successResponse{Success: true, Data: toProfileResponse(profile)})
}

// Update godoc
// @Summary Replace the caller's health profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body profileRequest true "Profile"
// @Success 200 {object} successResponse{data=profileResponse}
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /profile [put]
func (h *ProfileHandler) Update(c echo.Context) error {
	principal, ok := PrincipalFrom(c)
	if !ok {
		return unauthenticated(c)
	}
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid request")
	}
	profile, err := h.service.Update(c.Request().Context(), principal.ID, req.input())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, successResponse{
		Success: true,
		Message: "Profile updated successfully",
		Data:    toProfileResponse(profile),
	})
}

// Delete godoc
// @Summary Delete the caller's health profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} successResponse
// @Failure 404 {object} errorResponse
// @Router /profile [delete]
func (h *ProfileHandler) Delete(c echo.Context) error {
	principal, ok := PrincipalFrom(c)
	if !ok {
		return unauthenticated(c)
	}
	if err := h.service.Delete(c.Request().Context(), principal.ID); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, successResponse{Success: true, Message: "Profile deleted successfully"})
}

func (r profileRequest) input() service.ProfileInput {
	in := service.ProfileInput{
		Name:              r.Name,
		BloodGroup:        r.BloodGroup,
		InsuranceProvider: firstNonNil(r.InsuranceProvider, r.InsuranceProviderSnake),
		InsuranceNumber:   firstNonNil(r.InsuranceNumber, r.InsuranceNumberSnake),
		PDFURL:            firstNonNil(r.PDFURL, r.PDFURLSnake),
		Notes:             r.Notes,
	}
	if in.BloodGroup == "" {
		in.BloodGroup = r.BloodGroupSnake
	}
	return in
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func toProfileResponse(p *model.Profile) profileResponse {
	return profileResponse{
		ID:                p.ID,
		Name:              p.Name,
		BloodGroup:        p.BloodGroup,
		InsuranceProvider: p.InsuranceProvider,
		InsuranceNumber:   p.InsuranceNumber,
		PDFURL:            p.PDFURL,
		Notes:             p.Notes,
		CreatedAt:         p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
