// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/referralpro/funnel/app/dto"
	businessflow "github.com/referralpro/funnel/business_flow"
)

// DashboardHandlerInterface defines the contract for dashboard handlers
type DashboardHandlerInterface interface {
	GetUser(c fiber.Ctx) error
	GetTeam(c fiber.Ctx) error
	GetReferrals(c fiber.Ctx) error
}

// DashboardHandler handles dashboard resource HTTP requests. The bearer token
// is passed through to the product API; a missing token simply yields the
// placeholder datasets.
type DashboardHandler struct {
	flow businessflow.DashboardFlow
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(flow businessflow.DashboardFlow) *DashboardHandler {
	return &DashboardHandler{flow: flow}
}

func (h *DashboardHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *DashboardHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetUser serves the profile resource
// @Summary Dashboard Profile
// @Description Authenticated user's profile, placeholder on upstream failure
// @Tags Dashboard
// @Produce json
// @Param reload query bool false "Bypass the read-through cache"
// @Success 200 {object} dto.APIResponse{data=dto.DashboardUserResponse}
// @Router /api/v1/dashboard/user [get]
func (h *DashboardHandler) GetUser(c fiber.Ctx) error {
	result, err := h.flow.GetUser(h.requestContext(c), accessToken(c), reloadRequested(c))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load profile", "DASHBOARD_USER_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Profile", result)
}

// GetTeam serves the team roster resource
// @Summary Dashboard Team
// @Tags Dashboard
// @Produce json
// @Param reload query bool false "Bypass the read-through cache"
// @Success 200 {object} dto.APIResponse{data=dto.DashboardTeamResponse}
// @Router /api/v1/dashboard/team [get]
func (h *DashboardHandler) GetTeam(c fiber.Ctx) error {
	result, err := h.flow.GetTeam(h.requestContext(c), accessToken(c), reloadRequested(c))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load team", "DASHBOARD_TEAM_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Team", result)
}

// GetReferrals serves the company referrals resource
// @Summary Dashboard Referrals
// @Tags Dashboard
// @Produce json
// @Param reload query bool false "Bypass the read-through cache"
// @Success 200 {object} dto.APIResponse{data=dto.DashboardReferralsResponse}
// @Router /api/v1/dashboard/referrals [get]
func (h *DashboardHandler) GetReferrals(c fiber.Ctx) error {
	result, err := h.flow.GetReferrals(h.requestContext(c), accessToken(c), reloadRequested(c))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load referrals", "DASHBOARD_REFERRALS_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Referrals", result)
}

// requestContext derives the flow context from the request so a dropped
// connection cancels the in-flight upstream fetch.
func (h *DashboardHandler) requestContext(c fiber.Ctx) context.Context {
	ctx, cancel := context.WithTimeout(c.Context(), 15*time.Second)
	ctx = context.WithValue(ctx, "cancel_func", cancel)
	return ctx
}

// accessToken reads the bearer token the middleware extracted, if any.
func accessToken(c fiber.Ctx) string {
	if v, ok := c.Locals("access_token").(string); ok {
		return v
	}
	return ""
}

func reloadRequested(c fiber.Ctx) bool {
	reload := c.Query("reload")
	return reload == "1" || reload == "true"
}
