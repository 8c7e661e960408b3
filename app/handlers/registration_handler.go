// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"log"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/referralpro/funnel/app/dto"
	businessflow "github.com/referralpro/funnel/business_flow"
)

var expiryMonthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// RegistrationHandlerInterface defines the contract for signup wizard handlers
type RegistrationHandlerInterface interface {
	StartSignup(c fiber.Ctx) error
	GetState(c fiber.Ctx) error
	SubmitWelcome(c fiber.Ctx) error
	SubmitBusiness(c fiber.Ctx) error
	SubmitBusinessType(c fiber.Ctx) error
	SubmitCompanyInfo(c fiber.Ctx) error
	SubmitSubscription(c fiber.Ctx) error
	SubmitPayment(c fiber.Ctx) error
	SubmitPassword(c fiber.Ctx) error
	CompleteSignup(c fiber.Ctx) error
	AbandonSignup(c fiber.Ctx) error
}

// RegistrationHandler handles signup wizard HTTP requests
type RegistrationHandler struct {
	flow      businessflow.RegistrationFlow
	validator *validator.Validate
}

func (h *RegistrationHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *RegistrationHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(flow businessflow.RegistrationFlow) *RegistrationHandler {
	handler := &RegistrationHandler{
		flow:      flow,
		validator: validator.New(),
	}

	handler.setupCustomValidations()

	return handler
}

// StartSignup opens a signup session and issues its token
// @Summary Start Signup
// @Description Open a signup session and receive the wizard session token
// @Tags Signup
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.StartSignupResponse} "Session opened"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/signup/start [post]
func (h *RegistrationHandler) StartSignup(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.flow.StartSignup(h.createRequestContext(c, "/api/v1/signup/start"), metadata)
	if err != nil {
		log.Println("Signup start failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to start signup", "SIGNUP_START_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Signup session opened", result)
}

// GetState returns the current wizard record for step entry hydration
// @Summary Signup State
// @Description Current registration record and selection summary
// @Tags Signup
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SignupStateResponse} "Current state"
// @Failure 401 {object} dto.APIResponse "Missing or invalid session token"
// @Router /api/v1/signup/state [get]
func (h *RegistrationHandler) GetState(c fiber.Ctx) error {
	result, err := h.flow.GetState(h.createRequestContext(c, "/api/v1/signup/state"), sessionID(c))
	if err != nil {
		return h.businessErrorResponse(c, err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Signup state", result)
}

// SubmitWelcome records the profile selection
// @Summary Welcome Step
// @Tags Signup
// @Accept json
// @Produce json
// @Param request body dto.WelcomeRequest true "Profile selection"
// @Success 200 {object} dto.APIResponse{data=dto.SignupStateResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/signup/welcome [post]
func (h *RegistrationHandler) SubmitWelcome(c fiber.Ctx) error {
	var req dto.WelcomeRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}

	result, err := h.flow.SubmitWelcome(h.createRequestContext(c, "/api/v1/signup/welcome"), sessionID(c), &req)
	if err != nil {
		return h.businessErrorResponse(c, err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Profile recorded", result)
}

// SubmitBusiness records the basic identity step
// @Summary Business Registration Step
// @Tags Signup
// @Accept json
// @Produce json
// @Param request body dto.BusinessRequest true "Identity data"
// @Success 200 {object} dto.APIResponse{data=dto.SignupStateResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/signup/business [post]
func (h *RegistrationHandler) SubmitBusiness(c fiber.Ctx) error {
	var req dto.BusinessRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}

	result, err := h.flow.SubmitBusiness(h.createRequestContext(c, "/api/v1/signup/business"), sessionID(c), &req)
	if err != nil {
		return h.businessErrorResponse(c, err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Business details recorded", result)
}

// SubmitBusinessType records the classification step
// @Summary Business Type Step
// @Tags Signup
// @Accept json
// @Produce json
// @Param request body dto.BusinessTypeRequest true "Classification data"
// @Success 200 {object} dto.APIResponse{data=dto.SignupStateResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/signup/business-type [post]
func (h *RegistrationHandler) SubmitBusinessType(c fiber.Ctx) error {
	var req dto.BusinessTypeRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}

	result, err := h.flow.SubmitBusinessType(h.createRequestContext(c, "/api/v1/signup/business-type"), sessionID(c), &req)
	if err != nil {
		return h.businessErrorResponse(c, err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Business type recorded", result)
}

// SubmitCompanyInfo records the postal and contact step
// @Summary Company Info Step
// @Tags Signup
// @Accept json
// @Produce json
// @Param request body dto.CompanyInfoRequest true "Postal and contact data"
// @Success 200 {object} dto.APIResponse{data=dto.SignupStateResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/signup/company-info [post]
func (h *RegistrationHandler) SubmitCompanyInfo(c fiber.Ctx) error {
	var req dto.CompanyInfoRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}

	result, err := h.flow.SubmitCompanyInfo(h.createRequestContext(c, "/api/v1/signup/company-info"), sessionID(c), &req)
	if err != nil {
		return h.businessErrorResponse(c, err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Company info recorded", result)
}

// SubmitSubscription records the plan selection; totals are recomputed
// server-side
// @Summary Subscription Step
// @Tags Signup
// @Accept json
// @Produce json
// @Param request body dto.SubscriptionRequest true "Plan selection"
// @Success 200 {object} dto.APIResponse{data=dto.SignupStateResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/signup/subscription [post]
func (h *RegistrationHandler) SubmitSubscription(c fiber.Ctx) error {
	var req dto.SubscriptionRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}

	result, err := h.flow.SubmitSubscription(h.createRequestContext(c, "/api/v1/signup/subscription"), sessionID(c), &req)
	if err != nil {
		return h.businessErrorResponse(c, err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Subscription recorded", result)
}

// SubmitPayment records the card step
// @Summary Payment Step
// @Tags Signup
// @Accept json
// @Produce json
// @Param request body dto.PaymentRequest true "Card data"
// @Success 200 {object} dto.APIResponse{data=dto.SignupStateResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/signup/payment [post]
func (h *RegistrationHandler) SubmitPayment(c fiber.Ctx) error {
	var req dto.PaymentRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}

	result, err := h.flow.SubmitPayment(h.createRequestContext(c, "/api/v1/signup/payment"), sessionID(c), &req)
	if err != nil {
		return h.businessErrorResponse(c, err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Payment details recorded", result)
}

// SubmitPassword holds the credential in ephemeral session state
// @Summary Password Step
// @Tags Signup
// @Accept json
// @Produce json
// @Param request body dto.PasswordRequest true "Credential"
// @Success 200 {object} dto.APIResponse{data=dto.SignupStateResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/signup/password [post]
func (h *RegistrationHandler) SubmitPassword(c fiber.Ctx) error {
	var req dto.PasswordRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}

	result, err := h.flow.SubmitPassword(h.createRequestContext(c, "/api/v1/signup/password"), sessionID(c), &req)
	if err != nil {
		return h.businessErrorResponse(c, err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Password recorded", result)
}

// CompleteSignup assembles the payload and submits it upstream
// @Summary Complete Signup
// @Description Assemble the registration payload and submit it to the product API
// @Tags Signup
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.CompleteSignupResponse} "Submitted"
// @Failure 400 {object} dto.APIResponse "Record incomplete"
// @Failure 409 {object} dto.APIResponse "Submission already in flight"
// @Failure 502 {object} dto.APIResponse "Upstream rejected the submission"
// @Router /api/v1/signup/complete [post]
func (h *RegistrationHandler) CompleteSignup(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	// The upstream call owns most of the budget here.
	ctx := h.createRequestContextWithTimeout(c, "/api/v1/signup/complete", 60*time.Second)
	result, err := h.flow.CompleteSignup(ctx, sessionID(c), signupToken(c), metadata)
	if err != nil {
		return h.businessErrorResponse(c, err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// AbandonSignup tears the session down and clears durable state
// @Summary Abandon Signup
// @Tags Signup
// @Produce json
// @Success 200 {object} dto.APIResponse "Session cleared"
// @Router /api/v1/signup/abandon [post]
func (h *RegistrationHandler) AbandonSignup(c fiber.Ctx) error {
	if err := h.flow.AbandonSignup(h.createRequestContext(c, "/api/v1/signup/abandon"), sessionID(c), signupToken(c)); err != nil {
		return h.businessErrorResponse(c, err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Signup abandoned", nil)
}

// bindAndValidate decodes the body and runs struct validation, reporting the
// first failing rule only.
func (h *RegistrationHandler) bindAndValidate(c fiber.Ctx, req any) (bool, error) {
	if err := c.Bind().JSON(req); err != nil {
		return false, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(req); err != nil {
		return false, h.ErrorResponse(c, fiber.StatusBadRequest, firstValidationError(err), "VALIDATION_ERROR", nil)
	}
	return true, nil
}

// businessErrorResponse maps business errors to HTTP responses
func (h *RegistrationHandler) businessErrorResponse(c fiber.Ctx, err error) error {
	if businessflow.IsSessionNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Signup session not found", "SESSION_NOT_FOUND", nil)
	}
	if businessflow.IsCompanyNameRequired(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Company name is required", "COMPANY_NAME_REQUIRED", nil)
	}
	if businessflow.IsPlanUnknown(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown subscription plan", "PLAN_UNKNOWN", nil)
	}
	if businessflow.IsSeatsInvalid(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Seat count is invalid", "SEATS_INVALID", nil)
	}
	if businessflow.IsPaymentTypeRequired(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Select a payment method on the subscription step first", "PAYMENT_TYPE_REQUIRED", nil)
	}
	if businessflow.IsRegistrationIncomplete(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Registration record is incomplete", "REGISTRATION_INCOMPLETE", nil)
	}
	if businessflow.IsSubmissionActive(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "A submission is already in flight", "SUBMISSION_IN_FLIGHT", nil)
	}
	if businessflow.IsSubmissionFailed(err) {
		return h.ErrorResponse(c, fiber.StatusBadGateway, "Registration submission failed", "SUBMISSION_FAILED", nil)
	}

	var be *businessflow.BusinessError
	if errors.As(err, &be) {
		switch be.Code {
		case "EXPIRY_INVALID", "PLAN_REQUIRED", "BILLING_INVALID":
			return h.ErrorResponse(c, fiber.StatusBadRequest, be.Message, be.Code, nil)
		}
	}

	log.Println("Signup step failed", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Signup step failed", "SIGNUP_STEP_FAILED", nil)
}

// sessionID reads the session id stored by the signup auth middleware.
func sessionID(c fiber.Ctx) string {
	if v, ok := c.Locals("session_id").(string); ok {
		return v
	}
	return ""
}

// signupToken reads the raw session token stored by the signup auth
// middleware, for revocation on teardown.
func signupToken(c fiber.Ctx) string {
	if v, ok := c.Locals("signup_token").(string); ok {
		return v
	}
	return ""
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *RegistrationHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *RegistrationHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, "request_id", c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel)

	return ctx
}

// Custom validation setup
func (h *RegistrationHandler) setupCustomValidations() {
	// 16 digits, spaces between groups allowed
	h.validator.RegisterValidation("card_number", func(fl validator.FieldLevel) bool {
		digits := 0
		for _, char := range fl.Field().String() {
			switch {
			case char >= '0' && char <= '9':
				digits++
			case char == ' ':
			default:
				return false
			}
		}
		return digits == 16
	})

	// "YYYY-MM" month value
	h.validator.RegisterValidation("expiry_month", func(fl validator.FieldLevel) bool {
		return expiryMonthPattern.MatchString(fl.Field().String())
	})

	// Known plan ids only; id 2 was retired
	h.validator.RegisterValidation("subscription_plan", func(fl validator.FieldLevel) bool {
		switch fl.Field().Int() {
		case 0, 1, 3:
			return true
		}
		return false
	})

	h.validator.RegisterValidation("numeric", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, char := range value {
			if char < '0' || char > '9' {
				return false
			}
		}
		return true
	})
}
