package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/referralpro/funnel/app/dto"
	businessflow "github.com/referralpro/funnel/business_flow"
)

// stubRegistrationFlow records the requests that make it past validation.
type stubRegistrationFlow struct {
	lastSubscription *dto.SubscriptionRequest
	lastPayment      *dto.PaymentRequest
	lastPassword     *dto.PasswordRequest
}

func (s *stubRegistrationFlow) StartSignup(ctx context.Context, metadata *businessflow.ClientMetadata) (*dto.StartSignupResponse, error) {
	return &dto.StartSignupResponse{SessionID: "sess-1", Token: "token-1"}, nil
}

func (s *stubRegistrationFlow) GetState(ctx context.Context, sessionID string) (*dto.SignupStateResponse, error) {
	return &dto.SignupStateResponse{}, nil
}

func (s *stubRegistrationFlow) SubmitWelcome(ctx context.Context, sessionID string, req *dto.WelcomeRequest) (*dto.SignupStateResponse, error) {
	return &dto.SignupStateResponse{}, nil
}

func (s *stubRegistrationFlow) SubmitBusiness(ctx context.Context, sessionID string, req *dto.BusinessRequest) (*dto.SignupStateResponse, error) {
	return &dto.SignupStateResponse{}, nil
}

func (s *stubRegistrationFlow) SubmitBusinessType(ctx context.Context, sessionID string, req *dto.BusinessTypeRequest) (*dto.SignupStateResponse, error) {
	return &dto.SignupStateResponse{}, nil
}

func (s *stubRegistrationFlow) SubmitCompanyInfo(ctx context.Context, sessionID string, req *dto.CompanyInfoRequest) (*dto.SignupStateResponse, error) {
	return &dto.SignupStateResponse{}, nil
}

func (s *stubRegistrationFlow) SubmitSubscription(ctx context.Context, sessionID string, req *dto.SubscriptionRequest) (*dto.SignupStateResponse, error) {
	s.lastSubscription = req
	return &dto.SignupStateResponse{}, nil
}

func (s *stubRegistrationFlow) SubmitPayment(ctx context.Context, sessionID string, req *dto.PaymentRequest) (*dto.SignupStateResponse, error) {
	s.lastPayment = req
	return &dto.SignupStateResponse{}, nil
}

func (s *stubRegistrationFlow) SubmitPassword(ctx context.Context, sessionID string, req *dto.PasswordRequest) (*dto.SignupStateResponse, error) {
	s.lastPassword = req
	return &dto.SignupStateResponse{}, nil
}

func (s *stubRegistrationFlow) CompleteSignup(ctx context.Context, sessionID, token string, metadata *businessflow.ClientMetadata) (*dto.CompleteSignupResponse, error) {
	return &dto.CompleteSignupResponse{Submitted: true}, nil
}

func (s *stubRegistrationFlow) AbandonSignup(ctx context.Context, sessionID, token string) error {
	return nil
}

type apiEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

// newHandlerApp mounts the wizard routes behind a stub session, bypassing the
// auth middleware so only the handler layer is exercised.
func newHandlerApp(t *testing.T) (*fiber.App, *stubRegistrationFlow) {
	t.Helper()

	flow := &stubRegistrationFlow{}
	h := NewRegistrationHandler(flow)

	app := fiber.New()
	app.Use(func(c fiber.Ctx) error {
		c.Locals("session_id", "sess-1")
		return c.Next()
	})
	app.Post("/signup/subscription", h.SubmitSubscription)
	app.Post("/signup/payment", h.SubmitPayment)
	app.Post("/signup/password", h.SubmitPassword)

	return app, flow
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, apiEnvelope) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestPaymentStepCardNumberBoundary(t *testing.T) {
	app, flow := newHandlerApp(t)

	// 15 digits is rejected before the flow sees it.
	status, env := postJSON(t, app, "/signup/payment",
		`{"cardName":"Dana Fox","cardNumber":"4242 4242 4242 424","expMonthValue":"2027-04","cvv":"123"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, "Card number must be 16 digits", env.Message)
	assert.Nil(t, flow.lastPayment)

	// Letters are rejected even at 16 characters.
	status, env = postJSON(t, app, "/signup/payment",
		`{"cardName":"Dana Fox","cardNumber":"4242 4242 4242 424x","expMonthValue":"2027-04","cvv":"123"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Nil(t, flow.lastPayment)

	// 16 digits in groups of four passes through.
	status, env = postJSON(t, app, "/signup/payment",
		`{"cardName":"Dana Fox","cardNumber":"4242 4242 4242 4242","expMonthValue":"2027-04","cvv":"123"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	require.NotNil(t, flow.lastPayment)
	assert.Equal(t, "4242 4242 4242 4242", flow.lastPayment.CardNumber)
}

func TestPaymentStepExpiryAndCVVFormats(t *testing.T) {
	app, flow := newHandlerApp(t)

	// Expiry must be the YYYY-MM month value, not MM/YYYY.
	status, env := postJSON(t, app, "/signup/payment",
		`{"cardName":"Dana Fox","cardNumber":"4242 4242 4242 4242","expMonthValue":"04/2027","cvv":"123"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Expiry must be a valid month (YYYY-MM)", env.Message)
	assert.Nil(t, flow.lastPayment)

	// CVV is exactly three digits.
	status, env = postJSON(t, app, "/signup/payment",
		`{"cardName":"Dana Fox","cardNumber":"4242 4242 4242 4242","expMonthValue":"2027-04","cvv":"12"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Nil(t, flow.lastPayment)
}

func TestSubscriptionStepPlanValidation(t *testing.T) {
	app, flow := newHandlerApp(t)

	// Plan id 2 does not exist.
	status, env := postJSON(t, app, "/signup/subscription",
		`{"planId":2,"billing":"monthly","paymentType":"stripe"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Unknown subscription plan", env.Message)
	assert.Nil(t, flow.lastSubscription)

	// A missing plan id fails required before the custom rule.
	status, _ = postJSON(t, app, "/signup/subscription",
		`{"billing":"monthly","paymentType":"stripe"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Nil(t, flow.lastSubscription)

	// Custom plan id 3 is accepted.
	status, env = postJSON(t, app, "/signup/subscription",
		`{"planId":3,"billing":"yearly","seats":40,"paymentType":"bank"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	require.NotNil(t, flow.lastSubscription)
	assert.Equal(t, 40, flow.lastSubscription.Seats)
}

func TestPasswordStepRules(t *testing.T) {
	app, flow := newHandlerApp(t)

	// Too short.
	status, env := postJSON(t, app, "/signup/password",
		`{"password":"short","acceptTerms":true}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Nil(t, flow.lastPassword)

	// Terms must be acknowledged.
	status, _ = postJSON(t, app, "/signup/password",
		`{"password":"long-enough-pass","acceptTerms":false}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Nil(t, flow.lastPassword)

	status, env = postJSON(t, app, "/signup/password",
		`{"password":"long-enough-pass","acceptTerms":true}`)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	require.NotNil(t, flow.lastPassword)
}
