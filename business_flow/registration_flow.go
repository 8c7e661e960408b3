// Package businessflow contains the core business logic and use cases for the signup funnel
package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/referralpro/funnel/app/dto"
	"github.com/referralpro/funnel/app/services"
	"github.com/referralpro/funnel/models"
	"github.com/referralpro/funnel/pricing"
	"github.com/referralpro/funnel/store"
	"github.com/referralpro/funnel/utils"
)

// RegistrationFlow handles the signup wizard business logic: one operation
// per step plus session lifecycle and the final submission.
type RegistrationFlow interface {
	StartSignup(ctx context.Context, metadata *ClientMetadata) (*dto.StartSignupResponse, error)
	GetState(ctx context.Context, sessionID string) (*dto.SignupStateResponse, error)

	SubmitWelcome(ctx context.Context, sessionID string, req *dto.WelcomeRequest) (*dto.SignupStateResponse, error)
	SubmitBusiness(ctx context.Context, sessionID string, req *dto.BusinessRequest) (*dto.SignupStateResponse, error)
	SubmitBusinessType(ctx context.Context, sessionID string, req *dto.BusinessTypeRequest) (*dto.SignupStateResponse, error)
	SubmitCompanyInfo(ctx context.Context, sessionID string, req *dto.CompanyInfoRequest) (*dto.SignupStateResponse, error)
	SubmitSubscription(ctx context.Context, sessionID string, req *dto.SubscriptionRequest) (*dto.SignupStateResponse, error)
	SubmitPayment(ctx context.Context, sessionID string, req *dto.PaymentRequest) (*dto.SignupStateResponse, error)
	SubmitPassword(ctx context.Context, sessionID string, req *dto.PasswordRequest) (*dto.SignupStateResponse, error)

	CompleteSignup(ctx context.Context, sessionID, token string, metadata *ClientMetadata) (*dto.CompleteSignupResponse, error)
	AbandonSignup(ctx context.Context, sessionID, token string) error
}

// RegistrationFlowImpl implements the registration business flow
type RegistrationFlowImpl struct {
	stores       *store.Manager
	tokenService services.TokenService
	signupClient services.SignupClient
}

// NewRegistrationFlow creates a new registration flow instance
func NewRegistrationFlow(
	stores *store.Manager,
	tokenService services.TokenService,
	signupClient services.SignupClient,
) RegistrationFlow {
	return &RegistrationFlowImpl{
		stores:       stores,
		tokenService: tokenService,
		signupClient: signupClient,
	}
}

// StartSignup opens a fresh signup session: new session id, active scope,
// default record, signed session token.
func (s *RegistrationFlowImpl) StartSignup(ctx context.Context, metadata *ClientMetadata) (*dto.StartSignupResponse, error) {
	sessionID := uuid.New().String()

	st := s.stores.Get(sessionID)
	if err := st.StartSignup(ctx); err != nil {
		s.stores.Drop(sessionID)
		return nil, NewBusinessError("SIGNUP_START_FAILED", "Failed to start signup session", err)
	}

	token, err := s.tokenService.GenerateSignupToken(sessionID)
	if err != nil {
		st.FinishSignup(ctx, true)
		s.stores.Drop(sessionID)
		return nil, NewBusinessError("SIGNUP_START_FAILED", "Failed to issue session token", err)
	}

	if metadata != nil {
		log.Printf("signup session %s started from %s", sessionID, metadata.IPAddress)
	}

	return &dto.StartSignupResponse{
		SessionID: sessionID,
		Token:     token,
		ExpiresAt: utils.UTCNowAdd(utils.SignupSessionTTL),
	}, nil
}

// GetState returns the current record plus the derived selection summary.
// Step pages call this on entry to rehydrate.
func (s *RegistrationFlowImpl) GetState(ctx context.Context, sessionID string) (*dto.SignupStateResponse, error) {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return stateResponse(st.Record()), nil
}

// SubmitWelcome records the profile selection. Switching away from the
// company profile clears the dependent company fields.
func (s *RegistrationFlowImpl) SubmitWelcome(ctx context.Context, sessionID string, req *dto.WelcomeRequest) (*dto.SignupStateResponse, error) {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	record := st.UpdateRecord(ctx, func(r *models.RegistrationRecord) {
		r.ProfileType = req.ProfileType
		r.EnforceProfileRules()
	})
	return stateResponse(record), nil
}

// SubmitBusiness records names, email and industry. The company name is
// required exactly when the company profile is active.
func (s *RegistrationFlowImpl) SubmitBusiness(ctx context.Context, sessionID string, req *dto.BusinessRequest) (*dto.SignupStateResponse, error) {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rec := st.Record()
	if rec.IsCompany() && strings.TrimSpace(req.CompanyName) == "" {
		return nil, NewBusinessError("COMPANY_NAME_REQUIRED", "Company name is required", ErrCompanyNameRequired)
	}

	record := st.UpdateRecord(ctx, func(r *models.RegistrationRecord) {
		r.FirstName = strings.TrimSpace(req.FirstName)
		r.LastName = strings.TrimSpace(req.LastName)
		r.Email = strings.TrimSpace(req.Email)
		r.Industry = strings.TrimSpace(req.Industry)
		if r.IsCompany() {
			r.CompanyName = strings.TrimSpace(req.CompanyName)
		}
	})
	return stateResponse(record), nil
}

// SubmitBusinessType records the classification step. Non-company profiles
// are pinned to sole proprietorship regardless of the requested type.
func (s *RegistrationFlowImpl) SubmitBusinessType(ctx context.Context, sessionID string, req *dto.BusinessTypeRequest) (*dto.SignupStateResponse, error) {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	record := st.UpdateRecord(ctx, func(r *models.RegistrationRecord) {
		if r.IsCompany() {
			r.BizType = req.BizType
		} else {
			r.BizType = models.BizTypeSole
		}
		r.Years = req.Years
		r.Employees = req.Employees
		r.USState = req.USState
	})
	return stateResponse(record), nil
}

// SubmitCompanyInfo records the postal and contact block.
func (s *RegistrationFlowImpl) SubmitCompanyInfo(ctx context.Context, sessionID string, req *dto.CompanyInfoRequest) (*dto.SignupStateResponse, error) {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	record := st.UpdateRecord(ctx, func(r *models.RegistrationRecord) {
		r.Address1 = strings.TrimSpace(req.Address1)
		r.Address2 = strings.TrimSpace(req.Address2)
		r.City = strings.TrimSpace(req.City)
		r.PostCode = strings.TrimSpace(req.PostCode)
		r.Phone = strings.TrimSpace(req.Phone)
		r.Website = strings.TrimSpace(req.Website)
	})
	return stateResponse(record), nil
}

// SubmitSubscription records the plan selection and recomputes the totals.
// Client-sent totals are never trusted.
func (s *RegistrationFlowImpl) SubmitSubscription(ctx context.Context, sessionID string, req *dto.SubscriptionRequest) (*dto.SignupStateResponse, error) {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if req.PlanID == nil {
		return nil, NewBusinessError("PLAN_REQUIRED", "A subscription plan is required", ErrPlanRequired)
	}

	quote, err := pricing.Compute(*req.PlanID, req.Billing, req.Seats)
	if err != nil {
		return nil, mapPricingError(err)
	}

	record := st.UpdateRecord(ctx, func(r *models.RegistrationRecord) {
		r.SubscriptionPlanID = req.PlanID
		r.SubscriptionBilling = quote.Billing
		r.SubscriptionSeats = quote.Seats
		r.SubscriptionCurrency = quote.Currency
		r.SubscriptionTotal = quote.Total
		r.SubscriptionTotalDisplay = quote.Display
		r.PaymentType = req.PaymentType
	})
	return stateResponse(record), nil
}

// SubmitPayment records the card block and applies the profile reset rule a
// final time before submission.
func (s *RegistrationFlowImpl) SubmitPayment(ctx context.Context, sessionID string, req *dto.PaymentRequest) (*dto.SignupStateResponse, error) {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rec := st.Record()
	if rec.PaymentType == "" {
		return nil, NewBusinessError("PAYMENT_TYPE_REQUIRED", "Select a payment method on the subscription step first", ErrPaymentTypeRequired)
	}

	mmYY, err := toMMYY(req.ExpMonthValue)
	if err != nil {
		return nil, NewBusinessError("EXPIRY_INVALID", "Expiry must be a valid month", ErrExpiryInvalid)
	}

	record := st.UpdateRecord(ctx, func(r *models.RegistrationRecord) {
		r.CardName = strings.TrimSpace(req.CardName)
		r.CardNumber = strings.TrimSpace(req.CardNumber)
		r.ExpMonthValue = req.ExpMonthValue
		r.Exp = mmYY
		r.CVV = req.CVV
		r.BillingAddress1 = strings.TrimSpace(req.BillingAddress1)
		r.BillingAddress2 = strings.TrimSpace(req.BillingAddress2)
		r.EnforceProfileRules()
	})
	return stateResponse(record), nil
}

// SubmitPassword holds the password in the session's ephemeral state. It is
// never merged into the record and never persisted.
func (s *RegistrationFlowImpl) SubmitPassword(ctx context.Context, sessionID string, req *dto.PasswordRequest) (*dto.SignupStateResponse, error) {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	st.SetPassword(req.Password)
	return stateResponse(st.Record()), nil
}

// CompleteSignup assembles the grouped payload and performs the single
// upstream submission. Success tears the session down and clears durable
// state; failure preserves the record so the user can retry. A second
// complete while one is in flight is rejected.
func (s *RegistrationFlowImpl) CompleteSignup(ctx context.Context, sessionID, token string, metadata *ClientMetadata) (*dto.CompleteSignupResponse, error) {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	record := st.Record()
	if err := checkComplete(&record, st.Password()); err != nil {
		return nil, NewBusinessError("REGISTRATION_INCOMPLETE", "Registration record is incomplete", err)
	}

	if !st.TryBeginSubmission() {
		return nil, NewBusinessError("SUBMISSION_IN_FLIGHT", "A submission is already in flight", ErrSubmissionActive)
	}
	defer st.EndSubmission()

	payload := assemblePayload(&record, st.Password())
	if err := s.signupClient.SubmitRegistration(ctx, payload); err != nil {
		log.Printf("signup session %s submission failed: %v", sessionID, err)
		return nil, NewBusinessError("SUBMISSION_FAILED", "Registration submission failed", fmt.Errorf("%w: %v", ErrSubmissionFailed, err))
	}

	st.FinishSignup(ctx, true)
	s.stores.Drop(sessionID)
	s.revokeToken(sessionID, token)
	if metadata != nil {
		log.Printf("signup session %s submitted successfully from %s", sessionID, metadata.IPAddress)
	}

	return &dto.CompleteSignupResponse{
		Submitted: true,
		Message:   "Registration submitted successfully",
	}, nil
}

// AbandonSignup tears the session down and clears all durable state.
func (s *RegistrationFlowImpl) AbandonSignup(ctx context.Context, sessionID, token string) error {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return err
	}
	st.FinishSignup(ctx, true)
	s.stores.Drop(sessionID)
	s.revokeToken(sessionID, token)
	return nil
}

// revokeToken invalidates the session token after teardown so it cannot
// reopen the wizard. Failure is logged, not surfaced: the session state is
// already gone.
func (s *RegistrationFlowImpl) revokeToken(sessionID, token string) {
	if token == "" {
		return
	}
	if err := s.tokenService.RevokeSignupToken(token); err != nil {
		log.Printf("signup session %s token revocation failed: %v", sessionID, err)
	}
}

// session returns the hydrated store for an active signup session.
func (s *RegistrationFlowImpl) session(ctx context.Context, sessionID string) (*store.Store, error) {
	if sessionID == "" {
		return nil, NewBusinessError("SESSION_NOT_FOUND", "Signup session not found", ErrSessionNotFound)
	}
	st := s.stores.Get(sessionID)
	st.EnsureHydrated(ctx)
	return st, nil
}

// stateResponse builds the hydration response from a record snapshot.
func stateResponse(record models.RegistrationRecord) *dto.SignupStateResponse {
	summary := dto.SelectionSummary{
		Billing:      record.SubscriptionBilling,
		Seats:        record.SubscriptionSeats,
		PaymentType:  record.PaymentType,
		Total:        record.SubscriptionTotal,
		TotalDisplay: record.SubscriptionTotalDisplay,
		Currency:     record.SubscriptionCurrency,
	}
	if record.SubscriptionPlanID != nil {
		if plan, ok := models.PlanByID(*record.SubscriptionPlanID); ok {
			summary.PlanName = plan.Name
		}
	}
	return &dto.SignupStateResponse{
		Record:  record,
		Summary: summary,
	}
}

// checkComplete verifies every step left its required data behind before the
// record is allowed upstream.
func checkComplete(r *models.RegistrationRecord, password string) error {
	switch {
	case r.ProfileType == "":
		return fmt.Errorf("%w: profile type missing", ErrRegistrationIncomplete)
	case r.FirstName == "" || r.LastName == "" || r.Email == "":
		return fmt.Errorf("%w: basic identity missing", ErrRegistrationIncomplete)
	case r.IsCompany() && r.CompanyName == "":
		return fmt.Errorf("%w: company name missing", ErrRegistrationIncomplete)
	case !r.HasPlanSelected():
		return fmt.Errorf("%w: subscription plan missing", ErrRegistrationIncomplete)
	case r.PaymentType == "":
		return fmt.Errorf("%w: payment type missing", ErrRegistrationIncomplete)
	case r.CardName == "" || r.CardNumber == "" || r.ExpMonthValue == "" || r.CVV == "":
		return fmt.Errorf("%w: card details missing", ErrRegistrationIncomplete)
	case password == "":
		return fmt.Errorf("%w: password missing", ErrRegistrationIncomplete)
	}
	return nil
}

// assemblePayload builds the grouped upstream document from the record and
// the ephemeral password.
func assemblePayload(r *models.RegistrationRecord, password string) *dto.SignupPayload {
	isCompany := r.IsCompany()

	basic := dto.PayloadBasic{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Industry:  r.Industry,
		Email:     r.Email,
	}
	if isCompany {
		basic.CompanyName = utils.ToPtr(r.CompanyName)
	}

	bizType := models.BizTypeSole
	if isCompany && r.BizType != "" {
		bizType = r.BizType
	}

	return &dto.SignupPayload{
		Welcome: dto.PayloadWelcome{
			Role:        "Business",
			ProfileType: r.ProfileType,
		},
		Basic: basic,
		BusinessType: dto.PayloadBusinessType{
			Type:      bizType,
			Years:     r.Years,
			Employees: r.Employees,
			USState:   r.USState,
		},
		CompanyInfo: dto.PayloadCompanyInfo{
			Address1: r.Address1,
			Address2: r.Address2,
			City:     r.City,
			PostCode: r.PostCode,
			Phone:    r.Phone,
			Website:  r.Website,
		},
		Subscription: dto.PayloadSubscription{
			Billing:      r.SubscriptionBilling,
			PlanID:       r.SubscriptionPlanID,
			Seats:        r.SubscriptionSeats,
			Currency:     currencyOrUSD(r.SubscriptionCurrency),
			Total:        r.SubscriptionTotal,
			TotalDisplay: r.SubscriptionTotalDisplay,
		},
		Payment: dto.PayloadPayment{
			PaymentType: r.PaymentType,
			Charge: dto.PayloadCharge{
				Currency:     currencyOrUSD(r.SubscriptionCurrency),
				Total:        r.SubscriptionTotal,
				TotalDisplay: r.SubscriptionTotalDisplay,
			},
			Card: dto.PayloadCard{
				Name:   r.CardName,
				Number: digitsOnly(r.CardNumber),
				Expiry: dto.PayloadCardExpiry{
					MonthValue: r.ExpMonthValue,
					MMYY:       r.Exp,
				},
				CVV: r.CVV,
			},
		},
		Password: dto.PayloadPassword{
			Value: password,
		},
	}
}

func currencyOrUSD(currency string) string {
	if currency == "" {
		return utils.USDCurrency
	}
	return currency
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// toMMYY converts a "YYYY-MM" month value into the "MM/YY" card form.
func toMMYY(monthValue string) (string, error) {
	parts := strings.Split(monthValue, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return "", fmt.Errorf("invalid month value %q", monthValue)
	}
	return parts[1] + "/" + parts[0][2:], nil
}

// mapPricingError converts pricing engine errors into business errors.
func mapPricingError(err error) error {
	switch {
	case err == pricing.ErrUnknownPlan:
		return NewBusinessError("PLAN_UNKNOWN", "Unknown subscription plan", ErrPlanUnknown)
	case err == pricing.ErrInvalidSeats:
		return NewBusinessError("SEATS_INVALID", "Seat count is invalid", ErrSeatsInvalid)
	case err == pricing.ErrInvalidBilling:
		return NewBusinessError("BILLING_INVALID", "Billing cycle is invalid", ErrBillingInvalid)
	default:
		return NewBusinessError("PRICING_FAILED", "Failed to price the selection", err)
	}
}
