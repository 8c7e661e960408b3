// Package dto contains Data Transfer Objects for API request and response structures
package dto

import (
	"time"

	"github.com/referralpro/funnel/models"
)

// StartSignupResponse is returned when a signup session opens
type StartSignupResponse struct {
	SessionID string    `json:"sessionId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SignupStateResponse carries the current wizard record for step entry
// hydration, plus the selection summary derived from it
type SignupStateResponse struct {
	Record  models.RegistrationRecord `json:"record"`
	Summary SelectionSummary          `json:"summary"`
}

// SelectionSummary is the read-only recap of the current plan selection
type SelectionSummary struct {
	PlanName     string `json:"planName"`
	Billing      string `json:"billing"`
	Seats        int    `json:"seats"`
	PaymentType  string `json:"paymentType"`
	Total        int64  `json:"total"`
	TotalDisplay string `json:"totalDisplay"`
	Currency     string `json:"currency"`
}

// WelcomeRequest captures the profile selection on the welcome step
type WelcomeRequest struct {
	ProfileType string `json:"profileType" validate:"required,oneof=company contractor"`
}

// BusinessRequest captures the basic identity step. Company name and industry
// are conditionally required; the flow enforces the dependency.
type BusinessRequest struct {
	FirstName   string `json:"firstName" validate:"required,max=100"`
	LastName    string `json:"lastName" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Industry    string `json:"industry" validate:"required,max=100"`
	CompanyName string `json:"companyName" validate:"omitempty,max=120"`
}

// BusinessTypeRequest captures the business classification step
type BusinessTypeRequest struct {
	BizType   string `json:"bizType" validate:"required,oneof=sole partnership nonprofit corporation llc other"`
	Years     string `json:"years" validate:"required,max=20"`
	Employees string `json:"employees" validate:"required,max=20"`
	USState   string `json:"usState" validate:"required,max=40"`
}

// CompanyInfoRequest captures the postal and contact step. All six fields are
// required, including the second address line.
type CompanyInfoRequest struct {
	Address1 string `json:"address1" validate:"required,max=255"`
	Address2 string `json:"address2" validate:"required,max=255"`
	City     string `json:"city" validate:"required,max=100"`
	PostCode string `json:"postCode" validate:"required,max=20"`
	Phone    string `json:"phone" validate:"required,max=30"`
	Website  string `json:"website" validate:"required,max=255"`
}

// SubscriptionRequest captures the plan selection step. Totals are never
// accepted from the client; the pricing engine recomputes them.
type SubscriptionRequest struct {
	PlanID      *int   `json:"planId" validate:"required,subscription_plan"`
	Billing     string `json:"billing" validate:"required,oneof=monthly yearly"`
	Seats       int    `json:"seats" validate:"omitempty,min=0"`
	PaymentType string `json:"paymentType" validate:"required,oneof=bank stripe"`
}

// PaymentRequest captures the card step
type PaymentRequest struct {
	CardName        string `json:"cardName" validate:"required,max=100"`
	CardNumber      string `json:"cardNumber" validate:"required,card_number"`
	ExpMonthValue   string `json:"expMonthValue" validate:"required,expiry_month"`
	CVV             string `json:"cvv" validate:"required,len=3,numeric"`
	BillingAddress1 string `json:"billingAddress1" validate:"omitempty,max=255"`
	BillingAddress2 string `json:"billingAddress2" validate:"omitempty,max=255"`
}

// PasswordRequest captures the final credential step. The password is held in
// the session's ephemeral state only.
type PasswordRequest struct {
	Password    string `json:"password" validate:"required,min=8,max=128"`
	AcceptTerms bool   `json:"acceptTerms" validate:"required"`
}

// CompleteSignupResponse reports the outcome of the upstream submission
type CompleteSignupResponse struct {
	Submitted bool   `json:"submitted"`
	Message   string `json:"message"`
}

// SignupPayload is the grouped document POSTed upstream as the multipart
// "payload" field. Groups mirror the wizard steps.
type SignupPayload struct {
	Welcome      PayloadWelcome      `json:"welcome"`
	Basic        PayloadBasic        `json:"basic"`
	BusinessType PayloadBusinessType `json:"businessType"`
	CompanyInfo  PayloadCompanyInfo  `json:"companyInfo"`
	Subscription PayloadSubscription `json:"subscription"`
	Payment      PayloadPayment      `json:"payment"`
	Password     PayloadPassword     `json:"password"`
}

// PayloadWelcome carries the fixed role marker plus the chosen profile
type PayloadWelcome struct {
	Role        string `json:"role"` // always "Business"
	ProfileType string `json:"profileType"`
}

// PayloadBasic omits companyName entirely for non-company profiles
type PayloadBasic struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Industry    string  `json:"industry"`
	Email       string  `json:"email"`
	CompanyName *string `json:"companyName,omitempty"`
}

type PayloadBusinessType struct {
	Type      string `json:"type"`
	Years     string `json:"years"`
	Employees string `json:"employees"`
	USState   string `json:"usState"`
}

type PayloadCompanyInfo struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	PostCode string `json:"postCode"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
}

type PayloadSubscription struct {
	Billing      string `json:"billing"`
	PlanID       *int   `json:"planId"`
	Seats        int    `json:"seats"`
	Currency     string `json:"currency"`
	Total        int64  `json:"total"`
	TotalDisplay string `json:"totalDisplay"`
}

// PayloadCharge echoes the subscription price inside the payment group
type PayloadCharge struct {
	Currency     string `json:"currency"`
	Total        int64  `json:"total"`
	TotalDisplay string `json:"totalDisplay"`
}

type PayloadCardExpiry struct {
	MonthValue string `json:"monthValue"` // "YYYY-MM"
	MMYY       string `json:"mmYY"`       // "MM/YY"
}

// PayloadCard carries the digits-only card number
type PayloadCard struct {
	Name   string            `json:"name"`
	Number string            `json:"number"`
	Expiry PayloadCardExpiry `json:"expiry"`
	CVV    string            `json:"cvv"`
}

type PayloadPayment struct {
	PaymentType string        `json:"paymentType"`
	Charge      PayloadCharge `json:"charge"`
	Card        PayloadCard   `json:"card"`
}

type PayloadPassword struct {
	Value string `json:"value"`
}
