// Package models contains domain entities shared across the funnel service
package models

// Profile types selectable on the welcome step
const (
	ProfileTypeCompany    = "company"
	ProfileTypeContractor = "contractor"
)

// Business classification types
const (
	BizTypeSole        = "sole"
	BizTypePartnership = "partnership"
	BizTypeNonprofit   = "nonprofit"
	BizTypeCorporation = "corporation"
	BizTypeLLC         = "llc"
	BizTypeOther       = "other"
)

// Billing cycles
const (
	BillingMonthly = "monthly"
	BillingYearly  = "yearly"
)

// Payment methods
const (
	PaymentTypeBank   = "bank"
	PaymentTypeStripe = "stripe"
)

// RegistrationRecord is the single mutable aggregate threaded through the
// signup wizard. JSON field names mirror the persisted blob so a record
// written by an older session rehydrates unchanged.
//
// The password is deliberately NOT part of this record: it lives in the
// store's ephemeral section and never reaches durable storage.
type RegistrationRecord struct {
	ProfileType string `json:"profileType"`

	// Basic
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	CompanyName string `json:"companyName"`
	Industry    string `json:"industry"`

	// Business classification
	BizType   string `json:"bizType"`
	Years     string `json:"years"`
	Employees string `json:"employees"`
	USState   string `json:"usState"`

	// Company info
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	PostCode string `json:"postCode"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`

	// Payment card
	CardName        string `json:"cardName"`
	CardNumber      string `json:"cardNumber"`    // grouped by 4, up to 16 digits
	ExpMonthValue   string `json:"expMonthValue"` // YYYY-MM
	Exp             string `json:"exp"`           // MM/YY, derived
	CVV             string `json:"cvv"`
	BillingAddress1 string `json:"billingAddress1"`
	BillingAddress2 string `json:"billingAddress2"`

	// Subscription selection
	SubscriptionBilling string `json:"subscriptionBilling"`
	SubscriptionPlanID  *int   `json:"subscriptionPlanId"`
	SubscriptionSeats   int    `json:"subscriptionSeats"`

	// Pricing in USD, derived by the pricing engine only
	SubscriptionCurrency     string `json:"subscriptionCurrency"`
	SubscriptionTotal        int64  `json:"subscriptionTotal"`
	SubscriptionTotalDisplay string `json:"subscriptionTotalDisplay"`

	PaymentType string `json:"paymentType"`
}

// DefaultRegistrationRecord returns the all-default record a new signup
// session starts from.
func DefaultRegistrationRecord() RegistrationRecord {
	return RegistrationRecord{
		BizType: BizTypeSole,
	}
}

// IsCompany reports whether the active profile requires company fields.
func (r *RegistrationRecord) IsCompany() bool {
	return r.ProfileType == ProfileTypeCompany
}

// EnforceProfileRules applies the dependent-field reset: a profile other
// than company carries no company classification, and its business type is
// forced back to sole proprietorship.
func (r *RegistrationRecord) EnforceProfileRules() {
	if r.IsCompany() {
		return
	}
	r.CompanyName = ""
	r.Industry = ""
	r.Employees = ""
	r.BizType = BizTypeSole
}

// HasPlanSelected reports whether a subscription plan has been chosen.
func (r *RegistrationRecord) HasPlanSelected() bool {
	return r.SubscriptionPlanID != nil
}
