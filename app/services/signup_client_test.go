package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/referralpro/funnel/app/dto"
	"github.com/referralpro/funnel/utils"
)

func testPayload() *dto.SignupPayload {
	return &dto.SignupPayload{
		Welcome: dto.PayloadWelcome{Role: "Business", ProfileType: "company"},
		Basic: dto.PayloadBasic{
			FirstName:   "Dana",
			LastName:    "Fox",
			Industry:    "Tech",
			Email:       "dana@acme.com",
			CompanyName: utils.ToPtr("Acme"),
		},
		Subscription: dto.PayloadSubscription{
			Billing:      "monthly",
			PlanID:       utils.ToPtr(0),
			Seats:        5,
			Currency:     "USD",
			Total:        99,
			TotalDisplay: "$99/mon",
		},
		Payment: dto.PayloadPayment{
			PaymentType: "stripe",
			Charge:      dto.PayloadCharge{Currency: "USD", Total: 99, TotalDisplay: "$99/mon"},
			Card: dto.PayloadCard{
				Name:   "Dana Fox",
				Number: "4242424242424242",
				Expiry: dto.PayloadCardExpiry{MonthValue: "2027-04", MMYY: "04/27"},
				CVV:    "123",
			},
		},
		Password: dto.PayloadPassword{Value: "s3cret-pass"},
	}
}

func TestSubmitRegistrationSendsMultipartPayload(t *testing.T) {
	var received dto.SignupPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/sign_up/", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		raw := r.FormValue("payload")
		require.NotEmpty(t, raw)
		require.NoError(t, json.Unmarshal([]byte(raw), &received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewSignupClient(srv.URL, time.Second)
	require.NoError(t, client.SubmitRegistration(context.Background(), testPayload()))

	assert.Equal(t, "Business", received.Welcome.Role)
	assert.Equal(t, "Dana", received.Basic.FirstName)
	require.NotNil(t, received.Basic.CompanyName)
	assert.Equal(t, "Acme", *received.Basic.CompanyName)
	assert.Equal(t, "4242424242424242", received.Payment.Card.Number)
	assert.Equal(t, "s3cret-pass", received.Password.Value)
}

func TestSubmitRegistrationOmitsCompanyNameWhenAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.NotContains(t, r.FormValue("payload"), "companyName")
	}))
	defer srv.Close()

	payload := testPayload()
	payload.Basic.CompanyName = nil

	client := NewSignupClient(srv.URL, time.Second)
	require.NoError(t, client.SubmitRegistration(context.Background(), payload))
}

func TestSubmitRegistrationStatusDecidesOutcome(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		expectFail bool
	}{
		{"200 ok", http.StatusOK, `{"ok":true}`, false},
		{"201 created", http.StatusCreated, "", false},
		{"400 with json body", http.StatusBadRequest, `{"error":"email taken"}`, true},
		{"500 with text body", http.StatusInternalServerError, "boom", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewSignupClient(srv.URL, time.Second)
			err := client.SubmitRegistration(context.Background(), testPayload())
			if tt.expectFail {
				require.Error(t, err)
				if tt.body != "" {
					assert.Contains(t, err.Error(), tt.body[:4])
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubmitRegistrationTransportError(t *testing.T) {
	client := NewSignupClient("http://127.0.0.1:1", 200*time.Millisecond)
	err := client.SubmitRegistration(context.Background(), testPayload())
	assert.Error(t, err)
}
