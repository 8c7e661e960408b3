package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/referralpro/funnel/models"
)

// ErrNoAccessToken is returned when a dashboard call arrives without a bearer
// token. The caller must not attempt the network round trip in that case.
var ErrNoAccessToken = errors.New("no access token provided")

// AccountClient reads the authenticated dashboard resources from the product
// API: profile, team roster and company referrals.
type AccountClient interface {
	GetUser(ctx context.Context, accessToken string) (*models.UserInfo, error)
	ListEmployees(ctx context.Context, accessToken string) ([]models.TeamMember, error)
	ListCompanyReferrals(ctx context.Context, accessToken string) ([]models.Referral, error)
}

// AccountClientImpl implements AccountClient against the product API
type AccountClientImpl struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewAccountClient creates a product API account client
func NewAccountClient(baseURL string, timeout time.Duration) *AccountClientImpl {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AccountClientImpl{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Upstream wire shapes. Ids arrive as numbers or strings depending on the
// resource, so they decode as any and get stringified.

type upstreamUserEnvelope struct {
	User struct {
		ID       any    `json:"id"`
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Role     string `json:"role"`
		Image    string `json:"image"`
	} `json:"user"`
}

type upstreamEmployee struct {
	ID        any    `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	LastLogin string `json:"last_login"`
	Phone     string `json:"phone"`
}

type upstreamEmployeesEnvelope struct {
	Employees []upstreamEmployee `json:"employees"`
}

type upstreamReferral struct {
	ID          any    `json:"id"`
	CompanyName string `json:"company_name"`
	CompanyType string `json:"company_type"`
	Industry    string `json:"industry"`
	Status      string `json:"status"`
	Urgency     string `json:"urgency"`
}

// GetUser fetches the profile via POST /auth/get_user/ with an empty JSON body
func (c *AccountClientImpl) GetUser(ctx context.Context, accessToken string) (*models.UserInfo, error) {
	if accessToken == "" {
		return nil, ErrNoAccessToken
	}

	url := c.BaseURL + "/auth/get_user/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString("{}"))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get_user failed with status %d", resp.StatusCode)
	}

	var out upstreamUserEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("get_user response decode failed: %w", err)
	}

	user := models.UserInfo{
		ID:     stringifyID(out.User.ID),
		Name:   out.User.FullName,
		Email:  out.User.Email,
		Phone:  out.User.Phone,
		Role:   out.User.Role,
		Avatar: out.User.Image,
	}
	if user.Name == "" {
		user.Name = "Unknown"
	}
	if user.Role == "" {
		user.Role = "Member"
	}
	if user.Avatar == "" {
		user.Avatar = models.DefaultAvatarURL
	}
	return &user, nil
}

// ListEmployees fetches the team roster via GET /auth/employees/
func (c *AccountClientImpl) ListEmployees(ctx context.Context, accessToken string) ([]models.TeamMember, error) {
	if accessToken == "" {
		return nil, ErrNoAccessToken
	}

	url := c.BaseURL + "/auth/employees/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("employees fetch failed with status %d", resp.StatusCode)
	}

	var out upstreamEmployeesEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("employees response decode failed: %w", err)
	}

	members := make([]models.TeamMember, 0, len(out.Employees))
	for _, emp := range out.Employees {
		name := emp.FullName
		if name == "" {
			name = "Unknown"
		}
		role := emp.Role
		if role == "" {
			role = "Unknown"
		}
		status := "Inactive"
		if emp.IsActive {
			status = "Active"
		}
		phone := emp.Phone
		if phone == "" {
			phone = "—"
		}
		members = append(members, models.TeamMember{
			ID:         stringifyID(emp.ID),
			Name:       name,
			Email:      emp.Email,
			Avatar:     "https://i.pravatar.cc/96?u=" + emp.Email,
			Role:       role,
			Status:     status,
			LastActive: formatLastActive(emp.LastLogin),
			Phone:      phone,
		})
	}
	return members, nil
}

// ListCompanyReferrals fetches referrals via GET /refer/list_company_referral/.
// The endpoint returns either a bare array or an object with a "referrals"
// field; both decode.
func (c *AccountClientImpl) ListCompanyReferrals(ctx context.Context, accessToken string) ([]models.Referral, error) {
	if accessToken == "" {
		return nil, ErrNoAccessToken
	}

	url := c.BaseURL + "/refer/list_company_referral/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("referrals fetch failed with status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("referrals response decode failed: %w", err)
	}

	var rows []upstreamReferral
	if err := json.Unmarshal(raw, &rows); err != nil {
		var envelope struct {
			Referrals []upstreamReferral `json:"referrals"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("referrals response decode failed: %w", err)
		}
		rows = envelope.Referrals
	}

	referrals := make([]models.Referral, 0, len(rows))
	for _, r := range rows {
		referrals = append(referrals, models.Referral{
			ID:          stringifyID(r.ID),
			CompanyName: withDefault(r.CompanyName, "Unknown"),
			CompanyType: withDefault(r.CompanyType, "—"),
			Industry:    withDefault(r.Industry, "—"),
			Status:      withDefault(r.Status, "pending"),
			Urgency:     withDefault(r.Urgency, "normal"),
		})
	}
	return referrals, nil
}

func stringifyID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%.0f", v), ".")
	default:
		return fmt.Sprint(v)
	}
}

func withDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// formatLastActive renders an upstream login timestamp as a plain date
func formatLastActive(lastLogin string) string {
	if lastLogin == "" {
		return "—"
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, lastLogin); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return lastLogin
}
