// Package models contains domain entities shared across the funnel service
package models

// UserInfo is the authenticated user's profile as shown on the dashboard.
type UserInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
	Role   string `json:"role,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// TeamMember is a row of the team management table.
type TeamMember struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	LastActive string `json:"lastActive"`
	Phone      string `json:"phone,omitempty"`
}

// Referral is a row of the company referrals list.
type Referral struct {
	ID          string `json:"id"`
	CompanyName string `json:"companyName"`
	CompanyType string `json:"companyType"`
	Industry    string `json:"industry"`
	Status      string `json:"status"`
	Urgency     string `json:"urgency"`
}

// DefaultAvatarURL is used when the upstream profile carries no image.
const DefaultAvatarURL = "https://ui-avatars.com/api/?name=User&background=E5E7EB&color=374151"

// PlaceholderUser is shown when the profile fetch fails.
func PlaceholderUser() UserInfo {
	return UserInfo{
		ID:     "0",
		Name:   "Unknown",
		Email:  "",
		Role:   "Member",
		Avatar: DefaultAvatarURL,
	}
}

// PlaceholderTeam is the fixed substitute roster shown when the live
// employee fetch fails or returns nothing.
func PlaceholderTeam() []TeamMember {
	return []TeamMember{
		{ID: "1", Name: "Ava Thompson", Email: "ava.thompson@example.com", Avatar: "https://i.pravatar.cc/96?u=ava.thompson@example.com", Role: "Admin", Status: "Active", LastActive: "Today"},
		{ID: "2", Name: "Liam Carter", Email: "liam.carter@example.com", Avatar: "https://i.pravatar.cc/96?u=liam.carter@example.com", Role: "Member", Status: "Active", LastActive: "Yesterday"},
		{ID: "3", Name: "Sophia Nguyen", Email: "sophia.nguyen@example.com", Avatar: "https://i.pravatar.cc/96?u=sophia.nguyen@example.com", Role: "Member", Status: "Inactive", LastActive: "—"},
	}
}

// PlaceholderReferrals is the fixed substitute referral list shown when the
// live fetch fails or returns nothing.
func PlaceholderReferrals() []Referral {
	return []Referral{
		{ID: "1", CompanyName: "Brightside Dental", CompanyType: "LLC", Industry: "Healthcare", Status: "pending", Urgency: "normal"},
		{ID: "2", CompanyName: "Summit Legal Group", CompanyType: "Corporation", Industry: "Legal", Status: "accepted", Urgency: "high"},
		{ID: "3", CompanyName: "Greenleaf Landscaping", CompanyType: "Sole Proprietorship", Industry: "Services", Status: "pending", Urgency: "low"},
	}
}
