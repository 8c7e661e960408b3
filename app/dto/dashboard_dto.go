// Package dto contains Data Transfer Objects for API request and response structures
package dto

import "github.com/referralpro/funnel/models"

// DashboardUserResponse wraps the profile resource. Placeholder is set when
// the live fetch failed and the fixed fallback dataset is being served.
type DashboardUserResponse struct {
	User        models.UserInfo `json:"user"`
	Placeholder bool            `json:"placeholder"`
}

// DashboardTeamResponse wraps the team roster resource
type DashboardTeamResponse struct {
	Members     []models.TeamMember `json:"members"`
	Placeholder bool                `json:"placeholder"`
}

// DashboardReferralsResponse wraps the company referrals resource
type DashboardReferralsResponse struct {
	Referrals   []models.Referral `json:"referrals"`
	Placeholder bool              `json:"placeholder"`
}
