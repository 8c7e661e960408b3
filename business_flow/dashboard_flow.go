// Package businessflow contains the core business logic and use cases for the signup funnel
package businessflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/referralpro/funnel/app/dto"
	"github.com/referralpro/funnel/app/services"
	"github.com/referralpro/funnel/models"
	"github.com/referralpro/funnel/utils"
)

// DashboardFlow serves the authenticated dashboard resources. Each resource
// is fetched independently; a failed or empty fetch falls back to the fixed
// placeholder dataset instead of erroring the page. Results are cached
// read-through per token; reload bypasses the cache.
type DashboardFlow interface {
	GetUser(ctx context.Context, accessToken string, reload bool) (*dto.DashboardUserResponse, error)
	GetTeam(ctx context.Context, accessToken string, reload bool) (*dto.DashboardTeamResponse, error)
	GetReferrals(ctx context.Context, accessToken string, reload bool) (*dto.DashboardReferralsResponse, error)
}

// DashboardFlowImpl implements the dashboard business flow
type DashboardFlowImpl struct {
	accountClient services.AccountClient
	rc            *redis.Client
}

// NewDashboardFlow creates a new dashboard flow instance
func NewDashboardFlow(accountClient services.AccountClient, rc *redis.Client) DashboardFlow {
	return &DashboardFlowImpl{
		accountClient: accountClient,
		rc:            rc,
	}
}

// GetUser returns the profile resource.
func (s *DashboardFlowImpl) GetUser(ctx context.Context, accessToken string, reload bool) (*dto.DashboardUserResponse, error) {
	cacheKey := dashboardCacheKey("user", accessToken)
	if !reload && accessToken != "" {
		var cached dto.DashboardUserResponse
		if s.readCache(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	user, err := s.accountClient.GetUser(ctx, accessToken)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("dashboard: user fetch failed, serving placeholder: %v", err)
		return &dto.DashboardUserResponse{User: models.PlaceholderUser(), Placeholder: true}, nil
	}

	out := &dto.DashboardUserResponse{User: *user}
	s.writeCache(ctx, cacheKey, out)
	return out, nil
}

// GetTeam returns the team roster resource.
func (s *DashboardFlowImpl) GetTeam(ctx context.Context, accessToken string, reload bool) (*dto.DashboardTeamResponse, error) {
	cacheKey := dashboardCacheKey("team", accessToken)
	if !reload && accessToken != "" {
		var cached dto.DashboardTeamResponse
		if s.readCache(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	members, err := s.accountClient.ListEmployees(ctx, accessToken)
	if err != nil || len(members) == 0 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			log.Printf("dashboard: team fetch failed, serving placeholder: %v", err)
		}
		return &dto.DashboardTeamResponse{Members: models.PlaceholderTeam(), Placeholder: true}, nil
	}

	out := &dto.DashboardTeamResponse{Members: members}
	s.writeCache(ctx, cacheKey, out)
	return out, nil
}

// GetReferrals returns the company referrals resource.
func (s *DashboardFlowImpl) GetReferrals(ctx context.Context, accessToken string, reload bool) (*dto.DashboardReferralsResponse, error) {
	cacheKey := dashboardCacheKey("referrals", accessToken)
	if !reload && accessToken != "" {
		var cached dto.DashboardReferralsResponse
		if s.readCache(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	referrals, err := s.accountClient.ListCompanyReferrals(ctx, accessToken)
	if err != nil || len(referrals) == 0 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			log.Printf("dashboard: referrals fetch failed, serving placeholder: %v", err)
		}
		return &dto.DashboardReferralsResponse{Referrals: models.PlaceholderReferrals(), Placeholder: true}, nil
	}

	out := &dto.DashboardReferralsResponse{Referrals: referrals}
	s.writeCache(ctx, cacheKey, out)
	return out, nil
}

// readCache returns true when the key exists and decodes into out. Cache
// failures only mean a live fetch.
func (s *DashboardFlowImpl) readCache(ctx context.Context, key string, out any) bool {
	if s.rc == nil {
		return false
	}
	bs, err := s.rc.Get(ctx, key).Bytes()
	if err != nil || len(bs) == 0 {
		return false
	}
	return json.Unmarshal(bs, out) == nil
}

// writeCache stores a live result. Only live data is cached, placeholders
// are recomputed every time.
func (s *DashboardFlowImpl) writeCache(ctx context.Context, key string, in any) {
	if s.rc == nil {
		return
	}
	if bs, err := json.Marshal(in); err == nil {
		_ = s.rc.Set(ctx, key, bs, utils.DashboardCacheTTL).Err()
	}
}

// dashboardCacheKey scopes a cached resource to its bearer token without
// storing the token itself.
func dashboardCacheKey(resource, accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return utils.DashboardCacheKeyPrefix + resource + ":" + hex.EncodeToString(sum[:8])
}
