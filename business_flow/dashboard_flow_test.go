package businessflow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/referralpro/funnel/app/services"
)

func newDashboardFlow(t *testing.T, handler http.HandlerFunc) (DashboardFlow, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	return NewDashboardFlow(services.NewAccountClient(srv.URL, time.Second), rc), &hits
}

func TestGetUserServesLiveProfile(t *testing.T) {
	flow, _ := newDashboardFlow(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"id":1,"full_name":"Dana Fox","email":"dana@acme.com","role":"Admin"}}`))
	})

	out, err := flow.GetUser(context.Background(), "tok-1", false)
	require.NoError(t, err)
	assert.False(t, out.Placeholder)
	assert.Equal(t, "Dana Fox", out.User.Name)
}

func TestGetUserFallsBackToPlaceholder(t *testing.T) {
	flow, _ := newDashboardFlow(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	out, err := flow.GetUser(context.Background(), "tok-1", false)
	require.NoError(t, err)
	assert.True(t, out.Placeholder)
	assert.Equal(t, "Unknown", out.User.Name)
}

func TestGetUserWithoutTokenSkipsNetwork(t *testing.T) {
	flow, hits := newDashboardFlow(t, func(w http.ResponseWriter, r *http.Request) {})

	out, err := flow.GetUser(context.Background(), "", false)
	require.NoError(t, err)
	assert.True(t, out.Placeholder)
	assert.Zero(t, hits.Load())
}

func TestGetTeamCachesLiveResults(t *testing.T) {
	flow, hits := newDashboardFlow(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"employees":[{"id":1,"full_name":"Ava","email":"ava@acme.com","is_active":true}]}`))
	})
	ctx := context.Background()

	first, err := flow.GetTeam(ctx, "tok-1", false)
	require.NoError(t, err)
	require.Len(t, first.Members, 1)
	assert.Equal(t, int64(1), hits.Load())

	// Second read is served from cache.
	second, err := flow.GetTeam(ctx, "tok-1", false)
	require.NoError(t, err)
	assert.Equal(t, first.Members, second.Members)
	assert.Equal(t, int64(1), hits.Load())

	// Manual reload bypasses the cache.
	_, err = flow.GetTeam(ctx, "tok-1", true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())

	// A different token never sees the cached roster.
	_, err = flow.GetTeam(ctx, "tok-2", false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), hits.Load())
}

func TestGetTeamEmptyRosterFallsBack(t *testing.T) {
	flow, _ := newDashboardFlow(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"employees":[]}`))
	})

	out, err := flow.GetTeam(context.Background(), "tok-1", false)
	require.NoError(t, err)
	assert.True(t, out.Placeholder)
	assert.NotEmpty(t, out.Members)
}

func TestGetReferralsAcceptsBareArray(t *testing.T) {
	flow, _ := newDashboardFlow(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":9,"company_name":"Acme","status":"accepted"}]`))
	})

	out, err := flow.GetReferrals(context.Background(), "tok-1", false)
	require.NoError(t, err)
	assert.False(t, out.Placeholder)
	require.Len(t, out.Referrals, 1)
	assert.Equal(t, "Acme", out.Referrals[0].CompanyName)
}

func TestGetReferralsPlaceholderNotCached(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	flow, hits := newDashboardFlow(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[{"id":9,"company_name":"Acme"}]`))
	})
	ctx := context.Background()

	out, err := flow.GetReferrals(ctx, "tok-1", false)
	require.NoError(t, err)
	assert.True(t, out.Placeholder)

	// Upstream recovers; the placeholder must not mask it.
	fail.Store(false)
	out, err = flow.GetReferrals(ctx, "tok-1", false)
	require.NoError(t, err)
	assert.False(t, out.Placeholder)
	assert.Equal(t, int64(2), hits.Load())
}

func TestDashboardHonorsContextCancellation(t *testing.T) {
	release := make(chan struct{})
	flow, _ := newDashboardFlow(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := flow.GetReferrals(ctx, "tok-1", false)
	assert.ErrorIs(t, err, context.Canceled)
}
