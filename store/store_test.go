package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/referralpro/funnel/models"
	"github.com/referralpro/funnel/repository"
	"github.com/referralpro/funnel/utils"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	repo := repository.NewRegistrationStateRepository(rc)
	return New("sess-1", repo), mr
}

func TestStartSignupActivatesScopeAndPersistsDefaults(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StartSignup(ctx))

	assert.True(t, mr.Exists(utils.SignupScopeKeyPrefix+"sess-1"))
	assert.True(t, mr.Exists(utils.RegistrationRecordKeyPrefix+"sess-1"))

	rec := s.Record()
	assert.Equal(t, models.BizTypeSole, rec.BizType)
	assert.Empty(t, rec.ProfileType)
}

func TestUpdateRecordMergesAndPersists(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.StartSignup(ctx))

	rec := s.UpdateRecord(ctx, func(r *models.RegistrationRecord) {
		r.FirstName = "Dana"
		r.Email = "dana@example.com"
	})
	assert.Equal(t, "Dana", rec.FirstName)

	// A later merge must not disturb earlier fields.
	rec = s.UpdateRecord(ctx, func(r *models.RegistrationRecord) {
		r.City = "Austin"
	})
	assert.Equal(t, "Dana", rec.FirstName)
	assert.Equal(t, "dana@example.com", rec.Email)
	assert.Equal(t, "Austin", rec.City)
}

func TestHydrateRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	repo := repository.NewRegistrationStateRepository(rc)
	ctx := context.Background()

	first := New("sess-2", repo)
	require.NoError(t, first.StartSignup(ctx))
	first.UpdateRecord(ctx, func(r *models.RegistrationRecord) {
		r.FirstName = "Lee"
		r.ProfileType = models.ProfileTypeCompany
		r.CompanyName = "Acme"
	})

	// A fresh store for the same session picks the record back up.
	second := New("sess-2", repo)
	second.Hydrate(ctx)
	rec := second.Record()
	assert.Equal(t, "Lee", rec.FirstName)
	assert.Equal(t, "Acme", rec.CompanyName)
}

func TestHydrateIgnoresBlobWhenScopeInactive(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	repo := repository.NewRegistrationStateRepository(rc)
	ctx := context.Background()

	first := New("sess-3", repo)
	require.NoError(t, first.StartSignup(ctx))
	first.UpdateRecord(ctx, func(r *models.RegistrationRecord) { r.FirstName = "Lee" })

	// Scope gone, blob still present: hydration must not read it.
	mr.Del(utils.SignupScopeKeyPrefix + "sess-3")

	second := New("sess-3", repo)
	second.Hydrate(ctx)
	assert.Empty(t, second.Record().FirstName)
}

func TestUpdateSurvivesPersistFailure(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.StartSignup(ctx))

	mr.Close()

	rec := s.UpdateRecord(ctx, func(r *models.RegistrationRecord) {
		r.FirstName = "Kim"
	})
	assert.Equal(t, "Kim", rec.FirstName)
	assert.Equal(t, "Kim", s.Record().FirstName)
}

func TestFinishSignupClear(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.StartSignup(ctx))
	s.UpdateRecord(ctx, func(r *models.RegistrationRecord) { r.FirstName = "Ana" })
	s.SetPassword("secret")
	s.SetTempToken("tok")

	s.FinishSignup(ctx, true)

	assert.False(t, mr.Exists(utils.SignupScopeKeyPrefix+"sess-1"))
	assert.False(t, mr.Exists(utils.RegistrationRecordKeyPrefix+"sess-1"))
	assert.Empty(t, s.Record().FirstName)
	assert.Empty(t, s.Password())
	assert.Empty(t, s.TempToken())
}

func TestFinishSignupPreservesRecord(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.StartSignup(ctx))
	s.UpdateRecord(ctx, func(r *models.RegistrationRecord) { r.FirstName = "Ana" })
	s.SetPassword("secret")

	s.FinishSignup(ctx, false)

	assert.False(t, mr.Exists(utils.SignupScopeKeyPrefix+"sess-1"))
	assert.True(t, mr.Exists(utils.RegistrationRecordKeyPrefix+"sess-1"))
	assert.Equal(t, "Ana", s.Record().FirstName)
	assert.Empty(t, s.Password())
}

func TestPasswordNeverPersisted(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.StartSignup(ctx))
	s.SetPassword("hunter2-long")
	s.UpdateRecord(ctx, func(r *models.RegistrationRecord) { r.FirstName = "Ana" })

	blob, err := mr.Get(utils.RegistrationRecordKeyPrefix + "sess-1")
	require.NoError(t, err)
	assert.NotContains(t, blob, "hunter2-long")
}

func TestSubmissionGuard(t *testing.T) {
	s, _ := newTestStore(t)

	assert.True(t, s.TryBeginSubmission())
	assert.False(t, s.TryBeginSubmission())
	s.EndSubmission()
	assert.True(t, s.TryBeginSubmission())
}

func TestManagerReturnsSameStorePerSession(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	m := NewManager(repository.NewRegistrationStateRepository(rc))

	a := m.Get("x")
	b := m.Get("x")
	assert.Same(t, a, b)
	assert.NotSame(t, a, m.Get("y"))

	m.Drop("x")
	assert.NotSame(t, a, m.Get("x"))
}
