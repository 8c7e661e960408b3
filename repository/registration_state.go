// Package repository provides data access layer implementations and interfaces for signup state storage
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/referralpro/funnel/models"
	"github.com/referralpro/funnel/utils"
)

// RegistrationStateRepository defines operations for the durable signup state:
// the registration record blob and the per-session signup scope flag.
//
// The blob and the flag carry independent lifetimes. The flag marks an active
// signup scope; while it is absent the blob must be neither read nor written.
type RegistrationStateRepository interface {
	SaveRecord(ctx context.Context, sessionID string, record *models.RegistrationRecord, ttl time.Duration) error
	LoadRecord(ctx context.Context, sessionID string) (*models.RegistrationRecord, error)
	DeleteRecord(ctx context.Context, sessionID string) error

	ActivateScope(ctx context.Context, sessionID string, ttl time.Duration) error
	DeactivateScope(ctx context.Context, sessionID string) error
	ScopeActive(ctx context.Context, sessionID string) (bool, error)
}

type registrationStateRepository struct {
	rc *redis.Client
}

// NewRegistrationStateRepository creates a redis-backed registration state repository.
func NewRegistrationStateRepository(rc *redis.Client) RegistrationStateRepository {
	return &registrationStateRepository{rc: rc}
}

func recordKey(sessionID string) string {
	return utils.RegistrationRecordKeyPrefix + sessionID
}

func scopeKey(sessionID string) string {
	return utils.SignupScopeKeyPrefix + sessionID
}

// SaveRecord writes the record blob. The caller is responsible for checking
// the scope first; writes while inactive are a contract violation.
func (r *registrationStateRepository) SaveRecord(ctx context.Context, sessionID string, record *models.RegistrationRecord, ttl time.Duration) error {
	bs, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal registration record: %w", err)
	}
	if err := r.rc.Set(ctx, recordKey(sessionID), bs, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save registration record: %w", err)
	}
	return nil
}

// LoadRecord reads the record blob. A missing blob returns (nil, nil).
func (r *registrationStateRepository) LoadRecord(ctx context.Context, sessionID string) (*models.RegistrationRecord, error) {
	bs, err := r.rc.Get(ctx, recordKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load registration record: %w", err)
	}
	var record models.RegistrationRecord
	if err := json.Unmarshal(bs, &record); err != nil {
		// A corrupt blob is unrecoverable; treat it as absent.
		return nil, nil
	}
	return &record, nil
}

func (r *registrationStateRepository) DeleteRecord(ctx context.Context, sessionID string) error {
	if err := r.rc.Del(ctx, recordKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete registration record: %w", err)
	}
	return nil
}

func (r *registrationStateRepository) ActivateScope(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := r.rc.Set(ctx, scopeKey(sessionID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to activate signup scope: %w", err)
	}
	return nil
}

func (r *registrationStateRepository) DeactivateScope(ctx context.Context, sessionID string) error {
	if err := r.rc.Del(ctx, scopeKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to deactivate signup scope: %w", err)
	}
	return nil
}

func (r *registrationStateRepository) ScopeActive(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.rc.Exists(ctx, scopeKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check signup scope: %w", err)
	}
	return n > 0, nil
}
