package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"lexdraft/internal/profile/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
)

const (
	// Redis key prefix for profile documents
	profileKeyPrefix = "profile:"
	// Hash of profile ID to listing summary
	summaryKey = "profiles:summary"

	maxUpdateAttempts = 3
)

// RedisStore keeps each profile as a JSON string and a listing row in one
// summary hash.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func profileKey(profileID id.ProfileID) string {
	return profileKeyPrefix + profileID.String()
}

func (s *RedisStore) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	out := forCreate(ctx, p)
	doc, err := encode(out)
	if err != nil {
		return nil, err
	}
	summary, err := json.Marshal(out.Summary())
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	created, err := s.client.SetNX(ctx, profileKey(out.ID), doc, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("store profile: %w", err)
	}
	if !created {
		return nil, sentinel.ErrConflict
	}
	if err := s.client.HSet(ctx, summaryKey, out.ID.String(), summary).Err(); err != nil {
		return nil, fmt.Errorf("store profile summary: %w", err)
	}
	return out, nil
}

func (s *RedisStore) Get(ctx context.Context, profileID id.ProfileID) (*models.Profile, error) {
	raw, err := s.client.Get(ctx, profileKey(profileID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return decode(raw)
}

// Update reads the creation time and writes the new document under WATCH, so
// a concurrent delete is not resurrected. A lost race is retried.
func (s *RedisStore) Update(ctx context.Context, profileID id.ProfileID, p *models.Profile) (*models.Profile, error) {
	key := profileKey(profileID)
	var out *models.Profile
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return err
		}
		existing, err := decode(raw)
		if err != nil {
			return err
		}
		out = forUpdate(ctx, profileID, p, existing.CreatedAt)
		doc, err := encode(out)
		if err != nil {
			return err
		}
		summary, err := json.Marshal(out.Summary())
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, doc, 0)
			pipe.HSet(ctx, summaryKey, profileID.String(), summary)
			return nil
		})
		return err
	}

	for range maxUpdateAttempts {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("update profile: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("update profile: %w", sentinel.ErrConflict)
}

func (s *RedisStore) Delete(ctx context.Context, profileID id.ProfileID) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, profileKey(profileID))
		pipe.HDel(ctx, summaryKey, profileID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if del.Val() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]models.ProfileSummary, error) {
	rows, err := s.client.HGetAll(ctx, summaryKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	out := make([]models.ProfileSummary, 0, len(rows))
	for _, raw := range rows {
		var sum models.ProfileSummary
		if err := json.Unmarshal([]byte(raw), &sum); err != nil {
			return nil, fmt.Errorf("%w: decode summary: %v", sentinel.ErrInvalidState, err)
		}
		out = append(out, sum)
	}
	sortSummaries(out)
	return out, nil
}
