package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"sampletrack/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const presenceKeyPrefix = "presence:"

// redisPresenceStore keeps, per sample, a sorted set of member ids scored by
// expiry (unix millis) and a hash of member id to the JSON row.
type redisPresenceStore struct {
	rdb *redis.Client
}

func NewRedisPresenceStore(rdb *redis.Client) PresenceStore {
	return &redisPresenceStore{rdb: rdb}
}

func presenceKeys(sampleID uuid.UUID) (zset, hash string) {
	base := presenceKeyPrefix + sampleID.String()
	return base + ":exp", base + ":rows"
}

func presenceMember(userID uuid.UUID, presenceContext string) string {
	return userID.String() + "|" + presenceContext
}

func (s *redisPresenceStore) Upsert(ctx context.Context, p *model.SamplePresence) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode presence: %w", err)
	}
	zkey, hkey := presenceKeys(p.SampleID)
	member := presenceMember(p.UserID, p.Context)

	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, zkey, redis.Z{Score: float64(p.ExpiresAt.UnixMilli()), Member: member})
	pipe.HSet(ctx, hkey, member, payload)
	pipe.SAdd(ctx, presenceKeyPrefix+"samples", p.SampleID.String())
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisPresenceStore) Delete(ctx context.Context, sampleID, userID uuid.UUID, presenceContext string) error {
	zkey, hkey := presenceKeys(sampleID)
	if presenceContext != "" {
		member := presenceMember(userID, presenceContext)
		pipe := s.rdb.TxPipeline()
		pipe.ZRem(ctx, zkey, member)
		pipe.HDel(ctx, hkey, member)
		_, err := pipe.Exec(ctx)
		return err
	}

	members, err := s.rdb.ZRange(ctx, zkey, 0, -1).Result()
	if err != nil {
		return err
	}
	prefix := userID.String() + "|"
	var mine []string
	for _, m := range members {
		if strings.HasPrefix(m, prefix) {
			mine = append(mine, m)
		}
	}
	if len(mine) == 0 {
		return nil
	}
	asAny := make([]any, len(mine))
	for i, m := range mine {
		asAny[i] = m
	}
	pipe := s.rdb.TxPipeline()
	pipe.ZRem(ctx, zkey, asAny...)
	pipe.HDel(ctx, hkey, mine...)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisPresenceStore) ListActive(ctx context.Context, sampleIDs []uuid.UUID, now time.Time) ([]model.SamplePresence, error) {
	rows := []model.SamplePresence{}
	lo := "(" + strconv.FormatInt(now.UnixMilli(), 10)
	for _, id := range sampleIDs {
		zkey, hkey := presenceKeys(id)
		members, err := s.rdb.ZRangeByScore(ctx, zkey, &redis.ZRangeBy{Min: lo, Max: "+inf"}).Result()
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			continue
		}
		vals, err := s.rdb.HMGet(ctx, hkey, members...).Result()
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			str, ok := v.(string)
			if !ok {
				continue
			}
			var p model.SamplePresence
			if err := json.Unmarshal([]byte(str), &p); err != nil {
				return nil, fmt.Errorf("decode presence: %w", err)
			}
			rows = append(rows, p)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].LastSeenAt.After(rows[j].LastSeenAt) })
	return rows, nil
}

func (s *redisPresenceStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ids, err := s.rdb.SMembers(ctx, presenceKeyPrefix+"samples").Result()
	if err != nil {
		return 0, err
	}
	hi := strconv.FormatInt(now.UnixMilli(), 10)
	var removed int64
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		zkey, hkey := presenceKeys(id)
		expired, err := s.rdb.ZRangeByScore(ctx, zkey, &redis.ZRangeBy{Min: "-inf", Max: hi}).Result()
		if err != nil {
			return removed, err
		}
		if len(expired) > 0 {
			pipe := s.rdb.TxPipeline()
			pipe.ZRemRangeByScore(ctx, zkey, "-inf", hi)
			pipe.HDel(ctx, hkey, expired...)
			if _, err := pipe.Exec(ctx); err != nil {
				return removed, err
			}
			removed += int64(len(expired))
		}
		if n, err := s.rdb.ZCard(ctx, zkey).Result(); err == nil && n == 0 {
			s.rdb.SRem(ctx, presenceKeyPrefix+"samples", raw)
		}
	}
	return removed, nil
}
