package connections

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultPresenceKey prefixes every presence key in redis
const DefaultPresenceKey = "presence:online"

// DefaultPresenceTTL is how long an instance's claim on a user survives
// without a heartbeat
const DefaultPresenceTTL = 30 * time.Second

// NewRedisClient creates a redis client and checks that it answers
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 10,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}

// RedisPresence is a PresenceStore shared by every instance pointing at
// the same redis.
//
// Each user has a sorted set of the instances holding a socket for them,
// scored by the unix millisecond at which the claim lapses. The key itself
// is a sorted set of user ids scored the same way, so Members can find
// candidates without scanning. A claim that is not refreshed within the TTL
// no longer counts, so a crashed instance cannot keep its users online.
type RedisPresence struct {
	rdb      redis.UniversalClient
	key      string
	instance string
	ttl      time.Duration
	now      func() time.Time
}

// NewRedisPresence returns a presence store on key for this instance.
// Empty arguments fall back to DefaultPresenceKey, a random instance id and
// DefaultPresenceTTL.
func NewRedisPresence(rdb redis.UniversalClient, key, instance string, ttl time.Duration) *RedisPresence {
	if key == "" {
		key = DefaultPresenceKey
	}
	if instance == "" {
		instance = uuid.New().String()
	}
	if ttl <= 0 {
		ttl = DefaultPresenceTTL
	}
	return &RedisPresence{rdb: rdb, key: key, instance: instance, ttl: ttl, now: time.Now}
}

// Instance is the id this store claims users under
func (p *RedisPresence) Instance() string {
	return p.instance
}

// TTL is how long a claim lasts without a refresh
func (p *RedisPresence) TTL() time.Duration {
	return p.ttl
}

func (p *RedisPresence) userKey(userID string) string {
	return p.key + ":" + userID
}

func (p *RedisPresence) claim(ctx context.Context, pipe redis.Pipeliner, userID string, now time.Time) {
	expires := float64(now.Add(p.ttl).UnixMilli())
	uk := p.userKey(userID)
	pipe.ZAdd(ctx, uk, redis.Z{Score: expires, Member: p.instance})
	pipe.ZRemRangeByScore(ctx, uk, "-inf", strconv.FormatInt(now.UnixMilli(), 10))
	pipe.PExpire(ctx, uk, p.ttl)
	pipe.ZAddGT(ctx, p.key, redis.Z{Score: expires, Member: userID})
}

// Add claims userID for this instance until the TTL runs out
func (p *RedisPresence) Add(ctx context.Context, userID string) error {
	return p.Refresh(ctx, []string{userID})
}

// Refresh renews this instance's claim on every id in userIDs
func (p *RedisPresence) Refresh(ctx context.Context, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	now := p.now()
	_, err := p.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			p.claim(ctx, pipe, id, now)
		}
		return nil
	})
	return err
}

// Remove drops this instance's claim on userID. Claims held by other
// instances are left alone.
func (p *RedisPresence) Remove(ctx context.Context, userID string) error {
	return p.rdb.ZRem(ctx, p.userKey(userID), p.instance).Err()
}

// Contains reports whether any instance holds a live claim on userID
func (p *RedisPresence) Contains(ctx context.Context, userID string) (bool, error) {
	n, err := p.rdb.ZCount(ctx, p.userKey(userID), p.liveFrom(), "+inf").Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Members lists every user with a live claim on some instance
func (p *RedisPresence) Members(ctx context.Context) ([]string, error) {
	now := strconv.FormatInt(p.now().UnixMilli(), 10)
	from := "(" + now
	if err := p.rdb.ZRemRangeByScore(ctx, p.key, "-inf", now).Err(); err != nil {
		return nil, err
	}
	candidates, err := p.rdb.ZRangeByScore(ctx, p.key, &redis.ZRangeBy{Min: from, Max: "+inf"}).Result()
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	counts := make([]*redis.IntCmd, len(candidates))
	_, err = p.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range candidates {
			counts[i] = pipe.ZCount(ctx, p.userKey(id), from, "+inf")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	members := make([]string, 0, len(candidates))
	for i, id := range candidates {
		if counts[i].Val() > 0 {
			members = append(members, id)
		}
	}
	return members, nil
}

// liveFrom is the exclusive lower score bound of a claim that has not lapsed
func (p *RedisPresence) liveFrom() string {
	return "(" + strconv.FormatInt(p.now().UnixMilli(), 10)
}
