package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pesa-smart-plan/internal/data/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// consumeCodeScript takes the newest unexpired code id indexed under a value
// and deletes its record in one step. KEYS are the value index and the
// contact index; ARGV is now in ms and the record key prefix. It returns
// {id, exp, created} or nil.
var consumeCodeScript = redis.NewScript(`
local ids = redis.call("ZREVRANGE", KEYS[1], 0, -1)
for _, id in ipairs(ids) do
  local rec = ARGV[2] .. id
  local exp = redis.call("HGET", rec, "exp")
  if not exp then
    redis.call("ZREM", KEYS[1], id)
  elseif tonumber(exp) > tonumber(ARGV[1]) then
    local created = redis.call("HGET", rec, "created")
    redis.call("DEL", rec)
    redis.call("ZREM", KEYS[1], id)
    redis.call("SREM", KEYS[2], id)
    return {id, exp, created}
  end
end
return false
`)

const codeRecordPrefix = "otp:code:"

type redisCodeRepository struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisCodeRepository stores one hash per code id. Two sets point at them:
// a sorted set per (contact, channel, value) ordered by creation and a set per
// (contact, channel) for invalidation. Every key expires on its own, so
// DeleteExpired has nothing to do.
func NewRedisCodeRepository(client *redis.Client, log *zap.Logger) CodeRepository {
	return &redisCodeRepository{
		client: client,
		log:    log.With(zap.String("repository", "verification_code_redis")),
	}
}

func codeRecordKey(id string) string {
	return codeRecordPrefix + id
}

func codeValueKey(contact string, channel entity.Channel, code string) string {
	return "otp:val:" + string(channel) + ":" + contact + ":" + code
}

func codeIndexKey(contact string, channel entity.Channel) string {
	return "otp:idx:" + string(channel) + ":" + contact
}

func (r *redisCodeRepository) Create(ctx context.Context, code *entity.VerificationCode) error {
	ttl := code.ExpiresAt.Sub(code.CreatedAt)
	if ttl <= 0 {
		ttl = time.Millisecond
	}

	id := code.ID.String()
	rec := codeRecordKey(id)
	val := codeValueKey(code.Contact, code.Channel, code.Code)
	idx := codeIndexKey(code.Contact, code.Channel)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, rec, map[string]any{
			"code":    code.Code,
			"exp":     code.ExpiresAt.UnixMilli(),
			"created": code.CreatedAt.UnixMilli(),
		})
		pipe.PExpire(ctx, rec, ttl)
		pipe.ZAdd(ctx, val, redis.Z{Score: float64(code.CreatedAt.UnixMilli()), Member: id})
		pipe.PExpire(ctx, val, ttl)
		pipe.SAdd(ctx, idx, id)
		pipe.PExpire(ctx, idx, ttl)
		return nil
	})
	if err != nil {
		r.log.Error("Failed to store verification code",
			zap.Error(err),
			zap.String("contact", code.Contact),
			zap.String("channel", string(code.Channel)),
		)
		return fmt.Errorf("store verification code for %s: %w", code.Contact, err)
	}

	return nil
}

func (r *redisCodeRepository) Consume(ctx context.Context, contact string, channel entity.Channel, code string, now time.Time) (*entity.VerificationCode, error) {
	keys := []string{codeValueKey(contact, channel, code), codeIndexKey(contact, channel)}

	res, err := consumeCodeScript.Run(ctx, r.client, keys, now.UnixMilli(), codeRecordPrefix).Slice()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to consume verification code",
			zap.Error(err),
			zap.String("contact", contact),
			zap.String("channel", string(channel)),
		)
		return nil, fmt.Errorf("consume verification code for %s: %w", contact, err)
	}

	c, err := decodeConsumed(res)
	if err != nil {
		return nil, fmt.Errorf("decode verification code for %s: %w", contact, err)
	}
	usedAt := now
	c.Contact = contact
	c.Channel = channel
	c.Code = code
	c.Used = true
	c.UsedAt = &usedAt
	return c, nil
}

func decodeConsumed(res []any) (*entity.VerificationCode, error) {
	if len(res) != 3 {
		return nil, fmt.Errorf("unexpected reply length %d", len(res))
	}

	fields := make([]string, len(res))
	for i, v := range res {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected reply type %T", v)
		}
		fields[i] = s
	}

	id, err := uuid.Parse(fields[0])
	if err != nil {
		return nil, err
	}
	exp, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, err
	}
	created, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, err
	}

	c := &entity.VerificationCode{ExpiresAt: time.UnixMilli(exp)}
	c.ID = id
	c.CreatedAt = time.UnixMilli(created)
	return c, nil
}

func (r *redisCodeRepository) InvalidateActive(ctx context.Context, contact string, channel entity.Channel, _ time.Time) (int64, error) {
	idx := codeIndexKey(contact, channel)

	ids, err := r.client.SMembers(ctx, idx).Result()
	if err != nil {
		r.log.Error("Failed to list verification codes", zap.Error(err), zap.String("contact", contact))
		return 0, fmt.Errorf("list codes for %s: %w", contact, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	records := make([]string, len(ids))
	values := make([]*redis.StringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			records[i] = codeRecordKey(id)
			values[i] = pipe.HGet(ctx, records[i], "code")
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		r.log.Error("Failed to read verification codes", zap.Error(err), zap.String("contact", contact))
		return 0, fmt.Errorf("read codes for %s: %w", contact, err)
	}

	n, err := r.client.Del(ctx, records...).Result()
	if err != nil {
		r.log.Error("Failed to invalidate verification codes", zap.Error(err), zap.String("contact", contact))
		return 0, fmt.Errorf("invalidate codes for %s: %w", contact, err)
	}

	stale := []string{idx}
	for _, cmd := range values {
		if v, err := cmd.Result(); err == nil {
			stale = append(stale, codeValueKey(contact, channel, v))
		}
	}
	if err := r.client.Del(ctx, stale...).Err(); err != nil {
		r.log.Warn("Failed to drop code indexes", zap.Error(err), zap.String("contact", contact))
	}

	return n, nil
}

func (r *redisCodeRepository) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
