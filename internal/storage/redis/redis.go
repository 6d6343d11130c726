// Package redis keeps the account namespace in Redis. Records never expire.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lugondev/go-tokengate/internal/config"
	"github.com/lugondev/go-tokengate/internal/storage"
)

const defaultKeyPrefix = "tokengate:account:"

// allocateScript stores the record and its owner index entry in one step.
// KEYS[1] = account key
// KEYS[2] = owner index key
// ARGV[1] = account payload
// ARGV[2] = index score (created_at, unix nanoseconds)
// ARGV[3] = account address
// Returns 1 when stored, 0 when the account key already exists.
var allocateScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
    return 0
end

-- Fail before writing anything if the index cannot take a ZADD
local indexType = redis.call("TYPE", KEYS[2]).ok
if indexType ~= "none" and indexType ~= "zset" then
    return redis.error_reply("WRONGTYPE owner index " .. KEYS[2])
end

redis.call("SET", KEYS[1], ARGV[1])
redis.call("ZADD", KEYS[2], ARGV[2], ARGV[3])
return 1
`)

func init() {
	storage.RegisterFactory(storage.DatabaseTypeRedis, func(ctx context.Context, cfg *config.DatabaseConfig) (storage.Repository, error) {
		repo, err := NewRedisRepository(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis repository: %w", err)
		}
		return repo, nil
	})
}

type RedisRepository struct {
	client      *redis.Client
	accountRepo *redisAccountRepository
}

func NewRedisRepository(ctx context.Context, cfg *config.RedisConfig) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewWithClient(client, cfg.KeyPrefix), nil
}

// NewWithClient wraps a configured client. An empty prefix selects the default.
func NewWithClient(client *redis.Client, keyPrefix string) *RedisRepository {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisRepository{
		client:      client,
		accountRepo: &redisAccountRepository{client: client, prefix: keyPrefix},
	}
}

func (r *RedisRepository) Accounts() storage.AccountRepository {
	return r.accountRepo
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

type redisAccountRepository struct {
	client *redis.Client
	prefix string
}

func (r *redisAccountRepository) accountKey(address string) string {
	return r.prefix + address
}

func (r *redisAccountRepository) ownerKey(owner string) string {
	return r.prefix + "owner:" + owner
}

// Allocate stores the record and indexes it under its owner atomically.
// Either both keys are written or neither is.
func (r *redisAccountRepository) Allocate(ctx context.Context, account *storage.AccountModel) error {
	payload, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}

	keys := []string{r.accountKey(account.Address), r.ownerKey(account.Owner)}
	stored, err := allocateScript.Run(ctx, r.client, keys,
		string(payload),
		account.CreatedAt.UnixNano(),
		account.Address,
	).Int()
	if err != nil {
		return fmt.Errorf("allocate account: %w", err)
	}
	if stored == 0 {
		return storage.ErrAccountExists
	}
	return nil
}

func (r *redisAccountRepository) FindByAddress(ctx context.Context, address string) (*storage.AccountModel, error) {
	data, err := r.client.Get(ctx, r.accountKey(address)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	var account storage.AccountModel
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &account, nil
}

func (r *redisAccountRepository) FindByOwner(ctx context.Context, owner string, limit int, offset int) ([]*storage.AccountModel, error) {
	if limit <= 0 {
		return nil, nil
	}

	addresses, err := r.client.ZRevRange(ctx, r.ownerKey(owner), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list owner index: %w", err)
	}
	if len(addresses) == 0 {
		return nil, nil
	}

	keys := make([]string, len(addresses))
	for i, address := range addresses {
		keys[i] = r.accountKey(address)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	accounts := make([]*storage.AccountModel, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var account storage.AccountModel
		if err := json.Unmarshal([]byte(raw), &account); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		accounts = append(accounts, &account)
	}
	return accounts, nil
}
