package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"signvault/config"
	"signvault/internal/model"
	"signvault/internal/util"
)

// versionTTL : версия должна жить дольше любого чтения из БД, которое может закончиться записью в кэш
const versionTTL = 24 * time.Hour

var errStaleVersion = errors.New("версия документа в кэше изменилась")

type CacheRepository struct {
	client *config.RedisClient
	ttl    time.Duration
}

func NewCacheRepository(rdb *config.RedisClient, ttl time.Duration) *CacheRepository {
	return &CacheRepository{rdb, ttl}
}

// SetDocument : WATCH на ключ версии, SET выполняется только если версия не изменилась
func (r *CacheRepository) SetDocument(ctx context.Context, document *model.Document, version int64) (bool, error) {
	data, err := json.Marshal(document)
	if err != nil {
		return false, util.LogError("[CacheRepo] ошибка сериализации документа", err)
	}

	versionKey := r.versionKey(document.UUID)
	err = r.client.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleVersion
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key(document.UUID), data, r.ttl)
			return nil
		})
		return err
	}, versionKey)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStaleVersion), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, util.LogError("[CacheRepo] ошибка сохранения в Redis", err)
	}
}

// GetDocument : nil, version, nil если документа нет в кэше
func (r *CacheRepository) GetDocument(ctx context.Context, uuid string) (*model.Document, int64, error) {
	values, err := r.client.Client.MGet(ctx, r.key(uuid), r.versionKey(uuid)).Result()
	if err != nil {
		return nil, 0, util.LogError("[CacheRepo] ошибка получения документа из Redis", err)
	}

	var version int64
	if raw, ok := values[1].(string); ok {
		if version, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, 0, util.LogError("[CacheRepo] неверная версия документа в кэше", err)
		}
	}

	raw, ok := values[0].(string)
	if !ok {
		return nil, version, nil
	}

	var document model.Document
	if err := json.Unmarshal([]byte(raw), &document); err != nil {
		return nil, version, util.LogError("[CacheRepo] ошибка десериализации документа из кэша", err)
	}
	return &document, version, nil
}

// DeleteDocument : удаляет документ и увеличивает версию, незавершённые записи старой версии отбрасываются
func (r *CacheRepository) DeleteDocument(ctx context.Context, uuid string) error {
	_, err := r.client.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, r.versionKey(uuid))
		pipe.Expire(ctx, r.versionKey(uuid), versionTTL)
		pipe.Del(ctx, r.key(uuid))
		return nil
	})
	if err != nil {
		return util.LogError("[CacheRepo] ошибка удаления документа из Redis", err)
	}
	return nil
}

func (r *CacheRepository) key(uuid string) string {
	return fmt.Sprintf("document:%s", uuid)
}

func (r *CacheRepository) versionKey(uuid string) string {
	return fmt.Sprintf("document:%s:version", uuid)
}
