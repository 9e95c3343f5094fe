package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTTL     = 24 * time.Hour
	maxTxAttempts  = 3
	redisKeyPrefix = "wizard:"
)

// RedisStore keeps sessions as JSON snapshots with a TTL. Update runs under
// WATCH so a concurrent Open or answer aborts the write instead of clobbering it.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("wizard: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("ayurdiet.internal.wizard.store")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{redis: client, tracer: tracer, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, patientID string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "wizard.get_session")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(patientID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		span.RecordError(err)
		return nil, fmt.Errorf("wizard: failed to load session: %w", err)
	}
	return decodeSession(data)
}

func (s *RedisStore) Put(ctx context.Context, sess *Session) error {
	ctx, span := s.tracer.Start(ctx, "wizard.put_session")
	defer span.End()

	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("wizard: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.PatientID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("wizard: failed to persist session: %w", err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, patientID, token string, fn func(*Session) error) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "wizard.update_session")
	defer span.End()

	key := sessionKey(patientID)
	var updated *Session
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNoSession
			}
			return fmt.Errorf("wizard: failed to load session: %w", err)
		}
		sess, err := decodeSession(data)
		if err != nil {
			return err
		}
		if sess.Token != token {
			return ErrStaleToken
		}
		if err := fn(sess); err != nil {
			return err
		}
		out, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("wizard: failed to marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl)
			return nil
		})
		if err == nil {
			updated = sess
		}
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.redis.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			span.RecordError(err)
			return nil, err
		}
	}
	span.RecordError(redis.TxFailedErr)
	return nil, ErrStaleToken
}

func decodeSession(data []byte) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func sessionKey(patientID string) string {
	return redisKeyPrefix + patientID
}
