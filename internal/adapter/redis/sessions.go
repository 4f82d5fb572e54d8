package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"technowear/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func sessionKey(sid string) string     { return "session:" + sid }
func sessionChannel(sid string) string { return "session:events:" + sid }

// SessionStore keeps sessions as JSON values that expire with the session.
type SessionStore struct {
	rdb    *redis.Client
	maxTTL time.Duration
	log    *zap.SugaredLogger
	now    func() time.Time
}

var _ domain.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a store. No key lives longer than maxTTL.
func NewSessionStore(rdb *redis.Client, maxTTL time.Duration, log *zap.SugaredLogger) *SessionStore {
	return &SessionStore{rdb: rdb, maxTTL: maxTTL, log: log, now: time.Now}
}

// Load returns the stored session, or nil.
func (s *SessionStore) Load(ctx context.Context, sid string) (*domain.Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Save stores the session and announces it to watchers.
func (s *SessionStore) Save(ctx context.Context, sid string, sess *domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ttl := keyTTL(sess.ExpiresAt, s.now(), s.maxTTL)
	if ttl <= 0 {
		return s.Delete(ctx, sid)
	}
	if err := s.rdb.Set(ctx, sessionKey(sid), raw, ttl).Err(); err != nil {
		return err
	}
	return s.rdb.Publish(ctx, sessionChannel(sid), raw).Err()
}

// Delete removes the session and announces the sign-out.
func (s *SessionStore) Delete(ctx context.Context, sid string) error {
	if err := s.rdb.Del(ctx, sessionKey(sid)).Err(); err != nil {
		return err
	}
	return s.rdb.Publish(ctx, sessionChannel(sid), "null").Err()
}

// Watch subscribes fn to changes of sid. Messages are delivered from a
// single goroutine in publish order.
func (s *SessionStore) Watch(sid string, fn func(*domain.Session)) func() {
	pubsub, err := subscribe(s.rdb, sessionChannel(sid))
	if err != nil {
		s.log.Errorw("session subscribe failed", "sid", sid, "error", err)
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range pubsub.Channel() {
			sess, err := decodeSessionEvent(msg.Payload)
			if err != nil {
				s.log.Warnw("bad session event", "sid", sid, "error", err)
				continue
			}
			fn(sess)
		}
	}()

	return func() {
		_ = pubsub.Close()
		<-done
	}
}

func decodeSessionEvent(payload string) (*domain.Session, error) {
	if payload == "null" {
		return nil, nil
	}
	var sess domain.Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// keyTTL bounds the key lifetime by both the session expiry and maxTTL.
func keyTTL(expiresAt, now time.Time, maxTTL time.Duration) time.Duration {
	ttl := expiresAt.Sub(now)
	if maxTTL > 0 && (ttl > maxTTL || expiresAt.IsZero()) {
		return maxTTL
	}
	return ttl
}
