package redis

import (
	"context"
	"encoding/json"

	"technowear/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func changeChannel(table, userID string) string {
	return "changes:" + table + ":" + userID
}

// Feed publishes row changes on one channel per table and user.
type Feed struct {
	rdb *redis.Client
	log *zap.SugaredLogger
}

var _ domain.ChangeFeed = (*Feed)(nil)

// NewFeed creates a Redis-backed change feed.
func NewFeed(rdb *redis.Client, log *zap.SugaredLogger) *Feed {
	return &Feed{rdb: rdb, log: log}
}

// Publish sends c to every instance subscribed to its table and user.
func (f *Feed) Publish(ctx context.Context, c domain.Change) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return f.rdb.Publish(ctx, changeChannel(c.Table, c.UserID), data).Err()
}

// Subscribe delivers changes of table rows owned by userID to fn.
func (f *Feed) Subscribe(table, userID string, fn func(domain.Change)) (func(), error) {
	pubsub, err := subscribe(f.rdb, changeChannel(table, userID))
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range pubsub.Channel() {
			var c domain.Change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				f.log.Warnw("bad change event", "channel", msg.Channel, "error", err)
				continue
			}
			fn(c)
		}
	}()

	return func() {
		_ = pubsub.Close()
		<-done
	}, nil
}
