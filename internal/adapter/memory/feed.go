package memory

import (
	"context"
	"sync"

	"technowear/internal/domain"
)

type subscription struct {
	table  string
	userID string
	fn     func(domain.Change)
}

// Feed is an in-process change feed.
type Feed struct {
	mu     sync.Mutex
	subs   map[uint64]subscription
	nextID uint64
}

var _ domain.ChangeFeed = (*Feed)(nil)

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[uint64]subscription)}
}

// Publish delivers c to matching subscribers synchronously.
func (f *Feed) Publish(ctx context.Context, c domain.Change) error {
	f.mu.Lock()
	var fns []func(domain.Change)
	for _, s := range f.subs {
		if s.table == c.Table && s.userID == c.UserID {
			fns = append(fns, s.fn)
		}
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
	return nil
}

// Subscribe registers fn for changes to table rows owned by userID.
func (f *Feed) Subscribe(table, userID string, fn func(domain.Change)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	f.subs[id] = subscription{table: table, userID: userID, fn: fn}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}, nil
}
