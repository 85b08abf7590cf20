package docstore

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Subscription is a live query. Snapshots yields the full result set after
// every change, latest-wins: a slow consumer sees the newest snapshot, never
// a backlog. Unsubscribe is synchronous and idempotent; no snapshot is
// delivered after it returns, and the channel is closed.
type Subscription interface {
	Snapshots() <-chan []Document
	Unsubscribe()
}

type liveSubscription struct {
	out  chan []Document
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func (l *liveSubscription) Snapshots() <-chan []Document { return l.out }

func (l *liveSubscription) Unsubscribe() {
	l.once.Do(func() { close(l.stop) })
	<-l.done
}

// Watch opens a live query over a collection. The first snapshot is pushed
// immediately; the redis subscription is established before it is taken so
// no intervening write is missed.
func (s *Store) Watch(ctx context.Context, collection string, filters ...Filter) (Subscription, error) {
	pubsub := s.rdb.Subscribe(ctx, channel(collection))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &liveSubscription{
		out:  make(chan []Document, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.pump(sub, pubsub, collection, filters)
	return sub, nil
}

func (s *Store) pump(sub *liveSubscription, pubsub *redis.PubSub, collection string, filters []Filter) {
	defer close(sub.done)
	defer close(sub.out)
	defer func() { _ = pubsub.Close() }()

	s.push(sub, collection, filters)

	msgs := pubsub.Channel()
	for {
		select {
		case <-sub.stop:
			return
		case _, ok := <-msgs:
			if !ok {
				return
			}
			s.push(sub, collection, filters)
		}
	}
}

func (s *Store) push(sub *liveSubscription, collection string, filters []Filter) {
	docs, err := s.Query(context.Background(), collection, filters...)
	if err != nil {
		s.logger.Warn("live query failed",
			zap.String("collection", collection),
			zap.Error(err),
		)
		return
	}

	// drop the undelivered snapshot, if any, so the buffer always has room
	select {
	case <-sub.out:
	default:
	}
	select {
	case sub.out <- docs:
	case <-sub.stop:
	}
}
