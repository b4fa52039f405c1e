package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const defaultBufferSize = 64

// Broker is a generic pub/sub event broker.
// It allows multiple subscribers to receive events published by publishers.
//
// A broker created with NewBroker never blocks Publish and drops events for
// subscribers whose buffer is full. A broker created with NewOrderedBroker
// delivers every event to every live subscriber, in publish order, blocking
// the publisher while a subscriber's buffer is full.
type Broker[T any] struct {
	subs       map[chan Event[T]]<-chan struct{}
	mu         sync.RWMutex
	done       chan struct{}
	bufferSize int
	ordered    bool
	dropped    atomic.Int64
}

var _ Bus[int] = (*Broker[int])(nil)

// NewBroker creates a new lossy broker with the default buffer size (64).
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer creates a new lossy broker with a custom buffer size.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:       make(map[chan Event[T]]<-chan struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// NewOrderedBroker creates a broker that never drops events.
func NewOrderedBroker[T any](size int) *Broker[T] {
	b := NewBrokerWithBuffer[T](size)
	b.ordered = true
	return b
}

// Subscribe creates a new subscription channel.
// The channel is automatically closed when ctx is cancelled.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event[T])
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event[T], b.bufferSize)
	b.subs[sub] = ctx.Done()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()

		select {
		case <-b.done:
			return // Already closed
		default:
		}

		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish sends an event to all subscribers.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	event := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	for sub, subDone := range b.subs {
		if b.ordered {
			select {
			case sub <- event:
			case <-subDone:
				// Subscriber is going away; its cleanup is waiting on our read lock.
			}
			continue
		}
		select {
		case sub <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Close shuts down the broker and all subscriber channels.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return // Already closed
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries a lossy broker has discarded.
func (b *Broker[T]) Dropped() int64 {
	return b.dropped.Load()
}
