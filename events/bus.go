// Package events fans committed ledger notifications out to sinks: an
// in-process bus with channel and callback subscribers, a structured log sink
// and a NATS publisher.
package events

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"okinoko_ledger/contract/dao"
)

const (
	EventQueueSize = 20
	AsyncQueueSize = 1000
)

type SubscriberId int

type HandlerFunc func(dao.Event)

// Subscriber is a delivery abstraction so channels, logs and network sinks
// register the same way. Close must be idempotent.
type Subscriber interface {
	Deliver(dao.Event) error
	Close()
}

type subscription struct {
	sub   Subscriber
	types map[dao.EventType]struct{}
	kind  string
}

func (s subscription) wants(t dao.EventType) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

type busMetrics struct {
	eventsTotal    *prometheus.CounterVec
	subscribers    *prometheus.GaugeVec
	deliveryErrors *prometheus.CounterVec
}

// Bus delivers events in commit order. Emit enqueues and returns at once so a
// slow subscriber never holds up a ledger operation; a single worker drains
// the queue to keep ordering.
type Bus struct {
	subscribers map[SubscriberId]subscription
	metrics     *busMetrics
	lastSubId   SubscriberId
	mu          sync.RWMutex
	Logger      *slog.Logger

	queue   chan dao.Event
	wg      sync.WaitGroup
	stopCh  chan struct{}
	stopped bool
	stopMu  sync.RWMutex
}

// NewBus starts the delivery worker. A nil registry disables metrics.
func NewBus(promRegistry prometheus.Registerer, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := &Bus{
		subscribers: make(map[SubscriberId]subscription),
		Logger:      logger,
		queue:       make(chan dao.Event, AsyncQueueSize),
		stopCh:      make(chan struct{}),
	}
	if promRegistry != nil {
		b.initMetrics(promRegistry)
	}
	b.wg.Add(1)
	go b.worker()
	return b
}

func (b *Bus) initMetrics(reg prometheus.Registerer) {
	factory := promauto.With(reg)
	b.metrics = &busMetrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "okinoko_events_published_total",
			Help: "notifications delivered by type",
		}, []string{"type"}),
		subscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "okinoko_events_subscribers",
			Help: "active notification subscribers by kind",
		}, []string{"kind"}),
		deliveryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "okinoko_events_delivery_errors_total",
			Help: "failed or dropped deliveries by type and subscriber kind",
		}, []string{"type", "kind"}),
	}
}

func (b *Bus) worker() {
	defer b.wg.Done()
	for {
		select {
		case evt := <-b.queue:
			b.Publish(evt)
		case <-b.stopCh:
			// drain what was accepted before Stop
			for {
				select {
				case evt := <-b.queue:
					b.Publish(evt)
				default:
					return
				}
			}
		}
	}
}

// Emit queues evt for delivery. It satisfies contract.Emitter.
func (b *Bus) Emit(evt dao.Event) {
	b.stopMu.RLock()
	defer b.stopMu.RUnlock()
	if b.stopped {
		return
	}
	select {
	case b.queue <- evt:
	default:
		b.Logger.Warn("event queue full, dropping event", "type", evt.Type)
		if b.metrics != nil {
			b.metrics.deliveryErrors.WithLabelValues(string(evt.Type), "dropped").Inc()
		}
	}
}

// Publish delivers evt synchronously to every interested subscriber. A
// subscriber that fails or panics is removed.
func (b *Bus) Publish(evt dao.Event) {
	type item struct {
		id  SubscriberId
		sub subscription
	}
	b.mu.RLock()
	items := make([]item, 0, len(b.subscribers))
	for id, s := range b.subscribers {
		if s.wants(evt.Type) {
			items = append(items, item{id: id, sub: s})
		}
	}
	b.mu.RUnlock()

	for _, it := range items {
		var err error
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("subscriber deliver panic: %v", r)
				}
			}()
			err = it.sub.sub.Deliver(evt)
		}()
		if err != nil {
			b.Unsubscribe(it.id)
			if b.metrics != nil {
				b.metrics.deliveryErrors.WithLabelValues(string(evt.Type), it.sub.kind).Inc()
			}
			b.Logger.Debug("event delivery error", "type", evt.Type, "err", err)
		}
	}
	if b.metrics != nil {
		b.metrics.eventsTotal.WithLabelValues(string(evt.Type)).Inc()
	}
}

func (b *Bus) register(sub Subscriber, kind string, types []dao.EventType) SubscriberId {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastSubId++
	s := subscription{sub: sub, kind: kind}
	if len(types) > 0 {
		s.types = make(map[dao.EventType]struct{}, len(types))
		for _, t := range types {
			s.types[t] = struct{}{}
		}
	}
	b.subscribers[b.lastSubId] = s
	if b.metrics != nil {
		b.metrics.subscribers.WithLabelValues(kind).Inc()
	}
	return b.lastSubId
}

// RegisterSubscriber adds an external sink for the given types, all types when none given.
func (b *Bus) RegisterSubscriber(sub Subscriber, types ...dao.EventType) SubscriberId {
	return b.register(sub, "remote", types)
}

// Subscribe returns a channel receiving the given types, all types when none given.
func (b *Bus) Subscribe(types ...dao.EventType) (SubscriberId, <-chan dao.Event) {
	ch := newChannelSubscriber(EventQueueSize)
	return b.register(ch, "in-memory", types), ch.ch
}

// SubscribeFunc calls handler from a dedicated goroutine for each event.
func (b *Bus) SubscribeFunc(handler HandlerFunc, types ...dao.EventType) SubscriberId {
	id, ch := b.Subscribe(types...)
	go func() {
		for evt := range ch {
			handler(evt)
		}
	}()
	return id
}

func (b *Bus) Unsubscribe(id SubscriberId) {
	b.mu.Lock()
	s, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		if b.metrics != nil {
			b.metrics.subscribers.WithLabelValues(s.kind).Dec()
		}
	}
	b.mu.Unlock()
	if ok {
		s.sub.Close()
	}
}

// Stop delivers everything already queued, then closes all subscribers.
// Later Emit calls are dropped.
func (b *Bus) Stop() {
	b.stopMu.Lock()
	if b.stopped {
		b.stopMu.Unlock()
		return
	}
	b.stopped = true
	b.stopMu.Unlock()

	close(b.stopCh)
	b.wg.Wait()

	b.mu.Lock()
	subs := b.subscribers
	b.subscribers = make(map[SubscriberId]subscription)
	b.mu.Unlock()
	for _, s := range subs {
		s.sub.Close()
	}
	if b.metrics != nil {
		b.metrics.subscribers.Reset()
	}
}

// channelSubscriber is the in-memory adapter behind Subscribe. Deliver blocks
// while the channel is full.
type channelSubscriber struct {
	ch     chan dao.Event
	mu     sync.RWMutex
	closed bool
}

func newChannelSubscriber(buffer int) *channelSubscriber {
	return &channelSubscriber{ch: make(chan dao.Event, buffer)}
}

func (c *channelSubscriber) Deliver(evt dao.Event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	c.ch <- evt
	return nil
}

func (c *channelSubscriber) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}
