package eventbus

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"docsift/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Re-export event types
type (
	SearchRequestedEvent       = domain.SearchRequestedEvent
	WallItemsUpdatedEvent      = domain.WallItemsUpdatedEvent
	TagsUpdatedEvent           = domain.TagsUpdatedEvent
	TouchEndedEvent            = domain.TouchEndedEvent
	ThumbnailTouchStartedEvent = domain.ThumbnailTouchStartedEvent
	CatalogLoadedEvent         = domain.CatalogLoadedEvent
	ConfigLoadedEvent          = domain.ConfigLoadedEvent
	ConfigSavedEvent           = domain.ConfigSavedEvent
	ReloadRequestedEvent       = domain.ReloadRequestedEvent
)

// Event type constants
const (
	EventSearchRequested       = domain.EventSearchRequested
	EventWallItemsUpdated      = domain.EventWallItemsUpdated
	EventTagsUpdated           = domain.EventTagsUpdated
	EventTouchEnded            = domain.EventTouchEnded
	EventThumbnailTouchStarted = domain.EventThumbnailTouchStarted
	EventCatalogLoaded         = domain.EventCatalogLoaded
	EventConfigLoaded          = domain.EventConfigLoaded
	EventConfigSaved           = domain.EventConfigSaved
	EventReloadRequested       = domain.EventReloadRequested
)

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]subscription
	nextID    uint64
	eventChan chan DomainEvent
	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// New creates a new event bus. A nil logger uses slog.Default().
func New(logger *slog.Logger) EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan: make(chan DomainEvent, 1000),
		quit:      make(chan struct{}),
		logger:    logger,
	}

	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish publishes an event to all subscribers
func (b *bus) Publish(event DomainEvent) {
	switch event.Type() {
	case EventTouchEnded, EventThumbnailTouchStarted:
		// too frequent to log
	default:
		b.logger.Debug("publishing event", "type", event.Type())
	}

	select {
	case <-b.quit:
		return
	default:
	}

	select {
	case b.eventChan <- event:
	default:
		b.logger.Warn("event bus channel full, dropping event", "type", event.Type())
	}
}

// Subscribe subscribes to events of a specific type
// Returns an unsubscribe function
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops the dispatcher. Events still queued are discarded.
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
		b.wg.Wait()
	})
}

// dispatch handles event distribution to subscribers
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.mu.RLock()
			subs := make([]subscription, len(b.handlers[event.Type()]))
			copy(subs, b.handlers[event.Type()])
			b.mu.RUnlock()

			// Handlers run in order on the dispatcher goroutine
			for _, s := range subs {
				b.deliver(s.handler, event)
			}

		case <-b.quit:
			for {
				select {
				case <-b.eventChan:
				default:
					return
				}
			}
		}
	}
}

func (b *bus) deliver(h EventHandler, event DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panic", "type", event.Type(), "panic", r, "stack", string(debug.Stack()))
		}
	}()
	h(event)
}

// NullBus is a no-op implementation of EventBus
type NullBus struct{}

func (NullBus) Publish(DomainEvent) {}
func (NullBus) Subscribe(EventType, EventHandler) func() { return func() {} }
func (NullBus) Close() {}
