package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSearchRequested       EventType = "SearchRequested"
	EventWallItemsUpdated      EventType = "WallItemsUpdated"
	EventTagsUpdated           EventType = "TagsUpdated"
	EventTouchEnded            EventType = "TouchEnded"
	EventThumbnailTouchStarted EventType = "ThumbnailTouchStarted"
	EventCatalogLoaded         EventType = "CatalogLoaded"
	EventConfigLoaded          EventType = "ConfigLoaded"
	EventConfigSaved           EventType = "ConfigSaved"
	EventReloadRequested       EventType = "ReloadRequested"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SearchRequestedEvent asks the search view to run the current criteria
type SearchRequestedEvent struct{}

func (e SearchRequestedEvent) Type() EventType { return EventSearchRequested }

// WallItemsUpdatedEvent is emitted when the result wall needs to relayout
type WallItemsUpdatedEvent struct{}

func (e WallItemsUpdatedEvent) Type() EventType { return EventWallItemsUpdated }

// TagsUpdatedEvent is emitted after a document's tags changed
type TagsUpdatedEvent struct {
	DocID string
}

func (e TagsUpdatedEvent) Type() EventType { return EventTagsUpdated }

// TouchEndedEvent is emitted when a touch gesture ends anywhere on the page
type TouchEndedEvent struct{}

func (e TouchEndedEvent) Type() EventType { return EventTouchEnded }

// ThumbnailTouchStartedEvent is emitted when a thumbnail is touched
type ThumbnailTouchStartedEvent struct {
	DocID string
}

func (e ThumbnailTouchStartedEvent) Type() EventType { return EventThumbnailTouchStarted }

// CatalogLoadedEvent is emitted when the index/tag catalog is (re)loaded
type CatalogLoadedEvent struct {
	Indices []Index
	Tags    []Tag
}

func (e CatalogLoadedEvent) Type() EventType { return EventCatalogLoaded }

// ConfigLoadedEvent is emitted after a persisted configuration was applied
type ConfigLoadedEvent struct {
	Key     string
	Missing []string // option keys absent from the stored record
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted after the configuration was written
type ConfigSavedEvent struct {
	Key string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }

// ReloadRequestedEvent is emitted when the session must start over from defaults
type ReloadRequestedEvent struct {
	Reason string
}

func (e ReloadRequestedEvent) Type() EventType { return EventReloadRequested }
