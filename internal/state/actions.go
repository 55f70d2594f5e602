package state

import "docsift/internal/domain"

// Lightbox operations

// AddLightboxSource appends one slide. All four parallel views grow together.
func (s *AppState) AddLightboxSource(entry domain.LightboxEntry) {
	s.lightbox = append(s.lightbox, entry)
}

// ClearLightbox removes every slide
func (s *AppState) ClearLightbox() {
	s.lightbox = make([]domain.LightboxEntry, 0)
}

// RemountLightbox changes the lightbox key so the display layer rebuilds it
func (s *AppState) RemountLightbox() {
	s.lightboxKey++
}

// ToggleLightbox flips lightbox visibility
func (s *AppState) ToggleLightbox() {
	s.showLightbox = !s.showLightbox
}

// Sequences

// NextKeySequence returns the current key sequence and advances it
func (s *AppState) NextKeySequence() int {
	v := s.keySequence
	s.keySequence = v + 1
	return v
}

// IncrementQuerySequence returns the current query sequence and advances it.
// Callers compare the value they got against QuerySequence() to detect that a
// newer query superseded theirs.
func (s *AppState) IncrementQuerySequence() int {
	v := s.querySequence
	s.querySequence = v + 1
	return v
}

// ClearResults drops the result snapshots and everything derived from them
func (s *AppState) ClearResults() {
	s.firstQueryResults = nil
	s.lastQueryResults = nil
	s.keySequence = 0
	s.showLightbox = false
	s.lightbox = make([]domain.LightboxEntry, 0)
	s.lightboxKey = 0
	s.detailsMimeAgg = nil
}

// Notification hooks. These carry no state; subscribers on the bus react.

func (s *AppState) NotifySearch() {
	s.bus.Publish(domain.SearchRequestedEvent{})
}

func (s *AppState) NotifyWallItemsUpdated() {
	s.bus.Publish(domain.WallItemsUpdatedEvent{})
}

func (s *AppState) NotifyTagsUpdated(docID string) {
	s.bus.Publish(domain.TagsUpdatedEvent{DocID: docID})
}

func (s *AppState) NotifyTouchEnd() {
	s.bus.Publish(domain.TouchEndedEvent{})
}

func (s *AppState) NotifyThumbnailTouchStart(docID string) {
	s.bus.Publish(domain.ThumbnailTouchStartedEvent{DocID: docID})
}
