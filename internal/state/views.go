package state

import (
	"strings"

	"docsift/internal/domain"
)

// Derived views. None of these mutate state; slices are copied so callers
// cannot write through them.

// IndexMap returns the catalog keyed by index id
func (s *AppState) IndexMap() map[int64]domain.Index {
	m := make(map[int64]domain.Index, len(s.indices))
	for _, idx := range s.indices {
		m[idx.ID] = idx
	}
	return m
}

// LastDoc returns the last hit of the last result page, used as the
// pagination cursor. Nil when there is no page or it has no hits.
func (s *AppState) LastDoc() *domain.Hit {
	if s.lastQueryResults == nil {
		return nil
	}
	hits := s.lastQueryResults.Hits.Hits
	if len(hits) == 0 {
		return nil
	}
	last := hits[len(hits)-1]
	return &last
}

// MLRepositoryList splits the newline-delimited repository setting. An empty
// setting yields an empty list.
func (s *AppState) MLRepositoryList() []string {
	if s.options.MLRepositories == "" {
		return []string{}
	}
	repos := strings.Split(s.options.MLRepositories, "\n")
	if repos[0] == "" {
		return []string{}
	}
	return repos
}

func (s *AppState) SearchText() string { return s.searchText }
func (s *AppState) PathText() string { return s.pathText }
func (s *AppState) EmbeddingText() string { return s.embeddingText }
func (s *AppState) Embedding() []float64 { return append([]float64(nil), s.embedding...) }
func (s *AppState) EmbeddingDoc() *domain.Hit { return s.embeddingDoc }
func (s *AppState) Fuzzy() bool { return s.fuzzy }
func (s *AppState) DateMin() *int64 { return copyInt(s.dateMin) }
func (s *AppState) DateMax() *int64 { return copyInt(s.dateMax) }
func (s *AppState) DateBoundsMin() *int64 { return copyInt(s.dateBoundsMin) }
func (s *AppState) DateBoundsMax() *int64 { return copyInt(s.dateBoundsMax) }
func (s *AppState) SizeMin() *int64 { return copyInt(s.sizeMin) }
func (s *AppState) SizeMax() *int64 { return copyInt(s.sizeMax) }
func (s *AppState) SortMode() domain.SortMode { return s.sortMode }
func (s *AppState) Seed() int64 { return s.seed }
func (s *AppState) Size() int { return s.options.Size }
func (s *AppState) Indices() []domain.Index { return append([]domain.Index(nil), s.indices...) }
func (s *AppState) Tags() []domain.Tag { return append([]domain.Tag(nil), s.tags...) }
func (s *AppState) ServerInfo() *domain.ServerInfo { return s.serverInfo }
func (s *AppState) SelectedIndices() []domain.Index { return append([]domain.Index(nil), s.selectedIndices...) }
func (s *AppState) SelectedMimeTypes() []string { return append([]string(nil), s.selectedMimeTypes...) }
func (s *AppState) SelectedTags() []string { return append([]string(nil), s.selectedTags...) }

func (s *AppState) OnLoadSelectedIndices() []string {
	return append([]string(nil), s.onLoadSelectedIndices...)
}

func (s *AppState) OnLoadSelectedMimeTypes() []string {
	return append([]string(nil), s.onLoadSelectedMimeTypes...)
}

func (s *AppState) OnLoadSelectedTags() []string {
	return append([]string(nil), s.onLoadSelectedTags...)
}

func (s *AppState) FirstQueryResults() *domain.ResultPage { return s.firstQueryResults }
func (s *AppState) LastQueryResults() *domain.ResultPage { return s.lastQueryResults }
func (s *AppState) KeySequence() int { return s.keySequence }
func (s *AppState) QuerySequence() int { return s.querySequence }

func (s *AppState) UISqliteMode() bool { return s.sqliteMode }
func (s *AppState) UILightboxIsOpen() bool { return s.lightboxIsOpen }
func (s *AppState) UIShowLightbox() bool { return s.showLightbox }
func (s *AppState) UILightboxKey() int { return s.lightboxKey }
func (s *AppState) UILightboxSlide() int { return s.lightboxSlide }
func (s *AppState) UIReachedScrollEnd() bool { return s.reachedScrollEnd }
func (s *AppState) UIShowDetails() bool { return s.showDetails }
func (s *AppState) AuthToken() string { return s.authToken }
func (s *AppState) NerModel() domain.ModelRef { return s.nerModel }
func (s *AppState) EmbeddingsModel() string { return s.embeddingsModel }

func (s *AppState) UIDetailsMimeAgg() []domain.MimeCount {
	return append([]domain.MimeCount(nil), s.detailsMimeAgg...)
}

func (s *AppState) UIMimeMap() []domain.MimeCount {
	return append([]domain.MimeCount(nil), s.mimeMap...)
}

// UILightboxEntries returns the slides in order
func (s *AppState) UILightboxEntries() []domain.LightboxEntry {
	return append([]domain.LightboxEntry(nil), s.lightbox...)
}

func (s *AppState) UILightboxSources() []string {
	return s.lightboxColumn(func(e domain.LightboxEntry) string { return e.Source })
}

func (s *AppState) UILightboxThumbs() []string {
	return s.lightboxColumn(func(e domain.LightboxEntry) string { return e.Thumbnail })
}

func (s *AppState) UILightboxCaptions() []string {
	return s.lightboxColumn(func(e domain.LightboxEntry) string { return e.Caption })
}

func (s *AppState) UILightboxTypes() []string {
	return s.lightboxColumn(func(e domain.LightboxEntry) string { return e.Type })
}

func (s *AppState) lightboxColumn(pick func(domain.LightboxEntry) string) []string {
	out := make([]string, len(s.lightbox))
	for i, e := range s.lightbox {
		out[i] = pick(e)
	}
	return out
}

func copyInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
