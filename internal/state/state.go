package state

import (
	"strings"

	"docsift/internal/domain"
	"docsift/internal/eventbus"
)

// AppState contains all the search view state for one session. It is not
// safe for concurrent use; callers serialize access (one logical thread of
// control per session).
type AppState struct {
	bus eventbus.EventBus

	// Search criteria
	searchText    string
	pathText      string
	embeddingText string
	embedding     []float64
	embeddingDoc  *domain.Hit
	fuzzy         bool
	dateMin       *int64 // unix seconds
	dateMax       *int64
	dateBoundsMin *int64
	dateBoundsMax *int64
	sizeMin       *int64 // bytes
	sizeMax       *int64
	sortMode      domain.SortMode
	seed          int64 // only meaningful when sortMode is random

	// Catalog
	indices    []domain.Index
	tags       []domain.Tag
	serverInfo *domain.ServerInfo

	// Raw identifiers captured from the URL before the catalog is known
	onLoadSelectedIndices   []string
	onLoadSelectedMimeTypes []string
	onLoadSelectedTags      []string

	// Selection sets
	selectedIndices   []domain.Index
	selectedMimeTypes []string
	selectedTags      []string

	// Result snapshots
	firstQueryResults *domain.ResultPage
	lastQueryResults  *domain.ResultPage

	keySequence   int
	querySequence int

	// UI state
	sqliteMode       bool
	lightboxIsOpen   bool
	showLightbox     bool
	lightbox         []domain.LightboxEntry
	lightboxKey      int
	lightboxSlide    int
	reachedScrollEnd bool
	detailsMimeAgg   []domain.MimeCount
	showDetails      bool
	mimeMap          []domain.MimeCount

	authToken       string
	nerModel        domain.ModelRef
	embeddingsModel string

	options Options
}

// NewAppState creates a new state with default values. A nil bus disables
// the notification hooks.
func NewAppState(bus eventbus.EventBus) *AppState {
	if bus == nil {
		bus = eventbus.NullBus{}
	}
	return &AppState{
		bus:                     bus,
		sortMode:                domain.SortScore,
		indices:                 make([]domain.Index, 0),
		tags:                    make([]domain.Tag, 0),
		onLoadSelectedIndices:   make([]string, 0),
		onLoadSelectedMimeTypes: make([]string, 0),
		onLoadSelectedTags:      make([]string, 0),
		selectedIndices:         make([]domain.Index, 0),
		selectedMimeTypes:       make([]string, 0),
		selectedTags:            make([]string, 0),
		lightbox:                make([]domain.LightboxEntry, 0),
		options:                 DefaultOptions(),
	}
}

// Criteria mutations

func (s *AppState) SetSearchText(v string) { s.searchText = v }
func (s *AppState) SetPathText(v string) { s.pathText = v }
func (s *AppState) SetEmbeddingText(v string) { s.embeddingText = v }
func (s *AppState) SetEmbedding(v []float64) { s.embedding = v }
func (s *AppState) SetEmbeddingDoc(v *domain.Hit) { s.embeddingDoc = v }
func (s *AppState) SetFuzzy(v bool) { s.fuzzy = v }
func (s *AppState) SetDateMin(v *int64) { s.dateMin = v }
func (s *AppState) SetDateMax(v *int64) { s.dateMax = v }
func (s *AppState) SetDateBoundsMin(v *int64) { s.dateBoundsMin = v }
func (s *AppState) SetDateBoundsMax(v *int64) { s.dateBoundsMax = v }
func (s *AppState) SetSizeMin(v *int64) { s.sizeMin = v }
func (s *AppState) SetSizeMax(v *int64) { s.sizeMax = v }
func (s *AppState) SetSortMode(v domain.SortMode) { s.sortMode = v }
func (s *AppState) SetSeed(v int64) { s.seed = v }

// ResetCriteria returns the criteria, the pending identifiers and the
// selection sets to their defaults. Options, catalog, results and UI state
// are kept. Loading a link starts from here.
func (s *AppState) ResetCriteria() {
	s.searchText = ""
	s.pathText = ""
	s.embeddingText = ""
	s.embedding = nil
	s.embeddingDoc = nil
	s.fuzzy = false
	s.dateMin = nil
	s.dateMax = nil
	s.sizeMin = nil
	s.sizeMax = nil
	s.sortMode = domain.SortScore
	s.seed = 0

	s.onLoadSelectedIndices = make([]string, 0)
	s.onLoadSelectedMimeTypes = make([]string, 0)
	s.onLoadSelectedTags = make([]string, 0)

	s.selectedIndices = make([]domain.Index, 0)
	s.selectedMimeTypes = make([]string, 0)
	s.selectedTags = make([]string, 0)
}

// Catalog mutations

// SetIndices replaces the catalog and reconciles the selection. Pending
// identifiers from the URL select the matching indices in catalog order;
// without pending identifiers every index is selected.
func (s *AppState) SetIndices(v []domain.Index) {
	s.indices = v

	if len(s.onLoadSelectedIndices) == 0 {
		s.selectedIndices = append([]domain.Index(nil), v...)
		return
	}

	wanted := make(map[string]bool, len(s.onLoadSelectedIndices))
	for _, id := range s.onLoadSelectedIndices {
		wanted[strings.ToLower(id)] = true
	}
	selected := make([]domain.Index, 0, len(wanted))
	for _, idx := range v {
		if wanted[idx.HexID()] {
			selected = append(selected, idx)
		}
	}
	s.selectedIndices = selected
}

func (s *AppState) SetTags(v []domain.Tag) { s.tags = v }

// SetServerInfo stores the backend description. The backend language is
// adopted only while the user has not chosen one, and adopting it does not
// count as a choice.
func (s *AppState) SetServerInfo(info *domain.ServerInfo) {
	s.serverInfo = info
	if info != nil && info.Lang != "" && s.options.LangIsDefault {
		s.options.Lang = info.Lang
	}
}

// Pending selections

func (s *AppState) SetOnLoadSelectedIndices(v []string) { s.onLoadSelectedIndices = v }
func (s *AppState) SetOnLoadSelectedMimeTypes(v []string) { s.onLoadSelectedMimeTypes = v }
func (s *AppState) SetOnLoadSelectedTags(v []string) { s.onLoadSelectedTags = v }

// Selection mutations

// SetSelectedIndices replaces the index selection, dropping duplicate ids
func (s *AppState) SetSelectedIndices(v []domain.Index) {
	seen := make(map[int64]bool, len(v))
	out := make([]domain.Index, 0, len(v))
	for _, idx := range v {
		if seen[idx.ID] {
			continue
		}
		seen[idx.ID] = true
		out = append(out, idx)
	}
	s.selectedIndices = out
}

func (s *AppState) SetSelectedMimeTypes(v []string) { s.selectedMimeTypes = uniqueStrings(v) }
func (s *AppState) SetSelectedTags(v []string) { s.selectedTags = uniqueStrings(v) }

// Result mutations

func (s *AppState) SetFirstQueryResults(v *domain.ResultPage) { s.firstQueryResults = v }
func (s *AppState) SetLastQueryResults(v *domain.ResultPage) { s.lastQueryResults = v }

// UI mutations

func (s *AppState) SetUISqliteMode(v bool) { s.sqliteMode = v }
func (s *AppState) SetUILightboxIsOpen(v bool) { s.lightboxIsOpen = v }
func (s *AppState) SetUILightboxSlide(v int) { s.lightboxSlide = v }
func (s *AppState) SetUIReachedScrollEnd(v bool) { s.reachedScrollEnd = v }
func (s *AppState) SetUIDetailsMimeAgg(v []domain.MimeCount) { s.detailsMimeAgg = v }
func (s *AppState) SetUIShowDetails(v bool) { s.showDetails = v }
func (s *AppState) SetUIMimeMap(v []domain.MimeCount) { s.mimeMap = v }

func (s *AppState) SetAuthToken(v string) { s.authToken = v }
func (s *AppState) SetNerModel(v domain.ModelRef) { s.nerModel = v }
func (s *AppState) SetEmbeddingsModel(v string) { s.embeddingsModel = v }

func uniqueStrings(v []string) []string {
	seen := make(map[string]bool, len(v))
	out := make([]string, 0, len(v))
	for _, item := range v {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
