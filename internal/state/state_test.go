package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsift/internal/domain"
	"docsift/internal/eventbus"
)

func catalog() []domain.Index {
	return []domain.Index{
		{ID: 0xA, Name: "a"},
		{ID: 0xB, Name: "b"},
		{ID: 0xC, Name: "c"},
	}
}

func TestNewAppStateDefaults(t *testing.T) {
	s := NewAppState(nil)

	assert.Equal(t, domain.SortScore, s.SortMode())
	assert.Equal(t, "", s.SearchText())
	assert.False(t, s.Fuzzy())
	assert.Nil(t, s.DateMin())
	assert.Nil(t, s.SizeMax())
	assert.Empty(t, s.SelectedIndices())
	assert.Equal(t, DefaultOptions(), s.Options())
	assert.Equal(t, 60, s.Size())
}

func TestSetIndicesSelectsAllWithoutPending(t *testing.T) {
	s := NewAppState(nil)
	s.SetIndices(catalog())

	assert.Equal(t, catalog(), s.SelectedIndices())
}

func TestSetIndicesReconcilesPendingInCatalogOrder(t *testing.T) {
	s := NewAppState(nil)
	s.SetOnLoadSelectedIndices([]string{"C", "b"})
	s.SetIndices(catalog())

	got := s.SelectedIndices()
	require.Len(t, got, 2)
	assert.Equal(t, int64(0xB), got[0].ID)
	assert.Equal(t, int64(0xC), got[1].ID)
}

func TestSetIndicesPendingWithoutMatches(t *testing.T) {
	s := NewAppState(nil)
	s.SetOnLoadSelectedIndices([]string{"ff"})
	s.SetIndices(catalog())

	assert.Empty(t, s.SelectedIndices())
	assert.Len(t, s.Indices(), 3)
}

func TestResetCriteriaKeepsOptionsAndCatalog(t *testing.T) {
	s := NewAppState(nil)
	s.SetOptTheme("dark")
	s.SetServerInfo(&domain.ServerInfo{Name: "srv", Lang: "de"})
	s.SetAuthToken("tok")

	size := int64(10)
	s.SetSearchText("old")
	s.SetPathText("x")
	s.SetFuzzy(true)
	s.SetSizeMin(&size)
	s.SetSortMode(domain.SortRandom)
	s.SetSeed(7)
	s.SetOnLoadSelectedIndices([]string{"a"})
	s.SetOnLoadSelectedMimeTypes([]string{"text/plain"})
	s.SetOnLoadSelectedTags([]string{"red"})
	s.SetIndices(catalog())
	s.SetSelectedMimeTypes([]string{"text/plain"})
	s.SetSelectedTags([]string{"red"})

	s.ResetCriteria()

	assert.Equal(t, "", s.SearchText())
	assert.Equal(t, "", s.PathText())
	assert.False(t, s.Fuzzy())
	assert.Nil(t, s.SizeMin())
	assert.Equal(t, domain.SortScore, s.SortMode())
	assert.Zero(t, s.Seed())
	assert.Empty(t, s.OnLoadSelectedIndices())
	assert.Empty(t, s.OnLoadSelectedMimeTypes())
	assert.Empty(t, s.OnLoadSelectedTags())
	assert.Empty(t, s.SelectedIndices())
	assert.Empty(t, s.SelectedMimeTypes())
	assert.Empty(t, s.SelectedTags())

	assert.Equal(t, "dark", s.Options().Theme)
	assert.Equal(t, "de", s.Options().Lang)
	assert.Len(t, s.Indices(), 3)
	assert.Equal(t, "srv", s.ServerInfo().Name)
	assert.Equal(t, "tok", s.AuthToken())

	// Without pending ids the catalog selects everything again
	s.SetIndices(s.Indices())
	assert.Equal(t, catalog(), s.SelectedIndices())
}

func TestSetSelectedIndicesDropsDuplicates(t *testing.T) {
	s := NewAppState(nil)
	c := catalog()
	s.SetSelectedIndices([]domain.Index{c[1], c[0], c[1]})

	got := s.SelectedIndices()
	require.Len(t, got, 2)
	assert.Equal(t, c[1], got[0])
	assert.Equal(t, c[0], got[1])
}

func TestSelectionSetsAreUnique(t *testing.T) {
	s := NewAppState(nil)
	s.SetSelectedMimeTypes([]string{"image/png", "image/png", "text/plain"})
	s.SetSelectedTags([]string{"a", "b", "a"})

	assert.Equal(t, []string{"image/png", "text/plain"}, s.SelectedMimeTypes())
	assert.Equal(t, []string{"a", "b"}, s.SelectedTags())
}

func TestAddLightboxSourceKeepsColumnsAligned(t *testing.T) {
	s := NewAppState(nil)
	for i := 0; i < 3; i++ {
		s.AddLightboxSource(domain.LightboxEntry{
			Source:    "src",
			Thumbnail: "thumb",
			Caption:   "caption",
			Type:      "image",
		})

		n := i + 1
		assert.Len(t, s.UILightboxSources(), n)
		assert.Len(t, s.UILightboxThumbs(), n)
		assert.Len(t, s.UILightboxCaptions(), n)
		assert.Len(t, s.UILightboxTypes(), n)
	}
}

func TestClearResults(t *testing.T) {
	s := NewAppState(nil)
	s.SetFirstQueryResults(&domain.ResultPage{})
	s.SetLastQueryResults(&domain.ResultPage{})
	s.NextKeySequence()
	s.ToggleLightbox()
	s.AddLightboxSource(domain.LightboxEntry{Source: "x"})
	s.RemountLightbox()
	s.SetUIDetailsMimeAgg([]domain.MimeCount{{Mime: "text/plain", Count: 1}})

	s.ClearResults()

	assert.Nil(t, s.FirstQueryResults())
	assert.Nil(t, s.LastQueryResults())
	assert.Equal(t, 0, s.KeySequence())
	assert.False(t, s.UIShowLightbox())
	assert.Empty(t, s.UILightboxEntries())
	assert.Equal(t, 0, s.UILightboxKey())
	assert.Empty(t, s.UIDetailsMimeAgg())
}

func TestSequencesFetchAndIncrement(t *testing.T) {
	s := NewAppState(nil)

	assert.Equal(t, 0, s.NextKeySequence())
	assert.Equal(t, 1, s.NextKeySequence())
	assert.Equal(t, 2, s.KeySequence())

	assert.Equal(t, 0, s.IncrementQuerySequence())
	assert.Equal(t, 1, s.IncrementQuerySequence())
	assert.Equal(t, 2, s.QuerySequence())
}

func TestServerInfoLanguageDoesNotOverrideUserChoice(t *testing.T) {
	s := NewAppState(nil)
	s.SetServerInfo(&domain.ServerInfo{Lang: "fr"})

	assert.Equal(t, "fr", s.Options().Lang)
	assert.True(t, s.Options().LangIsDefault)

	s.SetOptLang("de")
	s.SetServerInfo(&domain.ServerInfo{Lang: "es"})

	assert.Equal(t, "de", s.Options().Lang)
	assert.False(t, s.Options().LangIsDefault)
}

func TestLastDoc(t *testing.T) {
	s := NewAppState(nil)
	assert.Nil(t, s.LastDoc())

	s.SetLastQueryResults(&domain.ResultPage{})
	assert.Nil(t, s.LastDoc())

	s.SetLastQueryResults(&domain.ResultPage{Hits: domain.Hits{Hits: []domain.Hit{{ID: "1"}, {ID: "2"}}}})
	require.NotNil(t, s.LastDoc())
	assert.Equal(t, "2", s.LastDoc().ID)
}

func TestMLRepositoryList(t *testing.T) {
	s := NewAppState(nil)
	assert.Equal(t, []string{DefaultMLRepositories}, s.MLRepositoryList())

	s.SetOptMLRepositories("")
	assert.Empty(t, s.MLRepositoryList())
	assert.NotNil(t, s.MLRepositoryList())

	s.SetOptMLRepositories("https://a/repo.json\nhttps://b/repo.json")
	assert.Equal(t, []string{"https://a/repo.json", "https://b/repo.json"}, s.MLRepositoryList())
}

func TestIndexMap(t *testing.T) {
	s := NewAppState(nil)
	s.SetIndices(catalog())

	m := s.IndexMap()
	require.Len(t, m, 3)
	assert.Equal(t, "b", m[0xB].Name)
}

func TestViewsDoNotAlias(t *testing.T) {
	s := NewAppState(nil)
	s.SetIndices(catalog())
	v := int64(5)
	s.SetSizeMin(&v)

	got := s.SelectedIndices()
	got[0].Name = "changed"
	*s.SizeMin() = 9

	assert.Equal(t, "a", s.SelectedIndices()[0].Name)
	assert.Equal(t, int64(5), *s.SizeMin())
}

func TestOptionsCopyDoesNotAlias(t *testing.T) {
	s := NewAppState(nil)
	model := "bert"
	s.SetOptMLDefaultModel(&model)

	o := s.Options()
	*o.MLDefaultModel = "other"

	assert.Equal(t, "bert", *s.Options().MLDefaultModel)
}

func TestNotifyHooksPublishOnBus(t *testing.T) {
	bus := eventbus.New(nil)
	defer bus.Close()

	got := make(chan eventbus.DomainEvent, 2)
	bus.Subscribe(eventbus.EventSearchRequested, func(e eventbus.DomainEvent) { got <- e })
	bus.Subscribe(eventbus.EventThumbnailTouchStarted, func(e eventbus.DomainEvent) { got <- e })

	s := NewAppState(bus)
	s.NotifySearch()
	s.NotifyThumbnailTouchStart("doc-1")

	var events []eventbus.DomainEvent
	require.Eventually(t, func() bool {
		select {
		case e := <-got:
			events = append(events, e)
		default:
		}
		return len(events) == 2
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, domain.SearchRequestedEvent{}, events[0])
	assert.Equal(t, domain.ThumbnailTouchStartedEvent{DocID: "doc-1"}, events[1])
}
