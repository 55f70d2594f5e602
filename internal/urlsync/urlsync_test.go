package urlsync

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsift/internal/domain"
	"docsift/internal/state"
)

type fakeRouter struct {
	path   string
	pushed []url.Values
	err    error
}

func (r *fakeRouter) CurrentPath() string { return r.path }

func (r *fakeRouter) Push(_ context.Context, query url.Values) error {
	r.pushed = append(r.pushed, query)
	return r.err
}

func testCatalog() []domain.Index {
	return []domain.Index{{ID: 0xA, Name: "a"}, {ID: 0xB, Name: "b"}, {ID: 0xC, Name: "c"}}
}

func fixedSeed(v int64) Option {
	return WithSeedSource(func() int64 { return v })
}

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return q
}

func TestLoadFromArgsMapsEveryParameter(t *testing.T) {
	sync := New()
	st := state.NewAppState(nil)

	sync.LoadFromArgs(st, mustQuery(t, "q=hello+world&fuzzy&i=a&i=C&dMin=10&dMax=20&sMin=100&sMax=200&path=docs/2020&m=i:png&t=red,blue&sort=sizeAsc"))

	assert.Equal(t, "hello world", st.SearchText())
	assert.True(t, st.Fuzzy())
	assert.Equal(t, []string{"a", "C"}, st.OnLoadSelectedIndices())
	assert.Equal(t, int64(10), *st.DateMin())
	assert.Equal(t, int64(20), *st.DateMax())
	assert.Equal(t, int64(100), *st.SizeMin())
	assert.Equal(t, int64(200), *st.SizeMax())
	assert.Equal(t, "docs/2020", st.PathText())
	assert.Equal(t, []string{"image/png"}, st.OnLoadSelectedMimeTypes())
	assert.Equal(t, []string{"red", "blue"}, st.OnLoadSelectedTags())
	assert.Equal(t, domain.SortSizeAsc, st.SortMode())
}

func TestLoadFromArgsAbsentParametersKeepDefaults(t *testing.T) {
	st := state.NewAppState(nil)
	New().LoadFromArgs(st, url.Values{})

	assert.Equal(t, "", st.SearchText())
	assert.False(t, st.Fuzzy())
	assert.Nil(t, st.DateMin())
	assert.Equal(t, domain.SortScore, st.SortMode())
	assert.Empty(t, st.OnLoadSelectedIndices())
}

func TestLoadFromArgsSingleIndexNormalizedToList(t *testing.T) {
	st := state.NewAppState(nil)
	New().LoadFromArgs(st, mustQuery(t, "i=b"))
	assert.Equal(t, []string{"b"}, st.OnLoadSelectedIndices())
}

func TestLoadFromArgsSkipsMalformedValues(t *testing.T) {
	st := state.NewAppState(nil)
	New().LoadFromArgs(st, mustQuery(t, "sMin=abc&dMax=NaN&m=zz"))

	assert.Nil(t, st.SizeMin())
	assert.Nil(t, st.DateMax())
	assert.Empty(t, st.OnLoadSelectedMimeTypes())
}

func TestLoadFromArgsSkipsOutOfRangeNumbers(t *testing.T) {
	st := state.NewAppState(nil)
	New().LoadFromArgs(st, mustQuery(t, "sMin=1e30&sMax=-1e19&dMin=99999999999999999999&dMax=Inf&sort=random&seed=9.3e18"))

	assert.Nil(t, st.SizeMin())
	assert.Nil(t, st.SizeMax())
	assert.Nil(t, st.DateMin())
	assert.Nil(t, st.DateMax())
	assert.Zero(t, st.Seed())

	// Large values that still fit are kept
	st = state.NewAppState(nil)
	New().LoadFromArgs(st, mustQuery(t, "sMin=1.7e9&sMax=9223372036854775807"))
	require.NotNil(t, st.SizeMin())
	assert.Equal(t, int64(1_700_000_000), *st.SizeMin())
	require.NotNil(t, st.SizeMax())
	assert.Equal(t, int64(9223372036854775807), *st.SizeMax())
}

func TestLoadFromArgsRandomSeed(t *testing.T) {
	t.Run("explicit seed", func(t *testing.T) {
		st := state.NewAppState(nil)
		New(fixedSeed(7)).LoadFromArgs(st, mustQuery(t, "sort=random&seed=42"))
		assert.Equal(t, domain.SortRandom, st.SortMode())
		assert.Equal(t, int64(42), st.Seed())
	})

	t.Run("generated seed", func(t *testing.T) {
		st := state.NewAppState(nil)
		q := mustQuery(t, "sort=random")
		New(fixedSeed(7)).LoadFromArgs(st, q)
		assert.Equal(t, int64(7), st.Seed())
		assert.Equal(t, "7", q.Get(ParamSeed))
	})

	t.Run("default source yields a number", func(t *testing.T) {
		st := state.NewAppState(nil)
		q := mustQuery(t, "sort=random")
		New().LoadFromArgs(st, q)
		assert.GreaterOrEqual(t, st.Seed(), int64(0))
		assert.NotEmpty(t, q.Get(ParamSeed))
	})

	t.Run("seed ignored for other modes", func(t *testing.T) {
		st := state.NewAppState(nil)
		New().LoadFromArgs(st, mustQuery(t, "sort=dateDesc&seed=42"))
		assert.Equal(t, int64(0), st.Seed())
	})
}

func TestLoadFromArgsIsIdempotent(t *testing.T) {
	calls := int64(0)
	sync := New(WithSeedSource(func() int64 {
		calls++
		return calls * 100
	}))
	q := mustQuery(t, "q=x&sort=random&i=a&t=red")

	once := state.NewAppState(nil)
	sync.LoadFromArgs(once, q)

	twice := state.NewAppState(nil)
	sync.LoadFromArgs(twice, q)
	sync.LoadFromArgs(twice, q)

	assert.Equal(t, once, twice)
	assert.Equal(t, int64(1), calls)
}

func TestEncodeArgsOmitsDefaults(t *testing.T) {
	st := state.NewAppState(nil)
	st.SetIndices(testCatalog())

	assert.Empty(t, EncodeArgs(st))
}

func TestEncodeArgsNormalizesText(t *testing.T) {
	st := state.NewAppState(nil)
	st.SetSearchText("  hello \t  big\n world ")

	assert.Equal(t, "hello big world", EncodeArgs(st).Get(ParamQuery))
}

func TestEncodeArgsWhitespaceOnlyTextOmitted(t *testing.T) {
	st := state.NewAppState(nil)
	st.SetSearchText("   ")

	assert.False(t, EncodeArgs(st).Has(ParamQuery))
}

func TestEncodeArgsFields(t *testing.T) {
	st := state.NewAppState(nil)
	st.SetIndices(testCatalog())
	st.SetSelectedIndices(testCatalog()[1:])
	st.SetFuzzy(true)
	d := int64(1700000000)
	st.SetDateMin(&d)
	st.SetPathText("a/b")
	st.SetSelectedMimeTypes([]string{"text/plain"})
	st.SetSelectedTags([]string{"red", "blue"})
	st.SetSortMode(domain.SortRandom)
	st.SetSeed(99)

	q := EncodeArgs(st)

	assert.True(t, q.Has(ParamFuzzy))
	assert.Equal(t, "", q.Get(ParamFuzzy))
	assert.Equal(t, []string{"b", "c"}, q[ParamIndices])
	assert.Equal(t, "1700000000", q.Get(ParamDateMin))
	assert.False(t, q.Has(ParamDateMax))
	assert.Equal(t, "a/b", q.Get(ParamPath))
	assert.Equal(t, "t:plain", q.Get(ParamMimes))
	assert.Equal(t, "red,blue", q.Get(ParamTags))
	assert.Equal(t, "random", q.Get(ParamSort))
	assert.Equal(t, "99", q.Get(ParamSeed))
}

func TestEncodeArgsSeedOnlyForRandom(t *testing.T) {
	st := state.NewAppState(nil)
	st.SetSortMode(domain.SortDateDesc)
	st.SetSeed(5)

	q := EncodeArgs(st)
	assert.Equal(t, "dateDesc", q.Get(ParamSort))
	assert.False(t, q.Has(ParamSeed))
}

func TestRoundTrip(t *testing.T) {
	src := state.NewAppState(nil)
	src.SetIndices(testCatalog())
	src.SetSelectedIndices([]domain.Index{testCatalog()[0], testCatalog()[2]})
	src.SetSearchText("annual report")
	src.SetFuzzy(true)
	lo, hi := int64(1000), int64(5000)
	src.SetSizeMin(&lo)
	src.SetSizeMax(&hi)
	src.SetDateMax(&hi)
	src.SetPathText("finance")
	src.SetSelectedMimeTypes([]string{"application/pdf", "image/svg+xml"})
	src.SetSelectedTags([]string{"q1", "audit"})
	src.SetSortMode(domain.SortRandom)
	src.SetSeed(1234)

	// Through the wire format, as a browser would see it
	query := mustQuery(t, EncodeArgs(src).Encode())

	dst := state.NewAppState(nil)
	New(fixedSeed(1)).LoadFromArgs(dst, query)
	dst.SetIndices(testCatalog())

	assert.Equal(t, src.SearchText(), dst.SearchText())
	assert.Equal(t, src.Fuzzy(), dst.Fuzzy())
	assert.Equal(t, src.SelectedIndices(), dst.SelectedIndices())
	assert.Equal(t, src.DateMin(), dst.DateMin())
	assert.Equal(t, src.DateMax(), dst.DateMax())
	assert.Equal(t, src.SizeMin(), dst.SizeMin())
	assert.Equal(t, src.SizeMax(), dst.SizeMax())
	assert.Equal(t, src.PathText(), dst.PathText())
	assert.ElementsMatch(t, src.SelectedMimeTypes(), dst.OnLoadSelectedMimeTypes())
	assert.Equal(t, src.SelectedTags(), dst.OnLoadSelectedTags())
	assert.Equal(t, src.SortMode(), dst.SortMode())
	assert.Equal(t, src.Seed(), dst.Seed())
}

func TestRoundTripFullSelection(t *testing.T) {
	src := state.NewAppState(nil)
	src.SetIndices(testCatalog())

	dst := state.NewAppState(nil)
	New().LoadFromArgs(dst, EncodeArgs(src))
	dst.SetIndices(testCatalog())

	assert.Equal(t, src.SelectedIndices(), dst.SelectedIndices())
}

func TestUpdateArgsPushesOnSearchView(t *testing.T) {
	st := state.NewAppState(nil)
	st.SetSearchText("x")
	router := &fakeRouter{path: "/"}

	New().UpdateArgs(context.Background(), st, router)

	require.Len(t, router.pushed, 1)
	assert.Equal(t, "x", router.pushed[0].Get(ParamQuery))
}

func TestUpdateArgsNoopOutsideSearchView(t *testing.T) {
	st := state.NewAppState(nil)
	router := &fakeRouter{path: "/stats"}

	New().UpdateArgs(context.Background(), st, router)

	assert.Empty(t, router.pushed)
}

func TestUpdateArgsSwallowsNavigationErrors(t *testing.T) {
	st := state.NewAppState(nil)
	st.SetSearchText("x")

	for _, err := range []error{ErrRedundantNavigation, errors.New("boom")} {
		router := &fakeRouter{path: "/", err: err}
		assert.NotPanics(t, func() {
			New().UpdateArgs(context.Background(), st, router)
		})
		assert.Len(t, router.pushed, 1)
	}
	assert.Equal(t, "x", st.SearchText())
}
