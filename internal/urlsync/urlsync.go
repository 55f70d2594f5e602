// Package urlsync translates between the search state and the query string
// of shareable search links.
package urlsync

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"

	"docsift/internal/domain"
	"docsift/internal/mimes"
	"docsift/internal/state"
)

// Query parameter names
const (
	ParamQuery   = "q"
	ParamFuzzy   = "fuzzy"
	ParamIndices = "i"
	ParamDateMin = "dMin"
	ParamDateMax = "dMax"
	ParamSizeMin = "sMin"
	ParamSizeMax = "sMax"
	ParamPath    = "path"
	ParamMimes   = "m"
	ParamTags    = "t"
	ParamSort    = "sort"
	ParamSeed    = "seed"
)

// SearchViewPath is the only view whose URL mirrors the search state
const SearchViewPath = "/"

// ErrRedundantNavigation is returned by a Router asked to navigate to the
// location it is already at
var ErrRedundantNavigation = errors.New("urlsync: redundant navigation")

// Router owns the actual URL
type Router interface {
	CurrentPath() string
	Push(ctx context.Context, query url.Values) error
}

// Synchronizer runs the URL <-> state procedures
type Synchronizer struct {
	seed   func() int64
	logger *slog.Logger
}

// Option configures a Synchronizer
type Option func(*Synchronizer)

// WithSeedSource replaces the random seed generator
func WithSeedSource(fn func() int64) Option {
	return func(s *Synchronizer) { s.seed = fn }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = logger }
}

// New creates a Synchronizer
func New(opts ...Option) *Synchronizer {
	s := &Synchronizer{
		seed:   RandomSeed,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RandomSeed returns a fresh seed for random ordering
func RandomSeed() int64 {
	return rand.Int64N(10_000_000)
}

// NewSeed draws a seed from the configured source
func (s *Synchronizer) NewSeed() int64 {
	return s.seed()
}

// LoadFromArgs copies the parameters present in query into st. Absent or
// unparsable parameters leave the state untouched.
//
// When sort=random arrives without a seed, a seed is generated and written
// back into query, so loading the same query again yields the same state.
func (s *Synchronizer) LoadFromArgs(st *state.AppState, query url.Values) {
	if q := query.Get(ParamQuery); q != "" {
		st.SetSearchText(q)
	}

	if query.Has(ParamFuzzy) {
		st.SetFuzzy(true)
	}

	if ids := nonEmpty(query[ParamIndices]); len(ids) > 0 {
		st.SetOnLoadSelectedIndices(ids)
	}

	if v, ok := s.parseInt(query, ParamDateMin); ok {
		st.SetDateMin(&v)
	}
	if v, ok := s.parseInt(query, ParamDateMax); ok {
		st.SetDateMax(&v)
	}
	if v, ok := s.parseInt(query, ParamSizeMin); ok {
		st.SetSizeMin(&v)
	}
	if v, ok := s.parseInt(query, ParamSizeMax); ok {
		st.SetSizeMax(&v)
	}

	if p := query.Get(ParamPath); p != "" {
		st.SetPathText(p)
	}

	if m := query.Get(ParamMimes); m != "" {
		decoded, err := mimes.Decode(m)
		if err != nil {
			s.logger.Debug("ignoring malformed mime parameter", "value", m, "error", err)
		} else {
			st.SetOnLoadSelectedMimeTypes(decoded)
		}
	}

	if t := query.Get(ParamTags); t != "" {
		st.SetOnLoadSelectedTags(strings.Split(t, ","))
	}

	if sort := query.Get(ParamSort); sort != "" {
		st.SetSortMode(domain.SortMode(sort))
		if domain.SortMode(sort) == domain.SortRandom {
			if !query.Has(ParamSeed) {
				query.Set(ParamSeed, strconv.FormatInt(s.seed(), 10))
			}
			if v, ok := s.parseInt(query, ParamSeed); ok {
				st.SetSeed(v)
			}
		}
	}
}

// EncodeArgs renders the canonical query for st. Parameters at their empty
// default are omitted.
func EncodeArgs(st *state.AppState) url.Values {
	q := url.Values{}

	if text := strings.Join(strings.Fields(st.SearchText()), " "); text != "" {
		q.Set(ParamQuery, text)
	}

	if st.Fuzzy() {
		q.Set(ParamFuzzy, "")
	}

	if selected := st.SelectedIndices(); !isDefaultSelection(selected, st.Indices()) {
		for _, idx := range selected {
			q.Add(ParamIndices, idx.HexID())
		}
	}

	setInt(q, ParamDateMin, st.DateMin())
	setInt(q, ParamDateMax, st.DateMax())
	setInt(q, ParamSizeMin, st.SizeMin())
	setInt(q, ParamSizeMax, st.SizeMax())

	if p := st.PathText(); p != "" {
		q.Set(ParamPath, p)
	}

	if m := mimes.Encode(st.SelectedMimeTypes()); m != "" {
		q.Set(ParamMimes, m)
	}

	if tags := st.SelectedTags(); len(tags) > 0 {
		q.Set(ParamTags, strings.Join(tags, ","))
	}

	if mode := st.SortMode(); mode != domain.SortScore && mode != "" {
		q.Set(ParamSort, string(mode))
		if mode == domain.SortRandom {
			q.Set(ParamSeed, strconv.FormatInt(st.Seed(), 10))
		}
	}

	return q
}

// UpdateArgs pushes the canonical query for st to router. It does nothing
// unless the router is on the search view. Navigation failures are dropped:
// the state is already correct whether or not the URL changed.
func (s *Synchronizer) UpdateArgs(ctx context.Context, st *state.AppState, router Router) {
	if router.CurrentPath() != SearchViewPath {
		return
	}

	if err := router.Push(ctx, EncodeArgs(st)); err != nil {
		s.logger.Debug("navigation ignored", "error", err)
	}
}

// isDefaultSelection reports whether the selection is empty or covers the
// whole catalog, which is what loading without an i parameter produces
func isDefaultSelection(selected, catalog []domain.Index) bool {
	if len(selected) == 0 {
		return true
	}
	if len(selected) != len(catalog) {
		return false
	}
	ids := make(map[int64]bool, len(catalog))
	for _, idx := range catalog {
		ids[idx.ID] = true
	}
	for _, idx := range selected {
		if !ids[idx.ID] {
			return false
		}
	}
	return true
}

func (s *Synchronizer) parseInt(query url.Values, key string) (int64, bool) {
	raw := query.Get(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Number-like values such as "1.7e9" still carry meaning
		f, ferr := strconv.ParseFloat(raw, 64)
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
		if ferr != nil || math.IsNaN(f) || math.Abs(f) >= math.MaxInt64 {
			s.logger.Debug("ignoring non-numeric parameter", "param", key, "value", raw)
			return 0, false
		}
		v = int64(f)
	}
	return v, true
}

func setInt(q url.Values, key string, v *int64) {
	if v != nil {
		q.Set(key, strconv.FormatInt(*v, 10))
	}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
