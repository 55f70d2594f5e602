package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"docsift/internal/auth"
	"docsift/internal/config"
	"docsift/internal/domain"
	"docsift/internal/state"
	"docsift/internal/urlsync"
)

// StateView is the JSON form of a session's state
type StateView struct {
	SearchText    string          `json:"searchText"`
	PathText      string          `json:"pathText"`
	EmbeddingText string          `json:"embeddingText,omitempty"`
	Fuzzy         bool            `json:"fuzzy"`
	DateMin       *int64          `json:"dateMin"`
	DateMax       *int64          `json:"dateMax"`
	SizeMin       *int64          `json:"sizeMin"`
	SizeMax       *int64          `json:"sizeMax"`
	SortMode      domain.SortMode `json:"sortMode"`
	Seed          int64           `json:"seed"`

	Indices         []domain.Index     `json:"indices"`
	Tags            []domain.Tag       `json:"tags"`
	ServerInfo      *domain.ServerInfo `json:"serverInfo,omitempty"`
	SelectedIndices []string           `json:"selectedIndices"`
	MimeTypes       []string           `json:"selectedMimeTypes"`
	SelectedTags    []string           `json:"selectedTags"`

	KeySequence   int `json:"keySequence"`
	QuerySequence int `json:"querySequence"`

	Options  state.Options `json:"options"`
	Location string        `json:"location"`
}

func viewOf(st *state.AppState) StateView {
	selected := st.SelectedIndices()
	ids := make([]string, 0, len(selected))
	for _, idx := range selected {
		ids = append(ids, idx.HexID())
	}

	return StateView{
		SearchText:      st.SearchText(),
		PathText:        st.PathText(),
		EmbeddingText:   st.EmbeddingText(),
		Fuzzy:           st.Fuzzy(),
		DateMin:         st.DateMin(),
		DateMax:         st.DateMax(),
		SizeMin:         st.SizeMin(),
		SizeMax:         st.SizeMax(),
		SortMode:        st.SortMode(),
		Seed:            st.Seed(),
		Indices:         st.Indices(),
		Tags:            st.Tags(),
		ServerInfo:      st.ServerInfo(),
		SelectedIndices: ids,
		MimeTypes:       st.SelectedMimeTypes(),
		SelectedTags:    st.SelectedTags(),
		KeySequence:     st.KeySequence(),
		QuerySequence:   st.QuerySequence(),
		Options:         st.Options(),
		Location:        Location(urlsync.SearchViewPath, urlsync.EncodeArgs(st)),
	}
}

// criteriaPatch carries the criteria a client changed. Nil fields are left
// alone; Clear names the numeric bounds to reset.
type criteriaPatch struct {
	SearchText    *string  `json:"searchText"`
	PathText      *string  `json:"pathText"`
	EmbeddingText *string  `json:"embeddingText"`
	Fuzzy         *bool    `json:"fuzzy"`
	DateMin       *int64   `json:"dateMin"`
	DateMax       *int64   `json:"dateMax"`
	SizeMin       *int64   `json:"sizeMin"`
	SizeMax       *int64   `json:"sizeMax"`
	Indices       []string `json:"indices"`
	MimeTypes     []string `json:"mimeTypes"`
	Tags          []string `json:"tags"`
	Sort          *string  `json:"sort"`
	Seed          *int64   `json:"seed"`
	Clear         []string `json:"clear"`
}

type criteriaRequest struct {
	View     string        `json:"view"`
	Query    string        `json:"query"`
	Criteria criteriaPatch `json:"criteria"`
}

type criteriaResponse struct {
	Location  string `json:"location"`
	Navigated bool   `json:"navigated"`
}

// handleSearchView is a navigation to the search view: the query string is
// loaded into the state, then the catalog reconciles pending selections.
func (s *Server) handleSearchView(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOrError(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// A link describes the whole search, so nothing from an earlier one
	// survives it
	st := sess.state
	st.ResetCriteria()
	s.sync.LoadFromArgs(st, r.URL.Query())
	st.SetIndices(append([]domain.Index(nil), s.currentCatalog().Indices...))

	// The filter widgets live here, so pending mimes and tags land directly
	if pending := st.OnLoadSelectedMimeTypes(); len(pending) > 0 {
		st.SetSelectedMimeTypes(pending)
	}
	if pending := st.OnLoadSelectedTags(); len(pending) > 0 {
		st.SetSelectedTags(pending)
	}

	s.writeJSON(w, http.StatusOK, viewOf(st))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOrError(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.writeJSON(w, http.StatusOK, viewOf(sess.state))
}

func (s *Server) handleCriteria(w http.ResponseWriter, r *http.Request) {
	var req criteriaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.View == "" {
		req.View = urlsync.SearchViewPath
	}

	sess, ok := s.sessionOrError(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	s.applyCriteria(sess.state, req.Criteria)
	sess.state.NotifySearch()

	nav := newNavigator(req.View, strings.TrimPrefix(req.Query, "?"))
	s.sync.UpdateArgs(r.Context(), sess.state, nav)

	s.writeJSON(w, http.StatusOK, criteriaResponse{Location: nav.location, Navigated: nav.navigated})
}

func (s *Server) applyCriteria(st *state.AppState, p criteriaPatch) {
	if p.SearchText != nil {
		st.SetSearchText(*p.SearchText)
	}
	if p.PathText != nil {
		st.SetPathText(*p.PathText)
	}
	if p.EmbeddingText != nil {
		st.SetEmbeddingText(*p.EmbeddingText)
	}
	if p.Fuzzy != nil {
		st.SetFuzzy(*p.Fuzzy)
	}

	for _, field := range p.Clear {
		switch field {
		case "dateMin":
			st.SetDateMin(nil)
		case "dateMax":
			st.SetDateMax(nil)
		case "sizeMin":
			st.SetSizeMin(nil)
		case "sizeMax":
			st.SetSizeMax(nil)
		default:
			s.logger.Debug("ignoring unknown clear field", "field", field)
		}
	}
	if p.DateMin != nil {
		st.SetDateMin(p.DateMin)
	}
	if p.DateMax != nil {
		st.SetDateMax(p.DateMax)
	}
	if p.SizeMin != nil {
		st.SetSizeMin(p.SizeMin)
	}
	if p.SizeMax != nil {
		st.SetSizeMax(p.SizeMax)
	}

	if p.Indices != nil {
		byID := make(map[string]domain.Index, len(st.Indices()))
		for _, idx := range st.Indices() {
			byID[idx.HexID()] = idx
		}
		selected := make([]domain.Index, 0, len(p.Indices))
		for _, id := range p.Indices {
			if idx, ok := byID[strings.ToLower(id)]; ok {
				selected = append(selected, idx)
			}
		}
		st.SetSelectedIndices(selected)
	}
	if p.MimeTypes != nil {
		st.SetSelectedMimeTypes(p.MimeTypes)
	}
	if p.Tags != nil {
		st.SetSelectedTags(p.Tags)
	}

	if p.Sort != nil {
		mode := domain.SortMode(*p.Sort)
		if mode == domain.SortRandom && st.SortMode() != domain.SortRandom && p.Seed == nil {
			st.SetSeed(s.sync.NewSeed())
		}
		st.SetSortMode(mode)
	}
	if p.Seed != nil {
		st.SetSeed(*p.Seed)
	}
}

func (s *Server) handleGetOptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOrError(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.writeJSON(w, http.StatusOK, sess.state.Options())
}

// handlePutOptions applies a partial options document and persists the result
func (s *Server) handlePutOptions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, ok := s.sessionOrError(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	opts := sess.state.Options()
	if err := json.Unmarshal(body, &opts); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid options: "+err.Error())
		return
	}
	sess.state.ReplaceOptions(opts)
	// An explicit language is a user choice
	if _, ok := raw["optLang"]; ok {
		sess.state.SetOptLang(opts.Lang)
	}

	if err := sess.settings.UpdateConfiguration(sess.state); err != nil {
		s.logger.Error("failed to save settings", "session", sess.id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	s.writeJSON(w, http.StatusOK, sess.state.Options())
}

type loadOptionsResponse struct {
	Found  bool `json:"found"`
	Reload bool `json:"reload"`
}

func (s *Server) handleLoadOptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOrError(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	found, err := sess.settings.LoadConfiguration(sess.state)
	switch {
	case errors.Is(err, config.ErrVersionMismatch):
		s.writeJSON(w, http.StatusOK, loadOptionsResponse{Reload: true})
	case err != nil:
		s.logger.Error("failed to load settings", "session", sess.id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load settings")
	default:
		s.writeJSON(w, http.StatusOK, loadOptionsResponse{Found: found})
	}
}

// responseCookies writes cookies onto the response
type responseCookies struct {
	w http.ResponseWriter
}

func (c responseCookies) SetCookie(name, value string) {
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOrError(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := auth.LoadToken(r.Context(), s.tokens, sess.state, responseCookies{w: w}); err != nil {
		s.logger.Warn("token fetch failed", "session", sess.id, "error", err)
		s.writeError(w, http.StatusBadGateway, "token unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sequenceResponse struct {
	Sequence int `json:"sequence"`
}

func (s *Server) handleKeySequence(w http.ResponseWriter, r *http.Request) {
	s.withSequence(w, r, (*state.AppState).NextKeySequence)
}

func (s *Server) handleQuerySequence(w http.ResponseWriter, r *http.Request) {
	s.withSequence(w, r, (*state.AppState).IncrementQuerySequence)
}

func (s *Server) withSequence(w http.ResponseWriter, r *http.Request, next func(*state.AppState) int) {
	sess, ok := s.sessionOrError(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	n := next(sess.state)
	sess.mu.Unlock()

	s.writeJSON(w, http.StatusOK, sequenceResponse{Sequence: n})
}

func (s *Server) sessionOrError(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, err := s.session(w, r)
	if err != nil {
		s.logger.Error("session unavailable", "error", err)
		s.writeError(w, http.StatusInternalServerError, "session unavailable")
		return nil, false
	}
	return sess, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("response not written", "status", status, "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
