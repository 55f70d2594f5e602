package state

// DefaultMLRepositories is the built-in NER model repository list
const DefaultMLRepositories = "https://raw.githubusercontent.com/sist2app/sist2-ner-models/main/repo.json"

// Options holds the persisted user preferences. The field set is closed:
// persistence iterates exactly these fields, keyed by their json tags.
type Options struct {
	Lang           string `json:"optLang"`
	LangIsDefault  bool   `json:"optLangIsDefault"`
	HideDuplicates bool   `json:"optHideDuplicates"`
	Theme          string `json:"optTheme"`
	Display        string `json:"optDisplay"`
	FeaturedFields string `json:"optFeaturedFields"`

	Size          int    `json:"optSize"`
	Highlight     bool   `json:"optHighlight"`
	TagOrOperator bool   `json:"optTagOrOperator"`
	Fuzzy         bool   `json:"optFuzzy"`
	FragmentSize  int    `json:"optFragmentSize"`
	QueryMode     string `json:"optQueryMode"`
	SearchInPath  bool   `json:"optSearchInPath"`
	Columns       string `json:"optColumns"`
	SuggestPath   bool   `json:"optSuggestPath"`

	TreemapType               string `json:"optTreemapType"`
	TreemapTiling             string `json:"optTreemapTiling"`
	TreemapColorGroupingDepth int    `json:"optTreemapColorGroupingDepth"`
	TreemapSize               string `json:"optTreemapSize"`
	TreemapColor              string `json:"optTreemapColor"`

	LightboxLoadOnlyCurrent bool `json:"optLightboxLoadOnlyCurrent"`
	LightboxSlideDuration   int  `json:"optLightboxSlideDuration"`
	SimpleLightbox          bool `json:"optSimpleLightbox"`

	HideLegacy          bool `json:"optHideLegacy"`
	UpdateMimeMap       bool `json:"optUpdateMimeMap"`
	UseDatePicker       bool `json:"optUseDatePicker"`
	VidPreviewInterval  int  `json:"optVidPreviewInterval"`
	ShowTagPickerFilter bool `json:"optShowTagPickerFilter"`

	MLRepositories string  `json:"optMlRepositories"`
	AutoAnalyze    bool    `json:"optAutoAnalyze"`
	MLDefaultModel *string `json:"optMlDefaultModel"`
}

// DefaultOptions returns the built-in preference values
func DefaultOptions() Options {
	return Options{
		Lang:           "en",
		LangIsDefault:  true,
		HideDuplicates: true,
		Theme:          "light",
		Display:        "grid",

		Size:         60,
		Highlight:    true,
		Fuzzy:        true,
		FragmentSize: 200,
		QueryMode:    "simple",
		Columns:      "auto",
		SuggestPath:  true,

		TreemapType:               "cascaded",
		TreemapTiling:             "squarify",
		TreemapColorGroupingDepth: 3,
		TreemapSize:               "medium",
		TreemapColor:              "PuBuGn",

		LightboxSlideDuration: 15,
		SimpleLightbox:        true,

		VidPreviewInterval:  700,
		ShowTagPickerFilter: true,

		MLRepositories: DefaultMLRepositories,
	}
}

// Option setters. Each is the only way to change its field.

// SetOptLang records an explicit language choice
func (s *AppState) SetOptLang(v string) {
	s.options.Lang = v
	s.options.LangIsDefault = false
}

func (s *AppState) SetOptHideDuplicates(v bool) { s.options.HideDuplicates = v }
func (s *AppState) SetOptTheme(v string) { s.options.Theme = v }
func (s *AppState) SetOptDisplay(v string) { s.options.Display = v }
func (s *AppState) SetOptFeaturedFields(v string) { s.options.FeaturedFields = v }
func (s *AppState) SetOptResultSize(v int) { s.options.Size = v }
func (s *AppState) SetOptHighlight(v bool) { s.options.Highlight = v }
func (s *AppState) SetOptTagOrOperator(v bool) { s.options.TagOrOperator = v }
func (s *AppState) SetOptFuzzy(v bool) { s.options.Fuzzy = v }
func (s *AppState) SetOptFragmentSize(v int) { s.options.FragmentSize = v }
func (s *AppState) SetOptQueryMode(v string) { s.options.QueryMode = v }
func (s *AppState) SetOptSearchInPath(v bool) { s.options.SearchInPath = v }
func (s *AppState) SetOptColumns(v string) { s.options.Columns = v }
func (s *AppState) SetOptSuggestPath(v bool) { s.options.SuggestPath = v }
func (s *AppState) SetOptTreemapType(v string) { s.options.TreemapType = v }
func (s *AppState) SetOptTreemapTiling(v string) { s.options.TreemapTiling = v }
func (s *AppState) SetOptTreemapSize(v string) { s.options.TreemapSize = v }
func (s *AppState) SetOptTreemapColor(v string) { s.options.TreemapColor = v }
func (s *AppState) SetOptHideLegacy(v bool) { s.options.HideLegacy = v }
func (s *AppState) SetOptUpdateMimeMap(v bool) { s.options.UpdateMimeMap = v }
func (s *AppState) SetOptUseDatePicker(v bool) { s.options.UseDatePicker = v }
func (s *AppState) SetOptVidPreviewInterval(v int) { s.options.VidPreviewInterval = v }
func (s *AppState) SetOptSimpleLightbox(v bool) { s.options.SimpleLightbox = v }
func (s *AppState) SetOptAutoAnalyze(v bool) { s.options.AutoAnalyze = v }
func (s *AppState) SetOptMLRepositories(v string) { s.options.MLRepositories = v }
func (s *AppState) SetOptMLDefaultModel(v *string) { s.options.MLDefaultModel = v }

func (s *AppState) SetOptTreemapColorGroupingDepth(v int) { s.options.TreemapColorGroupingDepth = v }
func (s *AppState) SetOptLightboxLoadOnlyCurrent(v bool) { s.options.LightboxLoadOnlyCurrent = v }
func (s *AppState) SetOptLightboxSlideDuration(v int) { s.options.LightboxSlideDuration = v }
func (s *AppState) SetOptShowTagPickerFilter(v bool) { s.options.ShowTagPickerFilter = v }

// ReplaceOptions overwrites every option at once. Used when a persisted
// record is applied.
func (s *AppState) ReplaceOptions(o Options) {
	s.options = o
}

// Options returns a copy of the current preferences
func (s *AppState) Options() Options {
	o := s.options
	if o.MLDefaultModel != nil {
		m := *o.MLDefaultModel
		o.MLDefaultModel = &m
	}
	return o
}
