package domain

import "strconv"

// Index represents a searchable index in the catalog
type Index struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Version   string   `json:"version,omitempty"`
	Root      string   `json:"root,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`
	Models    []string `json:"models,omitempty"` // embedding models available in this index
}

// HexID returns the lowercase hexadecimal form used in URLs
func (i Index) HexID() string {
	return strconv.FormatInt(i.ID, 16)
}

// Tag represents a user tag available for filtering
type Tag struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Count int    `json:"count,omitempty"`
}

// Hit is a single document returned by the search backend
type Hit struct {
	ID     string         `json:"_id"`
	Index  string         `json:"_index,omitempty"`
	Score  float64        `json:"_score,omitempty"`
	Source map[string]any `json:"_source,omitempty"`
	Sort   []any          `json:"sort,omitempty"` // pagination cursor values
}

// Hits is the hits envelope of a result page
type Hits struct {
	Total int   `json:"total"`
	Hits  []Hit `json:"hits"`
}

// ResultPage is one page of search results. Only the hits are interpreted
// here; aggregations are carried for the display layer.
type ResultPage struct {
	Hits         Hits           `json:"hits"`
	Aggregations map[string]any `json:"aggregations,omitempty"`
	TookMillis   int            `json:"took,omitempty"`
}

// ServerInfo describes the search backend
type ServerInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Lang     string `json:"lang"`
	Platform string `json:"platform,omitempty"`
	Dev      bool   `json:"dev,omitempty"`
}

// MimeCount is a mime type with its document count
type MimeCount struct {
	Mime  string `json:"mime"`
	Count int    `json:"count"`
}

// LightboxEntry is one slide in the lightbox
type LightboxEntry struct {
	Source    string `json:"source"`
	Thumbnail string `json:"thumbnail"`
	Caption   string `json:"caption"`
	Type      string `json:"type"`
}

// ModelRef identifies a loaded ML model. Handle is opaque to the state.
type ModelRef struct {
	Name   string `json:"name"`
	Handle any    `json:"-"`
}

// SortMode is the ordering requested from the search backend
type SortMode string

const (
	SortScore    SortMode = "score"
	SortRandom   SortMode = "random"
	SortDateAsc  SortMode = "dateAsc"
	SortDateDesc SortMode = "dateDesc"
	SortSizeAsc  SortMode = "sizeAsc"
	SortSizeDesc SortMode = "sizeDesc"
	SortNameAsc  SortMode = "nameAsc"
	SortNameDesc SortMode = "nameDesc"
)
