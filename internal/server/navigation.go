package server

import (
	"context"
	"net/url"

	"docsift/internal/urlsync"
)

// navigator is the urlsync.Router for one client request. It knows the
// client's current location and records where the client should go next.
type navigator struct {
	path    string
	current url.Values

	location  string
	navigated bool
}

func newNavigator(path, rawQuery string) *navigator {
	current, err := url.ParseQuery(rawQuery)
	if err != nil {
		current = url.Values{}
	}
	return &navigator{
		path:     path,
		current:  current,
		location: Location(path, current),
	}
}

func (n *navigator) CurrentPath() string { return n.path }

func (n *navigator) Push(_ context.Context, query url.Values) error {
	if query.Encode() == n.current.Encode() {
		return urlsync.ErrRedundantNavigation
	}
	n.current = query
	n.location = Location(n.path, query)
	n.navigated = true
	return nil
}

// Location renders path plus query, without a dangling "?"
func Location(path string, query url.Values) string {
	if enc := query.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}
