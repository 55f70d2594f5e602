// Package mimes implements the compact mime-list encoding used by the m
// query parameter.
//
// A list is grouped by major type and written as "key:sub,sub;key:sub".
// Common major types use a one-letter key, other major types are written as
// "~" followed by the escaped name, and entries without a slash go under the
// "!" key. Every component is query-escaped, so the separators never occur
// inside one. Output is sorted, so equal sets encode identically.
package mimes

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

const (
	groupSep   = ";"
	keySep     = ":"
	subSep     = ","
	customKey  = "~"
	noSlashKey = "!"
)

var abbreviations = map[string]string{
	"application": "a",
	"audio":       "u",
	"font":        "f",
	"image":       "i",
	"message":     "s",
	"model":       "m",
	"multipart":   "p",
	"text":        "t",
	"video":       "v",
}

var expansions = func() map[string]string {
	m := make(map[string]string, len(abbreviations))
	for major, key := range abbreviations {
		m[key] = major
	}
	return m
}()

// Encode returns the compact form of mimes. An empty list encodes to "".
func Encode(mimes []string) string {
	if len(mimes) == 0 {
		return ""
	}

	groups := make(map[string]map[string]bool)
	for _, mime := range mimes {
		key, sub := split(mime)
		if groups[key] == nil {
			groups[key] = make(map[string]bool)
		}
		groups[key][url.QueryEscape(sub)] = true
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		subs := make([]string, 0, len(groups[key]))
		for sub := range groups[key] {
			subs = append(subs, sub)
		}
		sort.Strings(subs)
		parts = append(parts, key+keySep+strings.Join(subs, subSep))
	}
	return strings.Join(parts, groupSep)
}

// Decode reverses Encode. The result is sorted by group key, then subtype.
func Decode(s string) ([]string, error) {
	if s == "" {
		return []string{}, nil
	}

	var out []string
	for _, group := range strings.Split(s, groupSep) {
		key, subs, ok := strings.Cut(group, keySep)
		if !ok {
			return nil, fmt.Errorf("mimes: group %q has no key", group)
		}

		major, slash, err := expand(key)
		if err != nil {
			return nil, err
		}

		for _, escaped := range strings.Split(subs, subSep) {
			sub, err := url.QueryUnescape(escaped)
			if err != nil {
				return nil, fmt.Errorf("mimes: bad subtype %q: %w", escaped, err)
			}
			if slash {
				out = append(out, major+"/"+sub)
			} else {
				out = append(out, sub)
			}
		}
	}
	return out, nil
}

func split(mime string) (key, sub string) {
	major, sub, ok := strings.Cut(mime, "/")
	if !ok {
		return noSlashKey, mime
	}
	if abbr, ok := abbreviations[major]; ok {
		return abbr, sub
	}
	return customKey + url.QueryEscape(major), sub
}

func expand(key string) (major string, slash bool, err error) {
	switch {
	case key == noSlashKey:
		return "", false, nil
	case strings.HasPrefix(key, customKey):
		major, err := url.QueryUnescape(key[len(customKey):])
		if err != nil {
			return "", false, fmt.Errorf("mimes: bad major type %q: %w", key, err)
		}
		return major, true, nil
	}
	major, ok := expansions[key]
	if !ok {
		return "", false, fmt.Errorf("mimes: unknown major type key %q", key)
	}
	return major, true, nil
}
