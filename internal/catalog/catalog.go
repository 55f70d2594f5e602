// Package catalog provides the index and tag catalog from a TOML file and
// re-delivers it whenever the file changes.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"docsift/internal/domain"
	"docsift/internal/eventbus"
	"docsift/internal/state"
)

// Catalog is everything the search backend advertises
type Catalog struct {
	Server  *domain.ServerInfo
	Indices []domain.Index
	Tags    []domain.Tag
}

// Apply hands the catalog to st. Setting the indices reconciles any
// pending index selection.
func (c *Catalog) Apply(st *state.AppState) {
	if c.Server != nil {
		st.SetServerInfo(c.Server)
	}
	st.SetTags(append([]domain.Tag(nil), c.Tags...))
	st.SetIndices(append([]domain.Index(nil), c.Indices...))
}

type file struct {
	Server  *serverEntry `toml:"server"`
	Indices []indexEntry `toml:"index"`
	Tags    []tagEntry   `toml:"tag"`
}

type serverEntry struct {
	Name     string `toml:"name"`
	Version  string `toml:"version"`
	Lang     string `toml:"lang"`
	Platform string `toml:"platform"`
	Dev      bool   `toml:"dev"`
}

type indexEntry struct {
	ID        string   `toml:"id"`
	Name      string   `toml:"name"`
	Version   string   `toml:"version"`
	Root      string   `toml:"root"`
	Timestamp int64    `toml:"timestamp"`
	Models    []string `toml:"models"`
}

type tagEntry struct {
	Name  string `toml:"name"`
	Color string `toml:"color"`
	Count int    `toml:"count"`
}

// Parse decodes a catalog document. Index ids are hexadecimal strings.
func Parse(data []byte) (*Catalog, error) {
	var f file
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		Indices: make([]domain.Index, 0, len(f.Indices)),
		Tags:    make([]domain.Tag, 0, len(f.Tags)),
	}
	if f.Server != nil {
		c.Server = &domain.ServerInfo{
			Name:     f.Server.Name,
			Version:  f.Server.Version,
			Lang:     f.Server.Lang,
			Platform: f.Server.Platform,
			Dev:      f.Server.Dev,
		}
	}

	seen := make(map[int64]bool, len(f.Indices))
	for _, e := range f.Indices {
		id, err := strconv.ParseInt(strings.TrimPrefix(strings.ToLower(e.ID), "0x"), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("index %q: bad id %q: %w", e.Name, e.ID, err)
		}
		if seen[id] {
			return nil, fmt.Errorf("index %q: duplicate id %q", e.Name, e.ID)
		}
		seen[id] = true
		c.Indices = append(c.Indices, domain.Index{
			ID:        id,
			Name:      e.Name,
			Version:   e.Version,
			Root:      e.Root,
			Timestamp: e.Timestamp,
			Models:    e.Models,
		})
	}

	for _, e := range f.Tags {
		c.Tags = append(c.Tags, domain.Tag{Name: e.Name, Color: e.Color, Count: e.Count})
	}
	return c, nil
}

// Load reads and parses the catalog file at path
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Provider owns the current catalog and announces every (re)load on the bus
type Provider struct {
	path     string
	bus      eventbus.EventBus
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.RWMutex
	current *Catalog
}

// NewProvider creates a provider for the file at path
func NewProvider(path string, bus eventbus.EventBus, logger *slog.Logger) *Provider {
	if bus == nil {
		bus = eventbus.NullBus{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		path:     path,
		bus:      bus,
		logger:   logger,
		debounce: 100 * time.Millisecond,
	}
}

// Current returns the last successfully loaded catalog, or an empty one
func (p *Provider) Current() *Catalog {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return &Catalog{}
	}
	return p.current
}

// Reload reads the file again. On failure the previous catalog stays current.
func (p *Provider) Reload() (*Catalog, error) {
	c, err := Load(p.path)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.current = c
	p.mu.Unlock()

	p.logger.Info("catalog loaded", "path", p.path, "indices", len(c.Indices), "tags", len(c.Tags))
	p.bus.Publish(eventbus.CatalogLoadedEvent{Indices: c.Indices, Tags: c.Tags})
	return c, nil
}

// Watch reloads the catalog whenever its file is written, until ctx is done.
// The parent directory is watched so editors that replace the file are seen.
func (p *Provider) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	target := filepath.Clean(p.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(p.debounce, func() {
				if _, err := p.Reload(); err != nil {
					p.logger.Error("catalog reload failed, keeping previous", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Error("watcher error", "error", err)
		}
	}
}
