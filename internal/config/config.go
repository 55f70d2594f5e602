package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-viper/mapstructure/v2"

	"docsift/internal/eventbus"
	"docsift/internal/state"
	"docsift/internal/storage"
)

// Version is the current schema version of the persisted settings record
const Version = 3

// StorageKey is the key the settings record is stored under
const StorageKey = "docsift_configuration"

const versionKey = "version"

// ErrVersionMismatch is returned when the stored record was written by a
// different schema version. The record has been removed by then.
var ErrVersionMismatch = errors.New("config: persisted settings version mismatch")

// Record is the flat persisted form: "version" plus one entry per option
type Record map[string]any

// ConfigService moves the options subset of a state between memory and storage
type ConfigService interface {
	LoadConfiguration(st *state.AppState) (bool, error)
	UpdateConfiguration(st *state.AppState) error
}

// Service is the storage-backed ConfigService
type Service struct {
	store  storage.Store
	bus    eventbus.EventBus
	logger *slog.Logger
	reload func(reason string)
}

// Option configures a Service
type Option func(*Service)

// WithBus publishes ConfigLoaded/ConfigSaved/ReloadRequested events on bus
func WithBus(bus eventbus.EventBus) Option {
	return func(s *Service) { s.bus = bus }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithReloader registers the action that restarts the session from defaults
// after a version mismatch
func WithReloader(fn func(reason string)) Option {
	return func(s *Service) { s.reload = fn }
}

// NewConfigService creates a config service over store
func NewConfigService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		bus:    eventbus.NullBus{},
		logger: slog.Default(),
		reload: func(string) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateConfiguration writes every option of st, tagged with Version
func (s *Service) UpdateConfiguration(st *state.AppState) error {
	record, err := Encode(st.Options())
	if err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := s.store.Set(StorageKey, data); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	s.bus.Publish(eventbus.ConfigSavedEvent{Key: StorageKey})
	return nil
}

// LoadConfiguration applies the stored record to st and reports whether one
// was found. A record of another version is removed without touching st,
// the reloader runs, and ErrVersionMismatch is returned. Options missing
// from a current record keep their defaults.
func (s *Service) LoadConfiguration(st *state.AppState) (bool, error) {
	record, ok, err := ReadRecord(s.store)
	if err != nil || !ok {
		return false, err
	}

	if v := record.Version(); v != Version {
		if err := s.store.Remove(StorageKey); err != nil {
			return false, fmt.Errorf("failed to clear stale config: %w", err)
		}
		reason := fmt.Sprintf("settings version %d, expected %d", v, Version)
		s.logger.Warn("discarding persisted settings", "found", v, "expected", Version)
		s.bus.Publish(eventbus.ReloadRequestedEvent{Reason: reason})
		s.reload(reason)
		return false, fmt.Errorf("%w: %s", ErrVersionMismatch, reason)
	}

	opts, missing, err := Decode(record)
	if err != nil {
		return false, err
	}
	if len(missing) > 0 {
		s.logger.Debug("persisted settings incomplete, using defaults", "missing", missing)
	}

	st.ReplaceOptions(opts)
	s.bus.Publish(eventbus.ConfigLoadedEvent{Key: StorageKey, Missing: missing})
	return true, nil
}

// ReadRecord returns the raw stored record, if any
func ReadRecord(store storage.Store) (Record, bool, error) {
	data, ok, err := store.Get(StorageKey)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read config: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, false, fmt.Errorf("failed to parse config: %w", err)
	}
	if record == nil {
		record = Record{}
	}
	return record, true, nil
}

// Reset removes the stored record
func Reset(store storage.Store) error {
	if err := store.Remove(StorageKey); err != nil {
		return fmt.Errorf("failed to reset config: %w", err)
	}
	return nil
}

// Version returns the record's version tag, 0 when absent or not a number
func (r Record) Version() int {
	switch v := r[versionKey].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Encode flattens opts into a Record tagged with Version
func Encode(opts state.Options) (Record, error) {
	flat := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &flat,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(opts); err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}

	record := Record(flat)
	// pointers stay in the map as-is; store the value
	if p, ok := record["optMlDefaultModel"].(*string); ok {
		if p == nil {
			record["optMlDefaultModel"] = nil
		} else {
			record["optMlDefaultModel"] = *p
		}
	}
	record[versionKey] = Version
	return record, nil
}

// Decode overlays record onto the default options. It returns the option
// keys the record did not carry, sorted.
func Decode(record Record) (state.Options, []string, error) {
	opts := state.DefaultOptions()
	var md mapstructure.Metadata

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Metadata: &md,
		Result:   &opts,
	})
	if err != nil {
		return state.Options{}, nil, err
	}
	if err := dec.Decode(map[string]any(record)); err != nil {
		return state.Options{}, nil, fmt.Errorf("failed to decode options: %w", err)
	}

	missing := append([]string(nil), md.Unset...)
	sort.Strings(missing)
	return opts, missing, nil
}
