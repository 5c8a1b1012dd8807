package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

// storageKey is the key the settings document is stored under.
const storageKey = "settings"

var (
	// ErrPinIndex is returned when a pin index is out of range.
	ErrPinIndex = errors.New("pin index out of range")
	// ErrUnknownKey is returned when setting a key for an unknown provider.
	ErrUnknownKey = errors.New("unknown key provider")
	// ErrUnknownAsset is returned when selecting a background that isn't saved.
	ErrUnknownAsset = errors.New("unknown background asset")
)

// document is the persisted form. Sections are pointers so that a missing
// section can be told apart from an empty one.
type document struct {
	Background *Background `json:"background"`
	Keys       *Keys       `json:"keys"`
	Pins       []Pin       `json:"pins"`
}

// Manager owns the current settings, persists every change and notifies
// subscribers with the new snapshot.
type Manager struct {
	storage Storage
	log     zerolog.Logger

	mu   sync.RWMutex
	snap Snapshot
	subs map[int]chan Snapshot
	next int
}

// Load reads settings from storage, repairing missing sections with
// defaults. A repaired document is written back after the storage is reset.
func Load(ctx context.Context, storage Storage, log zerolog.Logger) (*Manager, error) {
	m := &Manager{
		storage: storage,
		log:     log.With().Str("component", "settings").Logger(),
		subs:    make(map[int]chan Snapshot),
	}

	data, ok, err := storage.Get(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	var doc document
	if ok {
		if err := json.Unmarshal(data, &doc); err != nil {
			m.log.Error().Err(err).Msg("Settings unreadable, using defaults")
			doc = document{}
		}
	}

	snap, repaired := m.verifyIntegrity(doc, ok)
	m.snap = snap

	if repaired {
		m.log.Debug().Msg("Resetting settings storage")
		if err := storage.Reset(ctx); err != nil {
			return nil, fmt.Errorf("resetting settings storage: %w", err)
		}
		if err := m.save(ctx, snap); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) verifyIntegrity(doc document, found bool) (Snapshot, bool) {
	defaults := Default()
	if !found {
		m.log.Warn().Msg("Settings not found, using default settings")
		return defaults, true
	}

	var snap Snapshot
	repaired := false

	if doc.Background == nil {
		m.log.Warn().Msg("Background not found, using default settings")
		snap.Background = defaults.Background
		repaired = true
	} else {
		snap.Background = *doc.Background
		if snap.Background.SavedAssets == nil {
			m.log.Warn().Msg("Saved assets not found, using default settings")
			snap.Background.SavedAssets = defaults.Background.SavedAssets
			repaired = true
		}
	}

	if doc.Keys == nil {
		m.log.Warn().Msg("Keys not found, using default settings")
		repaired = true
	} else {
		snap.Keys = *doc.Keys
	}

	if doc.Pins == nil {
		m.log.Warn().Msg("Pins not found, using default settings")
		snap.Pins = defaults.Pins
		repaired = true
	} else {
		snap.Pins = doc.Pins
	}

	return snap, repaired
}

// Snapshot returns a copy of the current settings.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.clone()
}

// AddPin appends a pin.
func (m *Manager) AddPin(ctx context.Context, pin Pin) error {
	return m.update(ctx, func(s *Snapshot) error {
		s.Pins = append(s.Pins, pin)
		return nil
	})
}

// RemovePin removes the pin at the zero-based index.
func (m *Manager) RemovePin(ctx context.Context, index int) error {
	return m.update(ctx, func(s *Snapshot) error {
		if index < 0 || index >= len(s.Pins) {
			return fmt.Errorf("%w: %d", ErrPinIndex, index)
		}
		s.Pins = slices.Delete(s.Pins, index, index+1)
		return nil
	})
}

// SetKey stores the API key for a completion provider. An empty key
// removes it.
func (m *Manager) SetKey(ctx context.Context, provider, key string) error {
	return m.update(ctx, func(s *Snapshot) error {
		switch provider {
		case "openai":
			s.Keys.OpenAI = key
		case "anthropic":
			s.Keys.Anthropic = key
		default:
			return fmt.Errorf("%w: %s", ErrUnknownKey, provider)
		}
		return nil
	})
}

// AddBackground saves a background asset.
func (m *Manager) AddBackground(ctx context.Context, asset Asset) error {
	return m.update(ctx, func(s *Snapshot) error {
		s.Background.SavedAssets = append(s.Background.SavedAssets, asset)
		m.log.Debug().Str("asset_id", asset.ID).Str("type", string(asset.Type)).Msg("Added background")
		return nil
	})
}

// SetCurrentBackground selects a saved background by id.
func (m *Manager) SetCurrentBackground(ctx context.Context, id string) error {
	return m.update(ctx, func(s *Snapshot) error {
		if !slices.ContainsFunc(s.Background.SavedAssets, func(a Asset) bool { return a.ID == id }) {
			return fmt.Errorf("%w: %s", ErrUnknownAsset, id)
		}
		s.Background.SelectedAssetID = id
		m.log.Debug().Str("asset_id", id).Msg("Set current background")
		return nil
	})
}

// Subscribe returns a channel that receives every new snapshot after a
// change, and a function that cancels the subscription. Slow subscribers
// only ever see the latest snapshot.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.next
	m.next++
	ch := make(chan Snapshot, 1)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
}

func (m *Manager) update(ctx context.Context, fn func(*Snapshot) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.snap.clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := m.save(ctx, next); err != nil {
		return err
	}
	m.snap = next
	m.broadcast(next)
	return nil
}

func (m *Manager) save(ctx context.Context, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := m.storage.Set(ctx, storageKey, data); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// broadcast must be called with m.mu held.
func (m *Manager) broadcast(snap Snapshot) {
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap.clone()
	}
}
