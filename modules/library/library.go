// Package library implements the pattern library module: named pattern
// records persisted as an ordered JSON sequence under a fixed key in an
// external key-value store. When the store is file backed, an fsnotify
// watcher reloads entries changed from outside the process.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beatlab/beatlab"
	"github.com/beatlab/beatlab/pattern"
	"github.com/beatlab/beatlab/store"
)

// ModuleName is the display name of the library module.
const ModuleName = "Pattern Library"

// StoreKey is the fixed key all records live under.
const StoreKey = "beatlab:patterns"

var (
	ErrNameEmpty      = errors.New("record name is empty")
	ErrRecordNotFound = errors.New("record not found")
)

// Module is the library variant. It owns the store handle it is given
// and closes it on teardown.
type Module struct {
	*beatlab.BaseModule

	mu      sync.RWMutex
	st      store.Store
	logger  beatlab.Logger
	entries []beatlab.PatternRecord
	watcher *storeWatcher
}

// New creates a library module over the given store.
func New(st store.Store, logger beatlab.Logger) *Module {
	if logger == nil {
		logger = beatlab.NopLogger{}
	}
	m := &Module{
		st:     st,
		logger: logger,
	}
	meta := beatlab.Metadata{
		Name:        ModuleName,
		Description: "saved pattern collection with persistence",
		Version:     "1.0.0",
		Capabilities: beatlab.Capabilities{
			Export: true,
			Import: true,
			Share:  true,
		},
		Viz: beatlab.VisualizationConfig{
			Type:       beatlab.VisualizationThumbnail,
			Component:  "PatternShelf",
			Responsive: true,
		},
	}
	m.BaseModule = beatlab.NewBaseModule(beatlab.ModuleTypeLibrary, meta, m, logger)
	return m
}

// Data returns a deep copy of the current entries.
func (m *Module) Data() beatlab.ModuleData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return beatlab.LibraryData{Entries: cloneRecords(m.entries)}
}

// OnInit loads the persisted records. A failing load (store unavailable,
// corrupt payload) is an initialization error: this module goes
// unhealthy, siblings are untouched. A file-backed store additionally
// gets a watcher that reloads on external changes.
func (m *Module) OnInit(ctx context.Context) error {
	if err := m.load(ctx); err != nil {
		return err
	}
	if fs, ok := m.st.(*store.FileStore); ok {
		w, err := newStoreWatcher(fs.Path(StoreKey), m.logger, func() {
			if err := m.load(context.Background()); err != nil {
				m.logger.Error("library reload failed", "error", err)
				return
			}
			m.logger.Info("library reloaded after external change")
		})
		if err != nil {
			// Watching is best effort; the library still works without it.
			m.logger.Warn("library watcher unavailable", "error", err)
			return nil
		}
		m.watcher = w
	}
	return nil
}

// OnTeardown stops the watcher and closes the store.
func (m *Module) OnTeardown(context.Context) error {
	if m.watcher != nil {
		m.watcher.close()
		m.watcher = nil
	}
	if m.st != nil {
		return m.st.Close()
	}
	return nil
}

// OnDataUpdate handles SaveUpdate and RemoveUpdate.
func (m *Module) OnDataUpdate(ctx context.Context, update beatlab.DataUpdate) error {
	switch u := update.(type) {
	case beatlab.SaveUpdate:
		return m.save(ctx, u)
	case beatlab.RemoveUpdate:
		return m.remove(ctx, u.ID)
	default:
		return fmt.Errorf("%w: %T", beatlab.ErrUpdateUnsupported, update)
	}
}

// OnVisualizationUpdate is a no-op; the shelf renders from Data.
func (m *Module) OnVisualizationUpdate(context.Context, map[string]any) error {
	return nil
}

// Find returns the record with the given name.
func (m *Module) Find(name string) (beatlab.PatternRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.entries {
		if rec.Name == name {
			return cloneRecord(rec), true
		}
	}
	return beatlab.PatternRecord{}, false
}

// save validates and parses the content, then inserts a new record or
// updates the existing one with the same name (keeping its id and
// creation time).
func (m *Module) save(ctx context.Context, u beatlab.SaveUpdate) error {
	if u.Name == "" {
		return ErrNameEmpty
	}
	parsed, err := pattern.Parse(u.Content)
	if err != nil {
		return fmt.Errorf("save %q: %w", u.Name, err)
	}

	now := time.Now()
	tags := append([]string{}, u.Tags...)
	sort.Strings(tags)

	m.mu.Lock()
	updated := false
	for i, rec := range m.entries {
		if rec.Name == u.Name {
			rec.Content = u.Content
			rec.Pattern = parsed
			rec.Metadata.Tempo = parsed.Tempo
			rec.Metadata.Complexity = parsed.Complexity()
			rec.Metadata.Tags = tags
			rec.Metadata.UpdatedAt = now
			m.entries[i] = rec
			updated = true
			break
		}
	}
	if !updated {
		m.entries = append(m.entries, beatlab.PatternRecord{
			ID:      uuid.NewString(),
			Name:    u.Name,
			Content: u.Content,
			Pattern: parsed,
			Metadata: beatlab.RecordMetadata{
				Tempo:      parsed.Tempo,
				Complexity: parsed.Complexity(),
				Tags:       tags,
				CreatedAt:  now,
				UpdatedAt:  now,
			},
		})
	}
	snapshot := cloneRecords(m.entries)
	m.mu.Unlock()

	return m.persist(ctx, snapshot)
}

// remove deletes a record by id. Removing an unknown id is a data-update
// error on this module, nothing more.
func (m *Module) remove(ctx context.Context, id string) error {
	m.mu.Lock()
	index := -1
	for i, rec := range m.entries {
		if rec.ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	m.entries = append(m.entries[:index], m.entries[index+1:]...)
	snapshot := cloneRecords(m.entries)
	m.mu.Unlock()

	return m.persist(ctx, snapshot)
}

// load replaces the in-memory entries with the persisted ones. A missing
// key is an empty library, not an error.
func (m *Module) load(ctx context.Context) error {
	data, err := m.st.Get(ctx, StoreKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		m.mu.Lock()
		m.entries = nil
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}

	var entries []beatlab.PatternRecord
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decode library: %w", err)
	}

	m.mu.Lock()
	m.entries = entries
	m.mu.Unlock()
	return nil
}

func (m *Module) persist(ctx context.Context, entries []beatlab.PatternRecord) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode library: %w", err)
	}
	if err := m.st.Put(ctx, StoreKey, data); err != nil {
		return fmt.Errorf("persist library: %w", err)
	}
	return nil
}

func cloneRecord(rec beatlab.PatternRecord) beatlab.PatternRecord {
	out := rec
	out.Pattern = rec.Pattern.Clone()
	out.Metadata.Tags = append([]string{}, rec.Metadata.Tags...)
	return out
}

func cloneRecords(entries []beatlab.PatternRecord) []beatlab.PatternRecord {
	out := make([]beatlab.PatternRecord, len(entries))
	for i, rec := range entries {
		out[i] = cloneRecord(rec)
	}
	return out
}
