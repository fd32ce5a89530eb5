package beatlab

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// eventSource is the CloudEvents source attribute for Manager events.
const eventSource = "beatlab/manager"

// Manager is the orchestrator: module registry, event bus and health
// tracker in one explicitly constructed object. It assigns identities at
// registration, fans out lifecycle operations, isolates per-module
// failures into health records, and relays named events to listeners.
//
// The Manager is the sole writer of its registry, health map and active
// pointer; modules never mutate them directly. All methods are safe for
// concurrent use. Listeners and update handlers run inline during the
// call that triggers them, so a listener that mutates the registry
// executes with the Manager's locks released.
type Manager struct {
	mu       sync.RWMutex
	logger   Logger
	bus      *eventBus
	modules  map[string]Module
	ids      map[Module]string
	order    []string
	health   map[string]ModuleHealth
	activeID string
}

// NewManager creates an empty Manager. A nil logger falls back to
// NopLogger. The Manager has no global instance: its lifetime is owned by
// the application shell that constructs it.
func NewManager(logger Logger) *Manager {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Manager{
		logger:  logger,
		bus:     newEventBus(logger),
		modules: make(map[string]Module),
		ids:     make(map[Module]string),
		health:  make(map[string]ModuleHealth),
	}
}

// Register stores the module under a freshly assigned id, creates a
// healthy health record, and emits EventModuleRegistered. The id is the
// module type plus a UUIDv7, so it is unique and time-ordered but never
// reproducible. Registering the same instance twice reports
// ErrModuleAlreadyRegistered.
func (m *Manager) Register(mod Module) (string, error) {
	if mod == nil {
		return "", ErrModuleNil
	}
	if !mod.Type().Valid() {
		return "", fmt.Errorf("%w: %q", ErrModuleTypeInvalid, mod.Type())
	}

	m.mu.Lock()
	if existing, ok := m.ids[mod]; ok {
		m.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrModuleAlreadyRegistered, existing)
	}
	id := newModuleID(mod.Type())
	m.modules[id] = mod
	m.ids[mod] = id
	m.order = append(m.order, id)
	m.health[id] = ModuleHealth{Healthy: true, LastChecked: time.Now()}
	m.mu.Unlock()

	m.logger.Info("module registered", "id", id, "type", mod.Type(), "name", mod.Metadata().Name)
	m.emit(context.Background(), EventModuleRegistered, ModuleRegisteredPayload{
		ID:   id,
		Type: mod.Type(),
		Name: mod.Metadata().Name,
	})
	return id, nil
}

// Unregister destroys and removes the module with the given id along with
// its health record, clearing the active pointer if it referenced this
// id, and emits EventModuleUnregistered. An unknown id is a no-op.
func (m *Manager) Unregister(ctx context.Context, id string) {
	m.mu.Lock()
	mod, ok := m.modules[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.modules, id)
	delete(m.ids, mod)
	delete(m.health, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.activeID == id {
		m.activeID = ""
	}
	m.mu.Unlock()

	if err := mod.Destroy(ctx); err != nil {
		m.logger.Error("module destroy failed during unregister", "id", id, "error", err)
	}

	m.logger.Info("module unregistered", "id", id, "type", mod.Type())
	m.emit(ctx, EventModuleUnregistered, ModuleUnregisteredPayload{ID: id})
}

// GetModule returns the module registered under id.
func (m *Manager) GetModule(id string) (Module, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mod, ok := m.modules[id]
	return mod, ok
}

// Modules returns all registered modules in registration order.
func (m *Manager) Modules() []Module {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Module, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.modules[id])
	}
	return out
}

// ModuleIDs returns all registered module ids in registration order.
func (m *Manager) ModuleIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// ModulesByType returns the registered modules of the given variant in
// registration order.
func (m *Manager) ModulesByType(t ModuleType) []Module {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Module
	for _, id := range m.order {
		if mod := m.modules[id]; mod.Type() == t {
			out = append(out, mod)
		}
	}
	return out
}

// ModuleID resolves the id assigned to a registered instance. This is how
// a module learns its own identity; asking for an unregistered instance
// reports ErrModuleNotFound, which indicates a usage error.
func (m *Manager) ModuleID(mod Module) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.ids[mod]
	if !ok {
		return "", ErrModuleNotFound
	}
	return id, nil
}

// SetActive points the active-module pointer at the given id and emits
// EventModuleActivated. If the id is not registered the pointer is left
// unchanged and nothing is emitted.
func (m *Manager) SetActive(ctx context.Context, id string) {
	m.mu.Lock()
	mod, ok := m.modules[id]
	if !ok {
		m.mu.Unlock()
		m.logger.Debug("ignoring activation of unknown module", "id", id)
		return
	}
	previous := m.modules[m.activeID]
	m.activeID = id
	m.mu.Unlock()

	if previous != nil && previous != mod {
		if act, ok := previous.(interface{ SetActive(bool) }); ok {
			act.SetActive(false)
		}
	}
	if act, ok := mod.(interface{ SetActive(bool) }); ok {
		act.SetActive(true)
	}

	m.logger.Info("module activated", "id", id)
	m.emit(ctx, EventModuleActivated, ModuleActivatedPayload{ID: id})
}

// ActiveModuleID returns the id the active pointer references, or the
// empty string when no module is active.
func (m *Manager) ActiveModuleID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeID
}

// InitializeAll initializes every registered module concurrently. Each
// call is wrapped so a failed initialization marks that module unhealthy
// and does not affect its siblings; InitializeAll returns only after
// every attempt has settled and emits EventModulesInitialized exactly
// once, even when some modules failed. Failures surface through the
// health queries, never as a returned aggregate.
func (m *Manager) InitializeAll(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	mods := make([]Module, 0, len(ids))
	for _, id := range ids {
		mods = append(mods, m.modules[id])
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for i, mod := range mods {
		wg.Add(1)
		go func(id string, mod Module) {
			defer wg.Done()
			if err := mod.Initialize(ctx); err != nil {
				m.logger.Error("module initialization failed", "id", id, "error", err)
				m.UpdateHealth(ctx, id, false, err)
				return
			}
			m.UpdateHealth(ctx, id, true, nil)
		}(ids[i], mod)
	}
	wg.Wait()

	m.logger.Info("module initialization settled", "modules", len(mods))
	m.emit(ctx, EventModulesInitialized, nil)
}

// DestroyAll destroys every registered module, swallowing and logging
// individual failures so each module gets a destroy attempt, then clears
// the registry, the health map and the active pointer, and emits
// EventModulesDestroyed.
func (m *Manager) DestroyAll(ctx context.Context) {
	m.mu.Lock()
	mods := make([]Module, 0, len(m.order))
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	for _, id := range m.order {
		mods = append(mods, m.modules[id])
	}
	m.modules = make(map[string]Module)
	m.ids = make(map[Module]string)
	m.health = make(map[string]ModuleHealth)
	m.order = nil
	m.activeID = ""
	m.mu.Unlock()

	for i, mod := range mods {
		if err := mod.Destroy(ctx); err != nil {
			m.logger.Error("module destroy failed", "id", ids[i], "error", err)
		}
	}

	m.logger.Info("all modules destroyed", "modules", len(mods))
	m.emit(ctx, EventModulesDestroyed, nil)
}

// UpdateHealth overwrites the health record for id unconditionally (an
// unknown id defines a record), stamps LastChecked, and emits
// EventModuleHealthUpdated.
func (m *Manager) UpdateHealth(ctx context.Context, id string, healthy bool, cause error) {
	record := ModuleHealth{Healthy: healthy, LastChecked: time.Now()}
	if cause != nil {
		record.LastError = cause.Error()
	}

	m.mu.Lock()
	m.health[id] = record
	m.mu.Unlock()

	m.emit(ctx, EventModuleHealthUpdated, ModuleHealthUpdatedPayload{
		ID:      id,
		Healthy: healthy,
		Error:   record.LastError,
	})
}

// GetHealth returns the health record for id.
func (m *Manager) GetHealth(id string) (ModuleHealth, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.health[id]
	return record, ok
}

// HealthyModules returns the ids of registered modules whose health
// record is healthy, in registration order.
func (m *Manager) HealthyModules() []string {
	return m.modulesWithHealth(true)
}

// UnhealthyModules returns the ids of registered modules whose health
// record is unhealthy, in registration order.
func (m *Manager) UnhealthyModules() []string {
	return m.modulesWithHealth(false)
}

func (m *Manager) modulesWithHealth(healthy bool) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, id := range m.order {
		if record, ok := m.health[id]; ok && record.Healthy == healthy {
			out = append(out, id)
		}
	}
	return out
}

// GetStats returns counts by type, healthy and unhealthy totals, and the
// active module id.
func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := Stats{
		TotalModules:   len(m.order),
		ModulesByType:  make(map[ModuleType]int),
		ActiveModuleID: m.activeID,
	}
	for _, id := range m.order {
		stats.ModulesByType[m.modules[id].Type()]++
		if record, ok := m.health[id]; ok && record.Healthy {
			stats.HealthyModules++
		} else {
			stats.UnhealthyModules++
		}
	}
	return stats
}

// On subscribes the listener to the named event. Subscribing the same
// listener ID twice is a no-op.
func (m *Manager) On(event string, l Listener) error {
	return m.bus.subscribe(event, l)
}

// Off removes the listener from the named event. Removing a listener that
// is not subscribed is a no-op.
func (m *Manager) Off(event string, l Listener) {
	m.bus.unsubscribe(event, l)
}

// emit wraps the payload in a CloudEvents envelope and delivers it. The
// Manager's locks are never held here, so listeners may safely call back
// into the Manager.
func (m *Manager) emit(ctx context.Context, eventType string, payload any) {
	m.bus.emit(ctx, NewEvent(eventType, eventSource, payload))
}

// newModuleID derives a fresh module id from the variant plus a UUIDv7.
func newModuleID(t ModuleType) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return fmt.Sprintf("%s-%s", t, id)
}
