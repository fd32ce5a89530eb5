package beatlab

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Behavior supplies the variant-specific portions of the module
// lifecycle. A module variant embeds BaseModule and passes itself as the
// behavior:
//
//	m := &EditorModule{...}
//	m.BaseModule = beatlab.NewBaseModule(beatlab.ModuleTypeEditor, meta, m, logger)
type Behavior interface {
	// OnInit performs variant-specific setup. An error here is re-raised
	// by Initialize so the Manager can record it in the health record.
	OnInit(ctx context.Context) error

	// OnTeardown releases variant-specific resources. Errors are logged
	// by Destroy and never raised further.
	OnTeardown(ctx context.Context) error

	// OnDataUpdate merges an incoming update into the variant's data.
	OnDataUpdate(ctx context.Context, update DataUpdate) error

	// OnVisualizationUpdate applies a visualization payload.
	OnVisualizationUpdate(ctx context.Context, props map[string]any) error
}

// BaseModule implements the shared module lifecycle: state transitions,
// destroy idempotence, error containment on data and visualization
// updates, and defensive copies of state and metadata. Variants embed it
// and add the variant-specific Data snapshot.
type BaseModule struct {
	mu        sync.RWMutex
	typ       ModuleType
	meta      Metadata
	behavior  Behavior
	logger    Logger
	state     State
	destroyed bool
}

// NewBaseModule creates the shared lifecycle core for a module variant.
// A nil logger falls back to NopLogger.
func NewBaseModule(typ ModuleType, meta Metadata, behavior Behavior, logger Logger) *BaseModule {
	if logger == nil {
		logger = NopLogger{}
	}
	return &BaseModule{
		typ:      typ,
		meta:     meta,
		behavior: behavior,
		logger:   logger,
	}
}

// Type returns the module's variant.
func (b *BaseModule) Type() ModuleType {
	return b.typ
}

// Metadata returns a copy of the module's metadata.
func (b *BaseModule) Metadata() Metadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	meta := b.meta
	meta.Viz = b.meta.Viz.clone()
	return meta
}

// State returns a snapshot of the module's lifecycle state.
func (b *BaseModule) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// VisualizationConfig returns a copy of the static visualization
// descriptor.
func (b *BaseModule) VisualizationConfig() VisualizationConfig {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.meta.Viz.clone()
}

// Destroyed reports whether the module has reached its terminal state.
func (b *BaseModule) Destroyed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.destroyed
}

// Initialize runs the variant's setup through its Behavior. It fails
// immediately on a destroyed module, clears any prior error, and re-raises
// setup failures after recording them in the module state.
func (b *BaseModule) Initialize(ctx context.Context) error {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return fmt.Errorf("initialize %s: %w", b.typ, ErrModuleDestroyed)
	}
	if b.behavior == nil {
		b.mu.Unlock()
		return fmt.Errorf("initialize %s: %w", b.typ, ErrBehaviorNil)
	}
	b.state.Loading = true
	b.state.Err = ""
	behavior := b.behavior
	b.mu.Unlock()

	err := behavior.OnInit(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Loading = false
	b.state.LastUpdated = time.Now()
	if err != nil {
		b.state.Err = err.Error()
		return fmt.Errorf("initialize %s: %w", b.typ, err)
	}
	b.state.Initialized = true
	return nil
}

// Destroy tears the module down. The first call runs the variant's
// teardown (failures are logged, never raised) and marks the module
// destroyed; every later call is a no-op.
func (b *BaseModule) Destroy(ctx context.Context) error {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return nil
	}
	b.destroyed = true
	behavior := b.behavior
	b.mu.Unlock()

	if behavior != nil {
		if err := behavior.OnTeardown(ctx); err != nil {
			b.logger.Error("module teardown failed", "type", b.typ, "error", err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Active = false
	b.state.Initialized = false
	b.state.Loading = false
	b.state.LastUpdated = time.Now()
	return nil
}

// UpdateData delegates to the variant's merge logic. On a destroyed
// module it is a no-op. A failed merge becomes the module's current
// error; a successful one clears it. The error is returned for the
// caller's information but is never fatal to orchestration.
func (b *BaseModule) UpdateData(ctx context.Context, update DataUpdate) error {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return nil
	}
	behavior := b.behavior
	b.mu.Unlock()

	if behavior == nil {
		return nil
	}

	err := behavior.OnDataUpdate(ctx, update)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.LastUpdated = time.Now()
	if err != nil {
		b.state.Err = err.Error()
		return fmt.Errorf("update %s data: %w", b.typ, err)
	}
	b.state.Err = ""
	return nil
}

// UpdateVisualization delegates to the variant's handler. Failures are
// logged, never raised.
func (b *BaseModule) UpdateVisualization(ctx context.Context, props map[string]any) {
	b.mu.RLock()
	destroyed := b.destroyed
	behavior := b.behavior
	b.mu.RUnlock()
	if destroyed || behavior == nil {
		return
	}
	if err := behavior.OnVisualizationUpdate(ctx, props); err != nil {
		b.logger.Error("visualization update failed", "type", b.typ, "error", err)
	}
}

// SetActive flags the module as the one currently in focus. The Manager
// calls this when the active pointer changes.
func (b *BaseModule) SetActive(active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	b.state.Active = active
}
