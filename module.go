// Package beatlab provides the module orchestration core for the beatlab
// step-sequencer editing tool.
//
// A beatlab application is composed of independent modules (a text editor,
// an audio engine, an AI assistant, a pattern library) that have no
// compile-time knowledge of one another. The Manager owns the module
// registry, assigns identities, tracks per-module health, fans out
// lifecycle operations, and relays named events to listeners. Modules
// discover each other by declared type through the Manager at the moment
// data needs to flow, never by holding direct references.
//
// Basic usage:
//
//	mgr := beatlab.NewManager(logger)
//	id, err := mgr.Register(editorModule)
//	if err != nil {
//		log.Fatal(err)
//	}
//	mgr.InitializeAll(ctx)
package beatlab

import (
	"context"
	"time"
)

// ModuleType identifies a module variant. The set is closed: the Manager
// and the propagation helpers only deal in these four variants, and
// variant-specific payloads are dispatched by type switch rather than
// dynamic lookup.
type ModuleType string

const (
	ModuleTypeEditor    ModuleType = "editor"
	ModuleTypeAudio     ModuleType = "audio"
	ModuleTypeAssistant ModuleType = "assistant"
	ModuleTypeLibrary   ModuleType = "library"
)

// Valid reports whether t is one of the known module variants.
func (t ModuleType) Valid() bool {
	switch t {
	case ModuleTypeEditor, ModuleTypeAudio, ModuleTypeAssistant, ModuleTypeLibrary:
		return true
	}
	return false
}

// Capabilities declares which optional operations a module supports.
// Consumers must check the relevant flag before exposing or invoking the
// corresponding variant-specific operation.
type Capabilities struct {
	Visualize bool `json:"canVisualize"`
	Export    bool `json:"canExport"`
	Import    bool `json:"canImport"`
	Share     bool `json:"canShare"`
	Analyze   bool `json:"canAnalyze"`
}

// VisualizationType selects which view the rendering layer mounts for a
// module's data.
type VisualizationType string

const (
	VisualizationGrid      VisualizationType = "grid"
	VisualizationChart     VisualizationType = "chart"
	VisualizationThumbnail VisualizationType = "thumbnail"
	VisualizationText      VisualizationType = "text"
)

// VisualizationConfig is the static descriptor consumed by a rendering
// layer. RealTime signals that the view should poll Data() on a short
// fixed interval (the reference cadence is 100ms) instead of relying
// solely on events.
type VisualizationConfig struct {
	Type       VisualizationType `json:"type"`
	Component  string            `json:"component"`
	Props      map[string]any    `json:"props,omitempty"`
	Responsive bool              `json:"responsive"`
	RealTime   bool              `json:"realTime"`
}

// clone returns a copy safe to hand to callers.
func (v VisualizationConfig) clone() VisualizationConfig {
	out := v
	if v.Props != nil {
		out.Props = make(map[string]any, len(v.Props))
		for k, val := range v.Props {
			out.Props[k] = val
		}
	}
	return out
}

// Metadata describes a module instance for registries, status surfaces
// and rendering layers.
type Metadata struct {
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	Version      string              `json:"version"`
	Capabilities Capabilities        `json:"capabilities"`
	Viz          VisualizationConfig `json:"visualization"`
}

// State is a snapshot of a module's lifecycle state. It is always
// returned by value so callers cannot mutate module internals through it.
type State struct {
	Active      bool      `json:"isActive"`
	Initialized bool      `json:"isInitialized"`
	Loading     bool      `json:"isLoading"`
	Err         string    `json:"error,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Module is the contract every functional unit implements to be managed
// by the Manager. Implementations embed BaseModule for the shared
// lifecycle and add the variant-specific Data snapshot.
//
// Lifecycle: Uninitialized -> Initializing -> Ready or Errored; Errored is
// non-terminal (a later data update may clear it). Destroy moves the
// module to its terminal state; after that every lifecycle operation is a
// no-op except Initialize, which reports ErrModuleDestroyed.
type Module interface {
	// Type returns the module's variant. It is fixed at construction.
	Type() ModuleType

	// Metadata returns a copy of the module's descriptive metadata.
	Metadata() Metadata

	// State returns a snapshot of the module's lifecycle state.
	State() State

	// Data returns a defensive copy of the variant-specific payload.
	Data() ModuleData

	// Initialize prepares the module for use. Failures are re-raised so
	// the Manager can record them in the module's health record.
	Initialize(ctx context.Context) error

	// UpdateData merges an incoming update into the module's data. A
	// failed merge is recorded as the module's current error and returned;
	// it is never fatal to the orchestration layer.
	UpdateData(ctx context.Context, update DataUpdate) error

	// UpdateVisualization applies a visualization payload. Failures are
	// logged, never raised.
	UpdateVisualization(ctx context.Context, props map[string]any)

	// VisualizationConfig returns a copy of the static visualization
	// descriptor.
	VisualizationConfig() VisualizationConfig

	// Destroy tears the module down. It is idempotent and teardown
	// failures are logged, never raised; the module is marked destroyed
	// regardless.
	Destroy(ctx context.Context) error
}
