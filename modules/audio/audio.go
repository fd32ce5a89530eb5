// Package audio implements the audio engine module: it holds the pattern
// currently loaded for playback and drives a synthesis Engine behind a
// stable contract. Engine internals (synthesis, scheduling, output
// devices) are external collaborators.
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/beatlab/beatlab"
	"github.com/beatlab/beatlab/pattern"
)

// ModuleName is the display name of the audio module.
const ModuleName = "Audio Engine"

var (
	ErrNilPattern      = errors.New("pattern update carries no pattern")
	ErrNoPatternLoaded = errors.New("no pattern loaded for playback")
)

// Engine is the synthesis collaborator contract. Implementations promise
// that Play replaces whatever was playing, Stop is safe when idle, and
// Close releases output resources.
type Engine interface {
	// Prepare readies output resources. Called once during module
	// initialization.
	Prepare(ctx context.Context) error

	// Play starts (or restarts) playback of the pattern at the tempo.
	Play(ctx context.Context, p *pattern.Pattern, tempo int) error

	// Stop halts playback.
	Stop(ctx context.Context) error

	// Close releases the engine. No calls follow Close.
	Close() error
}

// NopEngine is the default Engine: it accepts every call and produces no
// sound. Useful for tests and for running the editor pipeline without an
// audio device.
type NopEngine struct{}

func (NopEngine) Prepare(context.Context) error                     { return nil }
func (NopEngine) Play(context.Context, *pattern.Pattern, int) error { return nil }
func (NopEngine) Stop(context.Context) error                        { return nil }
func (NopEngine) Close() error                                      { return nil }

// Module is the audio variant: current pattern plus playback state.
type Module struct {
	*beatlab.BaseModule

	mu      sync.RWMutex
	engine  Engine
	logger  beatlab.Logger
	pattern *pattern.Pattern
	playing bool
	tempo   int
	step    int
}

// New creates an audio module around the given engine. A nil engine
// falls back to NopEngine.
func New(engine Engine, logger beatlab.Logger) *Module {
	if engine == nil {
		engine = NopEngine{}
	}
	if logger == nil {
		logger = beatlab.NopLogger{}
	}
	m := &Module{
		engine: engine,
		logger: logger,
		tempo:  pattern.DefaultTempo,
	}
	meta := beatlab.Metadata{
		Name:        ModuleName,
		Description: "step-sequencer playback engine",
		Version:     "1.0.0",
		Capabilities: beatlab.Capabilities{
			Visualize: true,
			Analyze:   true,
		},
		Viz: beatlab.VisualizationConfig{
			Type:       beatlab.VisualizationChart,
			Component:  "WaveformChart",
			Responsive: true,
			RealTime:   true,
		},
	}
	m.BaseModule = beatlab.NewBaseModule(beatlab.ModuleTypeAudio, meta, m, logger)
	return m
}

// Data returns a snapshot of the loaded pattern and playback state.
func (m *Module) Data() beatlab.ModuleData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return beatlab.AudioData{
		Pattern: m.pattern.Clone(),
		Playing: m.playing,
		Tempo:   m.tempo,
		Step:    m.step,
	}
}

// OnInit prepares the engine's output resources.
func (m *Module) OnInit(ctx context.Context) error {
	if err := m.engine.Prepare(ctx); err != nil {
		return fmt.Errorf("prepare engine: %w", err)
	}
	return nil
}

// OnTeardown stops playback and releases the engine.
func (m *Module) OnTeardown(ctx context.Context) error {
	m.mu.Lock()
	m.playing = false
	m.mu.Unlock()
	if err := m.engine.Stop(ctx); err != nil {
		m.logger.Error("engine stop failed during teardown", "error", err)
	}
	return m.engine.Close()
}

// OnDataUpdate handles PatternUpdate and PlaybackUpdate.
func (m *Module) OnDataUpdate(ctx context.Context, update beatlab.DataUpdate) error {
	switch u := update.(type) {
	case beatlab.PatternUpdate:
		return m.adoptPattern(ctx, u)
	case beatlab.PlaybackUpdate:
		return m.setPlayback(ctx, u)
	default:
		return fmt.Errorf("%w: %T", beatlab.ErrUpdateUnsupported, update)
	}
}

// OnVisualizationUpdate is a no-op for the audio module; the chart view
// polls Data directly.
func (m *Module) OnVisualizationUpdate(context.Context, map[string]any) error {
	return nil
}

// adoptPattern replaces the loaded pattern and adopts its tempo. If
// playback is running, the engine restarts on the new pattern.
func (m *Module) adoptPattern(ctx context.Context, u beatlab.PatternUpdate) error {
	if u.Pattern == nil {
		return ErrNilPattern
	}

	m.mu.Lock()
	m.pattern = u.Pattern.Clone()
	m.tempo = u.Pattern.Tempo
	m.step = 0
	playing := m.playing
	current := m.pattern
	tempo := m.tempo
	m.mu.Unlock()

	m.logger.Info("pattern adopted", "source", u.Source, "steps", current.TotalSteps, "tempo", tempo)
	if playing {
		if err := m.engine.Play(ctx, current.Clone(), tempo); err != nil {
			return fmt.Errorf("restart playback: %w", err)
		}
	}
	return nil
}

// setPlayback starts or stops the engine. Starting without a loaded
// pattern is a data-update error, recorded on this module only.
func (m *Module) setPlayback(ctx context.Context, u beatlab.PlaybackUpdate) error {
	m.mu.Lock()
	if u.Tempo > 0 {
		m.tempo = u.Tempo
	}
	current := m.pattern.Clone()
	tempo := m.tempo
	m.mu.Unlock()

	if !u.Playing {
		m.mu.Lock()
		m.playing = false
		m.step = 0
		m.mu.Unlock()
		if err := m.engine.Stop(ctx); err != nil {
			return fmt.Errorf("stop playback: %w", err)
		}
		return nil
	}

	if current == nil {
		return ErrNoPatternLoaded
	}
	if err := m.engine.Play(ctx, current, tempo); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}
	m.mu.Lock()
	m.playing = true
	m.mu.Unlock()
	return nil
}

// SetStep lets an engine report the step the sequencer is on, for
// real-time visualization.
func (m *Module) SetStep(step int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.step = step
}
