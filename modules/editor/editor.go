// Package editor implements the text editor module: it owns the raw
// pattern text, validates and parses it, and propagates the parsed
// pattern to the audio module through the Manager.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/beatlab/beatlab"
	"github.com/beatlab/beatlab/pattern"
)

// ModuleName is the display name of the editor module.
const ModuleName = "Pattern Editor"

var (
	ErrInvalidContent = errors.New("content does not validate")
	ErrNoPattern      = errors.New("no valid pattern to edit")
)

// Module is the editor variant. The rendering of the editing surface is
// out of scope; this module owns content, validation state and the
// editor -> audio propagation.
type Module struct {
	*beatlab.BaseModule

	mu         sync.RWMutex
	dir        beatlab.Directory
	logger     beatlab.Logger
	content    string
	validation pattern.Validation
	parsed     *pattern.Pattern
}

// New creates an editor module. The directory is used for fresh
// lookup-at-use-time propagation to the audio module; initialContent, if
// non-empty, is validated and applied during Initialize.
func New(dir beatlab.Directory, initialContent string, logger beatlab.Logger) *Module {
	if logger == nil {
		logger = beatlab.NopLogger{}
	}
	m := &Module{
		dir:     dir,
		logger:  logger,
		content: initialContent,
	}
	meta := beatlab.Metadata{
		Name:        ModuleName,
		Description: "ASCII step-notation editor with live validation",
		Version:     "1.0.0",
		Capabilities: beatlab.Capabilities{
			Visualize: true,
			Export:    true,
			Import:    true,
			Share:     true,
		},
		Viz: beatlab.VisualizationConfig{
			Type:       beatlab.VisualizationGrid,
			Component:  "StepGrid",
			Props:      map[string]any{"showLineNumbers": true},
			Responsive: true,
			RealTime:   true,
		},
	}
	m.BaseModule = beatlab.NewBaseModule(beatlab.ModuleTypeEditor, meta, m, logger)
	return m
}

// Data returns a snapshot of the editor's content, validation state and
// last parsed pattern.
func (m *Module) Data() beatlab.ModuleData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return beatlab.EditorData{
		Content:    m.content,
		Validation: m.validation,
		Pattern:    m.parsed.Clone(),
	}
}

// OnInit applies the initial content, if any. Invalid initial content is
// an initialization error: the Manager records it as unhealthy but
// sibling modules are unaffected.
func (m *Module) OnInit(ctx context.Context) error {
	m.mu.RLock()
	content := m.content
	m.mu.RUnlock()
	if content == "" {
		return nil
	}
	return m.setContent(ctx, content)
}

// OnTeardown has nothing to release; the editor owns no external
// resources.
func (m *Module) OnTeardown(context.Context) error {
	return nil
}

// OnDataUpdate handles ContentUpdate and StepToggleUpdate.
func (m *Module) OnDataUpdate(ctx context.Context, update beatlab.DataUpdate) error {
	switch u := update.(type) {
	case beatlab.ContentUpdate:
		return m.setContent(ctx, u.Content)
	case beatlab.StepToggleUpdate:
		return m.toggleStep(ctx, u.Instrument, u.Step)
	default:
		return fmt.Errorf("%w: %T", beatlab.ErrUpdateUnsupported, update)
	}
}

// OnVisualizationUpdate merges incoming props into the grid view
// configuration held by the rendering layer; the editor itself has
// nothing to apply.
func (m *Module) OnVisualizationUpdate(_ context.Context, props map[string]any) error {
	m.logger.Debug("editor visualization updated", "props", len(props))
	return nil
}

// Export returns the current raw content. Callers should check the
// Export capability flag first.
func (m *Module) Export() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.content
}

// setContent stores the content, validates it, parses it on success and
// pushes the parsed pattern to the audio module. Validation failures are
// returned so the base lifecycle records them as the module's error; the
// validation lists stay available through Data either way.
func (m *Module) setContent(ctx context.Context, content string) error {
	v := pattern.Validate(content)

	m.mu.Lock()
	m.content = content
	m.validation = v
	if !v.IsValid {
		m.parsed = nil
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidContent, v.Errors[0])
	}
	m.mu.Unlock()

	parsed, err := pattern.Parse(content)
	if err != nil {
		m.mu.Lock()
		m.parsed = nil
		m.mu.Unlock()
		return fmt.Errorf("parse content: %w", err)
	}

	m.mu.Lock()
	m.parsed = parsed
	m.mu.Unlock()

	if len(v.Warnings) > 0 {
		m.logger.Warn("content validated with warnings", "warnings", len(v.Warnings))
	}
	m.propagate(ctx, parsed)
	return nil
}

// toggleStep round-trips the current pattern: parse result -> toggle one
// step -> serialize -> re-validate. Everything but the toggled step is
// preserved.
func (m *Module) toggleStep(ctx context.Context, instrument string, step int) error {
	m.mu.RLock()
	parsed := m.parsed.Clone()
	m.mu.RUnlock()
	if parsed == nil {
		return ErrNoPattern
	}
	if err := parsed.Toggle(instrument, step); err != nil {
		return err
	}
	return m.setContent(ctx, pattern.Format(parsed))
}

// propagate pushes the parsed pattern to the audio module via a fresh
// type lookup. A missing audio module is expected when the editor runs
// standalone.
func (m *Module) propagate(ctx context.Context, p *pattern.Pattern) {
	if m.dir == nil {
		m.logger.Warn("no module directory configured, skipping propagation")
		return
	}
	beatlab.PushToType(ctx, m.dir, m.logger, beatlab.ModuleTypeAudio, beatlab.PatternUpdate{
		Pattern: p.Clone(),
		Source:  string(beatlab.ModuleTypeEditor),
	})
}
