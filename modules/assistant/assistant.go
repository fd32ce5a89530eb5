// Package assistant implements the AI assistant module. Response
// generation is an external collaborator behind the Responder contract;
// the module owns the conversation history and the error containment
// around responder failures.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/beatlab/beatlab"
)

// ModuleName is the display name of the assistant module.
const ModuleName = "Pattern Assistant"

var ErrEmptyPrompt = errors.New("prompt is empty")

// Responder generates a reply for a prompt. Implementations may call a
// remote model; the module treats any returned error as a local,
// recoverable data-update failure.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// ResponderFunc adapts a function to the Responder contract.
type ResponderFunc func(ctx context.Context, prompt string) (string, error)

func (f ResponderFunc) Respond(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// cannedReplies back the default responder when no model is wired in.
var cannedReplies = []string{
	"Try offsetting the snare by one step for a pushed feel.",
	"Sparser hihats around the turnaround leave room for the kick.",
	"A rim hit on the last step makes a nice fill marker.",
	"Halving the tempo and doubling the grid gives finer swing control.",
}

// CannedResponder cycles through a fixed set of pattern tips. It is the
// default collaborator so the module works offline.
type CannedResponder struct {
	mu   sync.Mutex
	next int
}

func (r *CannedResponder) Respond(_ context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	reply := cannedReplies[r.next%len(cannedReplies)]
	r.next++
	return reply, nil
}

// Module is the assistant variant: a conversation history over a
// Responder.
type Module struct {
	*beatlab.BaseModule

	mu        sync.RWMutex
	responder Responder
	logger    beatlab.Logger
	history   []beatlab.Exchange
}

// New creates an assistant module. A nil responder falls back to the
// canned one.
func New(responder Responder, logger beatlab.Logger) *Module {
	if responder == nil {
		responder = &CannedResponder{}
	}
	if logger == nil {
		logger = beatlab.NopLogger{}
	}
	m := &Module{
		responder: responder,
		logger:    logger,
	}
	meta := beatlab.Metadata{
		Name:        ModuleName,
		Description: "assistant for pattern suggestions and analysis",
		Version:     "1.0.0",
		Capabilities: beatlab.Capabilities{
			Analyze: true,
			Share:   true,
		},
		Viz: beatlab.VisualizationConfig{
			Type:       beatlab.VisualizationThumbnail,
			Component:  "ChatPanel",
			Responsive: true,
		},
	}
	m.BaseModule = beatlab.NewBaseModule(beatlab.ModuleTypeAssistant, meta, m, logger)
	return m
}

// Data returns a copy of the conversation history.
func (m *Module) Data() beatlab.ModuleData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := make([]beatlab.Exchange, len(m.history))
	copy(history, m.history)
	return beatlab.AssistantData{History: history}
}

// OnInit has no external resources to acquire.
func (m *Module) OnInit(context.Context) error {
	return nil
}

// OnTeardown drops the history.
func (m *Module) OnTeardown(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = nil
	return nil
}

// OnDataUpdate handles PromptUpdate: the responder's reply is appended to
// the history; a responder failure is recorded as the module's error and
// affects nobody else.
func (m *Module) OnDataUpdate(ctx context.Context, update beatlab.DataUpdate) error {
	u, ok := update.(beatlab.PromptUpdate)
	if !ok {
		return fmt.Errorf("%w: %T", beatlab.ErrUpdateUnsupported, update)
	}
	if strings.TrimSpace(u.Prompt) == "" {
		return ErrEmptyPrompt
	}

	reply, err := m.responder.Respond(ctx, u.Prompt)
	if err != nil {
		return fmt.Errorf("respond: %w", err)
	}

	m.mu.Lock()
	m.history = append(m.history, beatlab.Exchange{
		Prompt: u.Prompt,
		Reply:  reply,
		At:     time.Now(),
	})
	m.mu.Unlock()
	return nil
}

// OnVisualizationUpdate is a no-op; the chat panel renders from Data.
func (m *Module) OnVisualizationUpdate(context.Context, map[string]any) error {
	return nil
}
