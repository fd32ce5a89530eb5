package beatlab

import (
	"context"
	"sync/atomic"
	"time"
)

// stubData is the payload stub modules expose.
type stubData struct {
	Value string
}

func (stubData) isModuleData() {}

// stubModule is a minimal Module for orchestration tests, with
// controllable behavior failures and call counters.
type stubModule struct {
	*BaseModule

	initErr     error
	teardownErr error
	updateErr   error
	initDelay   time.Duration

	initCalls     atomic.Int32
	teardownCalls atomic.Int32
	updateCalls   atomic.Int32

	lastUpdate DataUpdate
}

func newStubModule(t ModuleType, name string) *stubModule {
	m := &stubModule{}
	meta := Metadata{
		Name:    name,
		Version: "0.0.1",
		Viz: VisualizationConfig{
			Type:      VisualizationText,
			Component: "Stub",
			Props:     map[string]any{"rows": 4},
		},
	}
	m.BaseModule = NewBaseModule(t, meta, m, NopLogger{})
	return m
}

func (m *stubModule) Data() ModuleData {
	return stubData{Value: "stub"}
}

func (m *stubModule) OnInit(ctx context.Context) error {
	m.initCalls.Add(1)
	if m.initDelay > 0 {
		select {
		case <-time.After(m.initDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.initErr
}

func (m *stubModule) OnTeardown(context.Context) error {
	m.teardownCalls.Add(1)
	return m.teardownErr
}

func (m *stubModule) OnDataUpdate(_ context.Context, update DataUpdate) error {
	m.updateCalls.Add(1)
	m.lastUpdate = update
	return m.updateErr
}

func (m *stubModule) OnVisualizationUpdate(context.Context, map[string]any) error {
	return nil
}
