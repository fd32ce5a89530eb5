package beatlab

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthMonitorSweep(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(nil)

	ok := newStubModule(ModuleTypeEditor, "ok")
	bad := newStubModule(ModuleTypeAudio, "bad")
	bad.initErr = errBoom

	idOK, err := mgr.Register(ok)
	require.NoError(t, err)
	idBad, err := mgr.Register(bad)
	require.NoError(t, err)
	mgr.InitializeAll(ctx)

	before, found := mgr.GetHealth(idOK)
	require.True(t, found)

	monitor := NewHealthMonitor(mgr, "@every 1h", nil)
	time.Sleep(time.Millisecond)
	monitor.Sweep(ctx)

	// The healthy module stays healthy with a fresh timestamp.
	record, found := mgr.GetHealth(idOK)
	require.True(t, found)
	assert.True(t, record.Healthy)
	assert.True(t, record.LastChecked.After(before.LastChecked))

	// The failed module stays unhealthy and keeps its cause.
	record, found = mgr.GetHealth(idBad)
	require.True(t, found)
	assert.False(t, record.Healthy)
	assert.Contains(t, record.LastError, "boom")
}

func TestHealthMonitorRecovery(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(nil)

	m := newStubModule(ModuleTypeEditor, "flaky")
	m.updateErr = errBoom
	id, err := mgr.Register(m)
	require.NoError(t, err)
	mgr.InitializeAll(ctx)

	require.Error(t, m.UpdateData(ctx, ContentUpdate{Content: "x"}))

	monitor := NewHealthMonitor(mgr, "@every 1h", nil)
	monitor.Sweep(ctx)
	record, found := mgr.GetHealth(id)
	require.True(t, found)
	assert.False(t, record.Healthy)

	// Once a later update succeeds the next sweep marks it healthy again.
	m.updateErr = nil
	require.NoError(t, m.UpdateData(ctx, ContentUpdate{Content: "x"}))
	monitor.Sweep(ctx)
	record, found = mgr.GetHealth(id)
	require.True(t, found)
	assert.True(t, record.Healthy)
}

func TestHealthMonitorStartStop(t *testing.T) {
	mgr := NewManager(nil)
	monitor := NewHealthMonitor(mgr, "@every 1h", nil)
	require.NoError(t, monitor.Start())
	monitor.Stop()
}

func TestHealthMonitorBadSchedule(t *testing.T) {
	monitor := NewHealthMonitor(NewManager(nil), "every now and then", nil)
	assert.Error(t, monitor.Start())
}
