package beatlab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseModuleInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("records_success_in_state", func(t *testing.T) {
		m := newStubModule(ModuleTypeEditor, "a")
		require.NoError(t, m.Initialize(ctx))

		state := m.State()
		assert.True(t, state.Initialized)
		assert.False(t, state.Loading)
		assert.Empty(t, state.Err)
		assert.False(t, state.LastUpdated.IsZero())
		assert.EqualValues(t, 1, m.initCalls.Load())
	})

	t.Run("records_failure_and_reraises", func(t *testing.T) {
		m := newStubModule(ModuleTypeAudio, "a")
		m.initErr = errBoom

		err := m.Initialize(ctx)
		require.ErrorIs(t, err, errBoom)

		state := m.State()
		assert.False(t, state.Initialized)
		assert.False(t, state.Loading)
		assert.Equal(t, "boom", state.Err)
	})

	t.Run("retry_after_failure_clears_error", func(t *testing.T) {
		m := newStubModule(ModuleTypeAudio, "a")
		m.initErr = errBoom
		require.Error(t, m.Initialize(ctx))

		m.initErr = nil
		require.NoError(t, m.Initialize(ctx))
		assert.True(t, m.State().Initialized)
		assert.Empty(t, m.State().Err)
	})

	t.Run("fails_on_destroyed_module", func(t *testing.T) {
		m := newStubModule(ModuleTypeEditor, "a")
		require.NoError(t, m.Destroy(ctx))

		err := m.Initialize(ctx)
		assert.ErrorIs(t, err, ErrModuleDestroyed)
		assert.Zero(t, m.initCalls.Load())
	})
}

func TestBaseModuleDestroy(t *testing.T) {
	ctx := context.Background()

	t.Run("clears_lifecycle_flags", func(t *testing.T) {
		m := newStubModule(ModuleTypeEditor, "a")
		require.NoError(t, m.Initialize(ctx))
		m.SetActive(true)

		require.NoError(t, m.Destroy(ctx))

		state := m.State()
		assert.False(t, state.Active)
		assert.False(t, state.Initialized)
		assert.False(t, state.Loading)
		assert.True(t, m.Destroyed())
	})

	t.Run("second_call_is_noop", func(t *testing.T) {
		m := newStubModule(ModuleTypeEditor, "a")
		require.NoError(t, m.Destroy(ctx))
		require.NoError(t, m.Destroy(ctx))
		assert.EqualValues(t, 1, m.teardownCalls.Load())
	})

	t.Run("teardown_failure_is_swallowed", func(t *testing.T) {
		m := newStubModule(ModuleTypeEditor, "a")
		m.teardownErr = errBoom
		assert.NoError(t, m.Destroy(ctx))
		assert.True(t, m.Destroyed())
	})
}

func TestBaseModuleUpdateData(t *testing.T) {
	ctx := context.Background()

	t.Run("delegates_and_clears_error_on_success", func(t *testing.T) {
		m := newStubModule(ModuleTypeEditor, "a")
		m.updateErr = errBoom
		require.Error(t, m.UpdateData(ctx, ContentUpdate{Content: "kick: x..."}))
		assert.Equal(t, "boom", m.State().Err)

		m.updateErr = nil
		require.NoError(t, m.UpdateData(ctx, ContentUpdate{Content: "kick: x..."}))
		assert.Empty(t, m.State().Err)
		assert.EqualValues(t, 2, m.updateCalls.Load())
	})

	t.Run("destroyed_module_is_noop", func(t *testing.T) {
		m := newStubModule(ModuleTypeEditor, "a")
		require.NoError(t, m.Destroy(ctx))

		assert.NoError(t, m.UpdateData(ctx, ContentUpdate{Content: "x"}))
		assert.Zero(t, m.updateCalls.Load())
	})
}

func TestBaseModuleSetActive(t *testing.T) {
	m := newStubModule(ModuleTypeEditor, "a")
	m.SetActive(true)
	assert.True(t, m.State().Active)
	m.SetActive(false)
	assert.False(t, m.State().Active)

	require.NoError(t, m.Destroy(context.Background()))
	m.SetActive(true)
	assert.False(t, m.State().Active, "a destroyed module never becomes active")
}

func TestBaseModuleDefensiveCopies(t *testing.T) {
	m := newStubModule(ModuleTypeEditor, "a")

	meta := m.Metadata()
	meta.Name = "mutated"
	meta.Viz.Props["rows"] = 99
	assert.Equal(t, "a", m.Metadata().Name)
	assert.Equal(t, 4, m.Metadata().Viz.Props["rows"])

	viz := m.VisualizationConfig()
	viz.Props["rows"] = 99
	assert.Equal(t, 4, m.VisualizationConfig().Props["rows"])
}
