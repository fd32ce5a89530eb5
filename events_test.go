package beatlab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingListener(id string, calls *int) Listener {
	return NewListenerFunc(id, func(context.Context, CloudEvent) error {
		*calls++
		return nil
	})
}

func TestEventBusSubscribe(t *testing.T) {
	t.Run("rejects_bad_arguments", func(t *testing.T) {
		bus := newEventBus(nil)
		assert.ErrorIs(t, bus.subscribe("", countingListener("a", new(int))), ErrEventNameEmpty)
		assert.ErrorIs(t, bus.subscribe(EventModuleRegistered, nil), ErrListenerNil)
		assert.ErrorIs(t, bus.subscribe(EventModuleRegistered, countingListener("", new(int))), ErrListenerIDEmpty)
	})

	t.Run("same_listener_id_subscribes_once", func(t *testing.T) {
		bus := newEventBus(nil)
		calls := 0
		require.NoError(t, bus.subscribe(EventModuleRegistered, countingListener("dup", &calls)))
		require.NoError(t, bus.subscribe(EventModuleRegistered, countingListener("dup", &calls)))

		bus.emit(context.Background(), NewEvent(EventModuleRegistered, eventSource, nil))
		assert.Equal(t, 1, calls)
	})
}

func TestEventBusUnsubscribe(t *testing.T) {
	t.Run("removed_listener_receives_nothing_further", func(t *testing.T) {
		bus := newEventBus(nil)
		calls := 0
		l := countingListener("once", &calls)
		require.NoError(t, bus.subscribe(EventModuleActivated, l))

		bus.emit(context.Background(), NewEvent(EventModuleActivated, eventSource, nil))
		bus.unsubscribe(EventModuleActivated, l)
		bus.emit(context.Background(), NewEvent(EventModuleActivated, eventSource, nil))

		assert.Equal(t, 1, calls)
	})

	t.Run("unknown_listener_is_noop", func(t *testing.T) {
		bus := newEventBus(nil)
		bus.unsubscribe(EventModuleActivated, countingListener("stranger", new(int)))
		bus.unsubscribe("", nil)
	})
}

func TestEventBusEmit(t *testing.T) {
	t.Run("delivers_in_subscription_order", func(t *testing.T) {
		bus := newEventBus(nil)
		var seen []string
		for _, id := range []string{"first", "second", "third"} {
			id := id
			require.NoError(t, bus.subscribe(EventModulesInitialized, NewListenerFunc(id, func(context.Context, CloudEvent) error {
				seen = append(seen, id)
				return nil
			})))
		}

		bus.emit(context.Background(), NewEvent(EventModulesInitialized, eventSource, nil))
		assert.Equal(t, []string{"first", "second", "third"}, seen)
	})

	t.Run("only_matching_event_type_is_delivered", func(t *testing.T) {
		bus := newEventBus(nil)
		calls := 0
		require.NoError(t, bus.subscribe(EventModuleRegistered, countingListener("typed", &calls)))

		bus.emit(context.Background(), NewEvent(EventModuleUnregistered, eventSource, nil))
		assert.Zero(t, calls)
	})

	t.Run("listener_error_does_not_stop_delivery", func(t *testing.T) {
		bus := newEventBus(nil)
		calls := 0
		require.NoError(t, bus.subscribe(EventModulesDestroyed, NewListenerFunc("fails", func(context.Context, CloudEvent) error {
			return errBoom
		})))
		require.NoError(t, bus.subscribe(EventModulesDestroyed, countingListener("after", &calls)))

		bus.emit(context.Background(), NewEvent(EventModulesDestroyed, eventSource, nil))
		assert.Equal(t, 1, calls)
	})

	t.Run("listener_panic_does_not_stop_delivery", func(t *testing.T) {
		bus := newEventBus(nil)
		calls := 0
		require.NoError(t, bus.subscribe(EventModulesDestroyed, NewListenerFunc("panics", func(context.Context, CloudEvent) error {
			panic("listener gone wrong")
		})))
		require.NoError(t, bus.subscribe(EventModulesDestroyed, countingListener("after", &calls)))

		bus.emit(context.Background(), NewEvent(EventModulesDestroyed, eventSource, nil))
		assert.Equal(t, 1, calls)
	})

	t.Run("unsubscribe_during_dispatch_affects_next_emit_only", func(t *testing.T) {
		bus := newEventBus(nil)
		calls := 0
		tail := countingListener("tail", &calls)
		head := NewListenerFunc("head", func(ctx context.Context, _ CloudEvent) error {
			bus.unsubscribe(EventModuleActivated, tail)
			return nil
		})
		require.NoError(t, bus.subscribe(EventModuleActivated, head))
		require.NoError(t, bus.subscribe(EventModuleActivated, tail))

		// The first emit runs against the snapshot taken before head
		// removed tail, so tail still sees it.
		bus.emit(context.Background(), NewEvent(EventModuleActivated, eventSource, nil))
		assert.Equal(t, 1, calls)

		bus.emit(context.Background(), NewEvent(EventModuleActivated, eventSource, nil))
		assert.Equal(t, 1, calls)
	})
}

func TestManagerEvents(t *testing.T) {
	t.Run("lifecycle_emits_named_events", func(t *testing.T) {
		mgr := NewManager(nil)
		var types []string
		record := func(name string) {
			require.NoError(t, mgr.On(name, NewListenerFunc("rec-"+name, func(_ context.Context, event CloudEvent) error {
				types = append(types, event.Type())
				return nil
			})))
		}
		for _, name := range []string{
			EventModuleRegistered,
			EventModuleActivated,
			EventModulesInitialized,
			EventModuleUnregistered,
			EventModulesDestroyed,
		} {
			record(name)
		}

		ctx := context.Background()
		idA, err := mgr.Register(newStubModule(ModuleTypeEditor, "a"))
		require.NoError(t, err)
		idB, err := mgr.Register(newStubModule(ModuleTypeAudio, "b"))
		require.NoError(t, err)
		mgr.SetActive(ctx, idA)
		mgr.InitializeAll(ctx)
		mgr.Unregister(ctx, idB)
		mgr.DestroyAll(ctx)

		assert.Equal(t, []string{
			EventModuleRegistered,
			EventModuleRegistered,
			EventModuleActivated,
			EventModulesInitialized,
			EventModuleUnregistered,
			EventModulesDestroyed,
		}, types)
	})

	t.Run("registered_event_carries_id_and_type", func(t *testing.T) {
		mgr := NewManager(nil)
		var payload ModuleRegisteredPayload
		require.NoError(t, mgr.On(EventModuleRegistered, NewListenerFunc("payload", func(_ context.Context, event CloudEvent) error {
			return event.DataAs(&payload)
		})))

		id, err := mgr.Register(newStubModule(ModuleTypeLibrary, "shelf"))
		require.NoError(t, err)

		assert.Equal(t, id, payload.ID)
		assert.Equal(t, ModuleTypeLibrary, payload.Type)
		assert.Equal(t, "shelf", payload.Name)
	})

	t.Run("off_before_action_means_zero_calls", func(t *testing.T) {
		mgr := NewManager(nil)
		calls := 0
		l := countingListener("gone", &calls)
		require.NoError(t, mgr.On(EventModuleRegistered, l))
		mgr.Off(EventModuleRegistered, l)

		_, err := mgr.Register(newStubModule(ModuleTypeEditor, "a"))
		require.NoError(t, err)
		assert.Zero(t, calls)
	})
}

func TestNewEvent(t *testing.T) {
	event := NewEvent(EventModuleHealthUpdated, eventSource, ModuleHealthUpdatedPayload{ID: "x", Healthy: true})

	assert.Equal(t, EventModuleHealthUpdated, event.Type())
	assert.Equal(t, eventSource, event.Source())
	assert.NotEmpty(t, event.ID())
	assert.False(t, event.Time().IsZero())
	require.NoError(t, event.Validate())

	var payload ModuleHealthUpdatedPayload
	require.NoError(t, event.DataAs(&payload))
	assert.Equal(t, "x", payload.ID)
	assert.True(t, payload.Healthy)
}
