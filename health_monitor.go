package beatlab

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// HealthMonitor periodically re-derives every registered module's health
// from its lifecycle state and refreshes the Manager's health records, so
// LastChecked stays current even for modules that see no traffic. The
// sweep runs on a cron schedule owned by the application shell.
type HealthMonitor struct {
	mgr      *Manager
	logger   Logger
	schedule string
	cron     *cron.Cron
	entryID  cron.EntryID
}

// NewHealthMonitor creates a monitor sweeping on the given cron schedule
// (for example "@every 30s").
func NewHealthMonitor(mgr *Manager, schedule string, logger Logger) *HealthMonitor {
	if logger == nil {
		logger = NopLogger{}
	}
	return &HealthMonitor{
		mgr:      mgr,
		logger:   logger,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
	}
}

// Start schedules the sweep and begins running it.
func (h *HealthMonitor) Start() error {
	id, err := h.cron.AddFunc(h.schedule, func() {
		h.Sweep(context.Background())
	})
	if err != nil {
		return fmt.Errorf("schedule health sweep: %w", err)
	}
	h.entryID = id
	h.cron.Start()
	h.logger.Info("health monitor started", "schedule", h.schedule)
	return nil
}

// Stop halts the sweep. Any sweep already running completes first.
func (h *HealthMonitor) Stop() {
	ctx := h.cron.Stop()
	<-ctx.Done()
	h.logger.Info("health monitor stopped")
}

// Sweep updates every registered module's health record once. A module is
// healthy when its state carries no error; a module that failed
// initialization or a later data update stays unhealthy until the
// condition clears.
func (h *HealthMonitor) Sweep(ctx context.Context) {
	for _, id := range h.mgr.ModuleIDs() {
		mod, ok := h.mgr.GetModule(id)
		if !ok {
			continue
		}
		state := mod.State()
		if state.Err != "" {
			h.mgr.UpdateHealth(ctx, id, false, errors.New(state.Err))
			continue
		}
		h.mgr.UpdateHealth(ctx, id, true, nil)
	}
	h.logger.Debug("health sweep completed", "modules", len(h.mgr.ModuleIDs()))
}
