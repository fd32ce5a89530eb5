package beatlab

import (
	"context"
)

// Directory is the narrow view of the Manager a module uses for
// discovery-based propagation. Modules hold a Directory, never each
// other: the lookup happens freshly at the moment data must flow, so
// propagation works regardless of registration order and degrades to a
// logged warning when the target variant is not running.
type Directory interface {
	ModulesByType(t ModuleType) []Module
}

// PushToType looks up the target variant through the directory and pushes
// the update to the first registered instance. A missing target is an
// expected condition (running a subset of modules) and is logged as a
// warning; a failed update is local to the target and logged as an error.
// It reports whether the update was delivered and accepted.
//
// When several instances of the same variant are registered the first one
// in registration order wins; application shells should keep cardinality
// at most one per variant.
func PushToType(ctx context.Context, dir Directory, logger Logger, target ModuleType, update DataUpdate) bool {
	if logger == nil {
		logger = NopLogger{}
	}
	targets := dir.ModulesByType(target)
	if len(targets) == 0 {
		logger.Warn("propagation target not registered", "target", target)
		return false
	}
	if len(targets) > 1 {
		logger.Warn("multiple propagation targets registered, using first", "target", target, "count", len(targets))
	}
	if err := targets[0].UpdateData(ctx, update); err != nil {
		logger.Error("propagation update rejected", "target", target, "error", err)
		return false
	}
	return true
}
