package beatlab

import (
	"time"
)

// ModuleHealth is the per-module operational status tracked by the
// Manager. A record exists exactly while the module is registered: it is
// created healthy at registration and deleted at unregistration.
type ModuleHealth struct {
	Healthy     bool      `json:"isHealthy"`
	LastError   string    `json:"lastError,omitempty"`
	LastChecked time.Time `json:"lastChecked"`
}

// Stats summarizes the Manager's current registry and health state.
type Stats struct {
	TotalModules     int                `json:"totalModules"`
	ModulesByType    map[ModuleType]int `json:"modulesByType"`
	HealthyModules   int                `json:"healthyModules"`
	UnhealthyModules int                `json:"unhealthyModules"`
	ActiveModuleID   string             `json:"activeModuleId,omitempty"`
}
