package proto

// Outbound control commands issued through the command gateway. These travel
// over request/response HTTP, not the event stream.

// StartCommand begins a simulation run.
type StartCommand struct {
	Scenario string `json:"scenario,omitempty"`
}

// StopCommand halts the current run.
type StopCommand struct {
	Reason string `json:"reason,omitempty"`
}

// FaultCommand injects a fault into a named machine.
type FaultCommand struct {
	MachineID string `json:"machine_id"`
	FaultType string `json:"fault_type"`
	Severity  string `json:"severity,omitempty"`
}

// SimulationStatus is the coarse status polled from the gateway.
type SimulationStatus struct {
	Running   bool   `json:"running"`
	Scenario  string `json:"scenario,omitempty"`
	TickCount uint64 `json:"tick_count"`
	AgentBusy bool   `json:"agent_busy"`
}
