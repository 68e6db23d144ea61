package gateway

import "github.com/vinayprograms/fleetagent/metrics"

// RegistrationPayload is the request body for machine registration. CPU,
// memory and GPU capacity travel as the gateway's resource strings
// ("8000m", "16Gi", "2").
type RegistrationPayload struct {
	Token        string `json:"token"`
	MachineID    string `json:"machine_id"`
	Hostname     string `json:"hostname"`
	ProviderName string `json:"provider_name"`
	PoolName     string `json:"pool_name"`
	CPU          string `json:"cpu"`
	Memory       string `json:"memory"`
	GPUCount     string `json:"gpu_count"`
	PrivateIP    string `json:"private_ip"`
}

// RegistrationResponse is the gateway's registration reply. The config
// object is opaque to the agent and handed to the caller verbatim.
type RegistrationResponse struct {
	Config map[string]interface{} `json:"config"`
}

// RegistrationResult is the terminal outcome of one handshake attempt.
type RegistrationResult struct {
	Success bool
	Config  map[string]interface{}
	Err     error
}

// KeepalivePayload is the request body for one heartbeat.
type KeepalivePayload struct {
	MachineID    string           `json:"machine_id"`
	ProviderName string           `json:"provider_name"`
	PoolName     string           `json:"pool_name"`
	AgentVersion string           `json:"agent_version"`
	Metrics      metrics.Snapshot `json:"metrics"`
}
