// Package model defines the entities the orchestration core reads: zones,
// hosts, networks, routers, NICs and the rule payloads applied to routers.
// Persistence of these entities is owned elsewhere; the core only reads them
// and, for remediation, updates a router's stop-pending flag.
package model

// NetworkType is the topology flavor of a zone, fixed at zone creation.
type NetworkType string

const (
	NetworkTypeBasic    NetworkType = "Basic"
	NetworkTypeAdvanced NetworkType = "Advanced"
)

// DataCenter is a zone.
type DataCenter struct {
	ID          int64       `yaml:"id" json:"id"`
	Name        string      `yaml:"name" json:"name"`
	NetworkType NetworkType `yaml:"network_type" json:"network_type"`
	DNS1        string      `yaml:"dns1,omitempty" json:"dns1,omitempty"`
	DNS2        string      `yaml:"dns2,omitempty" json:"dns2,omitempty"`
	Domain      string      `yaml:"domain,omitempty" json:"domain,omitempty"`
}

// IsBasic reports whether the zone uses the Basic topology.
func (dc *DataCenter) IsBasic() bool {
	return dc.NetworkType == NetworkTypeBasic
}

// Pod is a rack-level grouping of hosts inside a zone.
type Pod struct {
	ID           int64  `yaml:"id" json:"id"`
	DataCenterID int64  `yaml:"zone" json:"zone"`
	Name         string `yaml:"name" json:"name"`
}

// HostStatus is the agent connection status of a hypervisor host.
type HostStatus string

const (
	HostUp           HostStatus = "Up"
	HostDown         HostStatus = "Down"
	HostDisconnected HostStatus = "Disconnected"
	HostAlert        HostStatus = "Alert"
)

// Host is a hypervisor host running routers.
type Host struct {
	ID           int64      `yaml:"id" json:"id"`
	Name         string     `yaml:"name" json:"name"`
	PodID        int64      `yaml:"pod" json:"pod"`
	DataCenterID int64      `yaml:"zone" json:"zone"`
	Status       HostStatus `yaml:"status" json:"status"`
	// AgentAddr is the address of the command channel for routers on this host.
	AgentAddr string `yaml:"agent_addr,omitempty" json:"agent_addr,omitempty"`
}

// Vpc is a virtual private cloud grouping tier networks behind one router.
type Vpc struct {
	ID           int64  `yaml:"id" json:"id"`
	Name         string `yaml:"name" json:"name"`
	DataCenterID int64  `yaml:"zone" json:"zone"`
	CIDR         string `yaml:"cidr" json:"cidr"`
}
