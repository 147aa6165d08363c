package model

// RouterState is the lifecycle state of a virtual router. It is mutated only
// by the lifecycle manager.
type RouterState string

const (
	RouterStarting  RouterState = "Starting"
	RouterRunning   RouterState = "Running"
	RouterStopping  RouterState = "Stopping"
	RouterStopped   RouterState = "Stopped"
	RouterMigrating RouterState = "Migrating"
	RouterError     RouterState = "Error"
	RouterDestroyed RouterState = "Destroyed"
	RouterExpunging RouterState = "Expunging"
	RouterUnknown   RouterState = "Unknown"
)

// Router is a virtual router appliance serving one or more networks.
type Router struct {
	ID           int64       `yaml:"id" json:"id"`
	InstanceName string      `yaml:"name" json:"name"`
	State        RouterState `yaml:"state" json:"state"`
	HostID       int64       `yaml:"host" json:"host"`
	PodID        int64       `yaml:"pod" json:"pod"`
	DataCenterID int64       `yaml:"zone" json:"zone"`
	VpcID        int64       `yaml:"vpc,omitempty" json:"vpc,omitempty"`
	IsRedundant  bool        `yaml:"redundant,omitempty" json:"redundant,omitempty"`
	StopPending  bool        `yaml:"stop_pending,omitempty" json:"stop_pending,omitempty"`
	// ControlIP is the link-local address commands are executed against.
	ControlIP string `yaml:"control_ip,omitempty" json:"control_ip,omitempty"`
}

// IsRunning reports whether the router is Running.
func (r *Router) IsRunning() bool {
	return r.State == RouterRunning
}

// IsStoppedOrStopping reports whether the router is Stopped or Stopping.
func (r *Router) IsStoppedOrStopping() bool {
	return r.State == RouterStopped || r.State == RouterStopping
}
