package model

// TrafficType classifies what a network carries.
type TrafficType string

const (
	TrafficGuest      TrafficType = "Guest"
	TrafficPublic     TrafficType = "Public"
	TrafficControl    TrafficType = "Control"
	TrafficManagement TrafficType = "Management"
)

// GuestType classifies guest networks.
type GuestType string

const (
	GuestShared   GuestType = "Shared"
	GuestIsolated GuestType = "Isolated"
	GuestL2       GuestType = "L2"
)

// Network is a guest, public or VPC tier network.
type Network struct {
	ID           int64       `yaml:"id" json:"id"`
	Name         string      `yaml:"name" json:"name"`
	DataCenterID int64       `yaml:"zone" json:"zone"`
	VpcID        int64       `yaml:"vpc,omitempty" json:"vpc,omitempty"` // 0 when not a VPC tier
	TrafficType  TrafficType `yaml:"traffic_type" json:"traffic_type"`
	GuestType    GuestType   `yaml:"guest_type,omitempty" json:"guest_type,omitempty"`
	CIDR         string      `yaml:"cidr,omitempty" json:"cidr,omitempty"`
	Gateway      string      `yaml:"gateway,omitempty" json:"gateway,omitempty"`
	BroadcastURI string      `yaml:"broadcast_uri,omitempty" json:"broadcast_uri,omitempty"`
	Domain       string      `yaml:"domain,omitempty" json:"domain,omitempty"`
}

// InVpc reports whether the network is a VPC tier.
func (n *Network) InVpc() bool {
	return n.VpcID != 0
}

// IsSharedGuest reports whether the network is a shared guest network.
func (n *Network) IsSharedGuest() bool {
	return n.TrafficType == TrafficGuest && n.GuestType == GuestShared
}
