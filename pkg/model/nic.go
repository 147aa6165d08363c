package model

// Nic is a network interface of a VM or router.
type Nic struct {
	ID           int64  `yaml:"id" json:"id"`
	InstanceID   int64  `yaml:"instance" json:"instance"`
	NetworkID    int64  `yaml:"network" json:"network"`
	IPv4Address  string `yaml:"ip" json:"ip"`
	IPv4Netmask  string `yaml:"netmask,omitempty" json:"netmask,omitempty"`
	IPv4Gateway  string `yaml:"gateway,omitempty" json:"gateway,omitempty"`
	IPv6Address  string `yaml:"ip6,omitempty" json:"ip6,omitempty"`
	MACAddress   string `yaml:"mac" json:"mac"`
	BroadcastURI string `yaml:"broadcast_uri,omitempty" json:"broadcast_uri,omitempty"`
	IsDefault    bool   `yaml:"default,omitempty" json:"default,omitempty"`
	DeviceID     int    `yaml:"device_id,omitempty" json:"device_id,omitempty"`
}

// IPAlias is a secondary router address added to serve DHCP on another subnet
// of a Basic zone shared network.
type IPAlias struct {
	ID         int64  `yaml:"id" json:"id"`
	NetworkID  int64  `yaml:"network" json:"network"`
	RouterID   int64  `yaml:"router" json:"router"`
	IPAddress  string `yaml:"ip" json:"ip"`
	Netmask    string `yaml:"netmask" json:"netmask"`
	Gateway    string `yaml:"gateway,omitempty" json:"gateway,omitempty"`
	AliasCount int    `yaml:"alias_count" json:"alias_count"`
}
