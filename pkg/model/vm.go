package model

// VMType is the kind of virtual machine.
type VMType string

const (
	VMUser         VMType = "User"
	VMDomainRouter VMType = "DomainRouter"
	VMConsoleProxy VMType = "ConsoleProxy"
	VMStorage      VMType = "SecondaryStorageVm"
)

// VirtualMachine is the guest whose metadata is pushed to a router.
type VirtualMachine struct {
	ID              int64  `yaml:"id" json:"id"`
	UUID            string `yaml:"uuid,omitempty" json:"uuid,omitempty"`
	InstanceName    string `yaml:"name" json:"name"`
	HostName        string `yaml:"hostname" json:"hostname"`
	Type            VMType `yaml:"type" json:"type"`
	ServiceOffering string `yaml:"service_offering,omitempty" json:"service_offering,omitempty"`
	PasswordEnabled bool   `yaml:"password_enabled,omitempty" json:"password_enabled,omitempty"`
	UserData        string `yaml:"user_data,omitempty" json:"user_data,omitempty"`
	SSHPublicKey    string `yaml:"ssh_public_key,omitempty" json:"ssh_public_key,omitempty"`
}

// VMProfile is a VM plus the transient parameters of the current deployment.
type VMProfile struct {
	VM       *VirtualMachine `yaml:"vm" json:"vm"`
	Password string          `yaml:"password,omitempty" json:"-"`
}

// IsUserVM reports whether the profile describes a user VM.
func (p *VMProfile) IsUserVM() bool {
	return p != nil && p.VM != nil && p.VM.Type == VMUser
}

// DeployDestination is where a VM is being deployed.
type DeployDestination struct {
	DataCenterID int64 `yaml:"zone" json:"zone"`
	PodID        int64 `yaml:"pod,omitempty" json:"pod,omitempty"` // 0 when not pod-bound
	HostID       int64 `yaml:"host,omitempty" json:"host,omitempty"`
}

// HasPod reports whether the destination names a pod.
func (d *DeployDestination) HasPod() bool {
	return d != nil && d.PodID != 0
}
