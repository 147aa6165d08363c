package rules

import (
	"context"

	"github.com/tenantnet/netorch/pkg/model"
)

// DhcpEntryRules adds or removes the DHCP entry of a VM NIC.
type DhcpEntryRules struct {
	base
	Nic     *model.Nic
	Profile *model.VMProfile
	Dest    *model.DeployDestination
	remove  bool
}

func NewDhcpEntryRules(network *model.Network, nic *model.Nic, profile *model.VMProfile, dest *model.DeployDestination) *DhcpEntryRules {
	return &DhcpEntryRules{base: base{network}, Nic: nic, Profile: profile, Dest: dest}
}

// AsRemoval returns a copy of r that removes the entry instead of adding it.
func (r *DhcpEntryRules) AsRemoval() *DhcpEntryRules {
	c := *r
	c.remove = true
	return &c
}

// IsRemove reports whether the entry is removed.
func (r *DhcpEntryRules) IsRemove() bool { return r.remove }

func (r *DhcpEntryRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*DhcpEntryRules) Name() string { return "DhcpEntryRules" }

// UserdataPwdRules pushes password and user data of a VM being deployed.
type UserdataPwdRules struct {
	base
	Nic     *model.Nic
	Profile *model.VMProfile
	Dest    *model.DeployDestination
}

func NewUserdataPwdRules(network *model.Network, nic *model.Nic, profile *model.VMProfile, dest *model.DeployDestination) *UserdataPwdRules {
	return &UserdataPwdRules{base: base{network}, Nic: nic, Profile: profile, Dest: dest}
}

func (r *UserdataPwdRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*UserdataPwdRules) Name() string { return "UserdataPwdRules" }

// UserdataToRouterRules pushes only the user data and metadata of a VM.
type UserdataToRouterRules struct {
	base
	Nic     *model.Nic
	Profile *model.VMProfile
}

func NewUserdataToRouterRules(network *model.Network, nic *model.Nic, profile *model.VMProfile) *UserdataToRouterRules {
	return &UserdataToRouterRules{base: base{network}, Nic: nic, Profile: profile}
}

func (r *UserdataToRouterRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*UserdataToRouterRules) Name() string { return "UserdataToRouterRules" }

// PasswordToRouterRules pushes a VM password.
type PasswordToRouterRules struct {
	base
	Nic     *model.Nic
	Profile *model.VMProfile
}

func NewPasswordToRouterRules(network *model.Network, nic *model.Nic, profile *model.VMProfile) *PasswordToRouterRules {
	return &PasswordToRouterRules{base: base{network}, Nic: nic, Profile: profile}
}

func (r *PasswordToRouterRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*PasswordToRouterRules) Name() string { return "PasswordToRouterRules" }

// SshKeyToRouterRules pushes a VM SSH public key, and its password when the
// VM is password enabled.
type SshKeyToRouterRules struct {
	base
	Nic          *model.Nic
	Profile      *model.VMProfile
	SSHPublicKey string
}

func NewSshKeyToRouterRules(network *model.Network, nic *model.Nic, profile *model.VMProfile, key string) *SshKeyToRouterRules {
	return &SshKeyToRouterRules{base: base{network}, Nic: nic, Profile: profile, SSHPublicKey: key}
}

func (r *SshKeyToRouterRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*SshKeyToRouterRules) Name() string { return "SshKeyToRouterRules" }

// DhcpSubNetRules configures an alias address so a Basic zone router serves
// DHCP on an additional subnet of a shared network.
type DhcpSubNetRules struct {
	base
	Nic     *model.Nic
	Profile *model.VMProfile
	Alias   *model.IPAlias
}

func NewDhcpSubNetRules(network *model.Network, nic *model.Nic, profile *model.VMProfile, alias *model.IPAlias) *DhcpSubNetRules {
	return &DhcpSubNetRules{base: base{network}, Nic: nic, Profile: profile, Alias: alias}
}

func (r *DhcpSubNetRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*DhcpSubNetRules) Name() string { return "DhcpSubNetRules" }
