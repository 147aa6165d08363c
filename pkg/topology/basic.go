package topology

import (
	"context"

	"github.com/tenantnet/netorch/pkg/audit"
	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/rules"
	"github.com/tenantnet/netorch/pkg/util"
)

// BasicTopology serves Basic zones: flat shared guest networks with one
// router per pod and no VPCs.
type BasicTopology struct {
	core
}

var _ NetworkTopology = (*BasicTopology)(nil)

// NewBasicTopology creates a topology dispatching through a BasicVisitor.
func NewBasicTopology(deps Deps) *BasicTopology {
	return &BasicTopology{core: newCore(deps, model.NetworkTypeBasic, NewBasicVisitor(deps))}
}

func (t *BasicTopology) notImplemented(name string) error {
	return util.NewNotImplemented(name, string(t.kind))
}

// ConfigDhcpForSubnet configures an alias subnet on the single router of the
// network. The router must be running.
func (t *BasicTopology) ConfigDhcpForSubnet(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile,
	dest *model.DeployDestination, routers []*model.Router, alias *model.IPAlias) (bool, error) {
	dcID := network.DataCenterID
	if dest != nil {
		dcID = dest.DataCenterID
	}
	if len(routers) == 0 {
		return false, util.NewResourceUnavailable(util.ReasonNoRouter, util.ScopeDataCenter, dcID,
			"Unable to configure dhcp for subnet: no virtual router in network %d", network.ID)
	}
	router := routers[0]
	if !router.IsRunning() {
		util.WithRouter(router.InstanceName).Warnf("Unable to configure dhcp for subnet, virtual router is not in the right state %s", router.State)
		return false, util.NewResourceUnavailable(util.ReasonRouterState, util.ScopeDataCenter, dcID,
			"Unable to configure dhcp for subnet on router %s in state %s", router.InstanceName, router.State)
	}
	util.WithRouter(router.InstanceName).Debugf("Configuring dhcp on subnet alias %s", alias.IPAddress)
	return rules.NewDhcpSubNetRules(network, nic, profile, alias).Accept(ctx, t.visitor, router)
}

// podException reports whether a VM deployed to dest must be served by the
// router of its pod.
func podException(network *model.Network, profile *model.VMProfile, dest *model.DeployDestination) (bool, int64) {
	if dest.HasPod() && profile.IsUserVM() && network.IsSharedGuest() {
		return true, dest.PodID
	}
	return false, 0
}

// ApplyDhcpEntry adds the DHCP entry of a VM NIC. Routers outside the VM's
// pod decline without sending anything.
func (t *BasicTopology) ApplyDhcpEntry(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile,
	dest *model.DeployDestination, routers []*model.Router) (bool, error) {
	podLevel, podID := podException(network, profile, dest)
	return t.ApplyRules(ctx, network, routers, "dhcp entry", podLevel, podID, true,
		rules.NewDhcpEntryRules(network, nic, profile, dest))
}

// RemoveDhcpEntry removes the DHCP entry of a VM NIC.
func (t *BasicTopology) RemoveDhcpEntry(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile,
	routers []*model.Router) (bool, error) {
	return t.ApplyRules(ctx, network, routers, "dhcp entry removal", false, 0, true,
		rules.NewDhcpEntryRules(network, nic, profile, nil).AsRemoval())
}

// ApplyUserData pushes password and user data of a VM being deployed.
func (t *BasicTopology) ApplyUserData(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile,
	dest *model.DeployDestination, routers []*model.Router) (bool, error) {
	podLevel, podID := podException(network, profile, dest)
	return t.ApplyRules(ctx, network, routers, "userdata and password entry", podLevel, podID, true,
		rules.NewUserdataPwdRules(network, nic, profile, dest))
}

// ApplyLoadBalancingRules applies load balancer configuration.
func (t *BasicTopology) ApplyLoadBalancingRules(ctx context.Context, network *model.Network, lbs []*model.LoadBalancingRule, routers []*model.Router) (bool, error) {
	if len(lbs) == 0 {
		util.WithNetwork(network.ID).Debugf("No lb rules to be applied")
		return true, nil
	}
	return t.ApplyRules(ctx, network, routers, "loadbalancing rules", false, 0, false,
		rules.NewLoadBalancingRules(network, lbs))
}

// ApplyFirewallRules applies firewall-family rules of a single purpose.
func (t *BasicTopology) ApplyFirewallRules(ctx context.Context, network *model.Network, fw []*model.FirewallRule, routers []*model.Router) (bool, error) {
	if len(fw) == 0 {
		util.WithNetwork(network.ID).Debugf("No firewall rules to be applied")
		return true, nil
	}
	return t.ApplyRules(ctx, network, routers, "firewall rules", false, 0, false,
		rules.NewFirewallRules(network, fw))
}

// ApplyStaticNats applies one-to-one NAT mappings.
func (t *BasicTopology) ApplyStaticNats(ctx context.Context, network *model.Network, nats []*model.StaticNat, routers []*model.Router) (bool, error) {
	if len(nats) == 0 {
		util.WithNetwork(network.ID).Debugf("No static nat rules to be applied")
		return true, nil
	}
	return t.ApplyRules(ctx, network, routers, "static nat rules", false, 0, false,
		rules.NewStaticNatRules(network, nats))
}

// AssociatePublicIP associates or releases public IPs on the guest routers.
func (t *BasicTopology) AssociatePublicIP(ctx context.Context, network *model.Network, ips []*model.PublicIPAddress, routers []*model.Router) (bool, error) {
	if len(ips) == 0 {
		return true, nil
	}
	return t.ApplyRules(ctx, network, routers, "ip association", false, 0, false,
		rules.NewIPAssociationRules(network, ips))
}

// ApplyVpnUsers applies VPN users on every running router of the network.
// Stopped and Stopping routers are skipped; any other state fails the call.
func (t *BasicTopology) ApplyVpnUsers(ctx context.Context, network *model.Network, users []*model.VpnUser, routers []*model.Router) ([]string, error) {
	if len(users) == 0 {
		return []string{}, nil
	}
	if len(routers) == 0 {
		util.WithNetwork(network.ID).Warnf("Failed to add/remove VPN users: no router found for account and zone")
		return nil, util.NewResourceUnavailable(util.ReasonNoRouter, util.ScopeDataCenter, network.DataCenterID,
			"Unable to assign ip addresses, domR doesn't exist for network %d", network.ID)
	}

	applied := true
	vpn := rules.NewBasicVpnRules(network, users)
	for _, router := range routers {
		log := util.WithRouter(router.InstanceName)
		if router.IsStoppedOrStopping() {
			log.Infof("Router %s is in %s, skipping vpn users", router.InstanceName, router.State)
			t.rec.record("vpn users", network, router, vpn.Name(), audit.OutcomeSkipped, nil, 0)
			continue
		}
		if !router.IsRunning() {
			log.Warnf("Failed to add/remove VPN users: router not in running state")
			return nil, util.NewResourceUnavailable(util.ReasonRouterState, util.ScopeDataCenter, network.DataCenterID,
				"Unable to assign ip addresses, domR is not in right state %s", router.State)
		}
		ok, err := vpn.Accept(ctx, t.visitor, router)
		if err != nil {
			return nil, err
		}
		if ok {
			t.rec.record("vpn users", network, router, vpn.Name(), audit.OutcomeApplied, nil, 0)
		} else {
			t.rec.record("vpn users", network, router, vpn.Name(), audit.OutcomeRejected, nil, 0)
		}
		applied = applied && ok
	}
	return vpnResults(len(users), applied), nil
}

// ApplyRemoteAccessVpnUsers is VPC only.
func (t *BasicTopology) ApplyRemoteAccessVpnUsers(ctx context.Context, vpn *model.RemoteAccessVpn, users []*model.VpnUser, router *model.Router) ([]string, error) {
	return nil, t.notImplemented("applyVpnUsers")
}

// SavePasswordToRouter pushes a VM password to one router.
func (t *BasicTopology) SavePasswordToRouter(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile, router *model.Router) (bool, error) {
	util.WithRouter(router.InstanceName).Debugf("SAVE PASSWORD TO ROUTE RULES")
	return rules.NewPasswordToRouterRules(network, nic, profile).Accept(ctx, t.visitor, router)
}

// SaveSSHPublicKeyToRouter pushes a VM SSH public key to one router.
func (t *BasicTopology) SaveSSHPublicKeyToRouter(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile,
	router *model.Router, sshPublicKey string) (bool, error) {
	util.WithRouter(router.InstanceName).Debugf("SAVE SSH PUB KEY TO ROUTE RULES")
	return rules.NewSshKeyToRouterRules(network, nic, profile, sshPublicKey).Accept(ctx, t.visitor, router)
}

// SaveUserDataToRouter pushes VM user data to one router.
func (t *BasicTopology) SaveUserDataToRouter(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile, router *model.Router) (bool, error) {
	util.WithRouter(router.InstanceName).Debugf("SAVE USERDATA TO ROUTE RULES")
	return rules.NewUserdataToRouterRules(network, nic, profile).Accept(ctx, t.visitor, router)
}

// ApplyNetworkACLs is VPC only.
func (t *BasicTopology) ApplyNetworkACLs(ctx context.Context, network *model.Network, acls []*model.NetworkACLItem, routers []*model.Router, isPrivateGateway bool) (bool, error) {
	return false, t.notImplemented("applyNetworkACLs")
}

// ApplyStaticRoutes is VPC only.
func (t *BasicTopology) ApplyStaticRoutes(ctx context.Context, routes []*model.StaticRoute, routers []*model.Router) (bool, error) {
	return false, t.notImplemented("applyStaticRoutes")
}

// SetupPrivateGateway is VPC only.
func (t *BasicTopology) SetupPrivateGateway(ctx context.Context, network *model.Network, gateway *model.PrivateGateway, nic *model.Nic, router *model.Router) (bool, error) {
	return false, t.notImplemented("setupPrivateGateway")
}

// DestroyPrivateGateway is VPC only.
func (t *BasicTopology) DestroyPrivateGateway(ctx context.Context, network *model.Network, gateway *model.PrivateGateway, nic *model.Nic, router *model.Router) (bool, error) {
	return false, t.notImplemented("destroyPrivateGateway")
}

// SetupDhcpForPvlan is Advanced only.
func (t *BasicTopology) SetupDhcpForPvlan(ctx context.Context, add bool, router *model.Router, nic *model.Nic) (bool, error) {
	return false, t.notImplemented("setupDhcpForPvlan")
}
