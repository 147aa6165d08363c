package topology

import (
	"context"
	"fmt"

	"github.com/tenantnet/netorch/pkg/command"
	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/rules"
	"github.com/tenantnet/netorch/pkg/util"
)

// AdvancedTopology serves Advanced zones: isolated guest networks, VPCs and
// redundant router pairs. Intents it does not override behave as in a Basic
// zone, dispatched through the AdvancedVisitor.
type AdvancedTopology struct {
	BasicTopology
}

var _ NetworkTopology = (*AdvancedTopology)(nil)

// NewAdvancedTopology creates a topology dispatching through an AdvancedVisitor.
func NewAdvancedTopology(deps Deps) *AdvancedTopology {
	return &AdvancedTopology{
		BasicTopology: BasicTopology{core: newCore(deps, model.NetworkTypeAdvanced, NewAdvancedVisitor(deps))},
	}
}

// ApplyDhcpEntry adds the DHCP entry of a VM NIC on every router of the network.
func (t *AdvancedTopology) ApplyDhcpEntry(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile,
	dest *model.DeployDestination, routers []*model.Router) (bool, error) {
	util.WithNetwork(network.ID).Debugf("APPLYING VPC DHCP ENTRY RULES")
	return t.ApplyRules(ctx, network, routers, "dhcp entry", false, 0, true,
		rules.NewDhcpEntryRules(network, nic, profile, dest))
}

// ApplyUserData pushes password and user data on every router of the network.
func (t *AdvancedTopology) ApplyUserData(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile,
	dest *model.DeployDestination, routers []*model.Router) (bool, error) {
	util.WithNetwork(network.ID).Debugf("APPLYING VPC USERDATA RULES")
	return t.ApplyRules(ctx, network, routers, "userdata and password entry", false, 0, true,
		rules.NewUserdataPwdRules(network, nic, profile, dest))
}

// Association is the outcome of the first phase of a VPC IP association:
// the NICs plugged for new VLANs and the usage commands recording them.
// Usage is only kept for routers that received the association.
type Association struct {
	Applied bool
	usage   map[int64]*rules.NicPlugInOutRules
}

// AssociatePublicIP associates public IPs with the routers of a VPC tier.
// Networks outside a VPC are handled as in a Basic zone. Inside a VPC the
// association runs in two steps: Associate plugs NICs and applies the
// addresses, then RecordUsage sends usage accounting for the plugged NICs
// once the association succeeded.
func (t *AdvancedTopology) AssociatePublicIP(ctx context.Context, network *model.Network, ips []*model.PublicIPAddress, routers []*model.Router) (bool, error) {
	if len(ips) == 0 {
		return true, nil
	}
	if !network.InVpc() {
		return t.BasicTopology.AssociatePublicIP(ctx, network, ips, routers)
	}
	res, err := t.Associate(ctx, network, ips, routers)
	if err != nil || !res.Applied {
		return false, err
	}
	t.RecordUsage(ctx, network, routers, res)
	return true, nil
}

// Associate plugs and unplugs public NICs as required by ips on every
// running router, then applies the VPC IP association.
func (t *AdvancedTopology) Associate(ctx context.Context, network *model.Network, ips []*model.PublicIPAddress, routers []*model.Router) (*Association, error) {
	res := &Association{usage: make(map[int64]*rules.NicPlugInOutRules)}
	for _, router := range routers {
		if !router.IsRunning() {
			continue
		}
		usage, err := t.planNics(ctx, router, ips)
		if err != nil {
			return res, err
		}
		res.usage[router.ID] = rules.NewNicPlugInOutRules(network, ips, usage)
	}

	ok, connected, err := t.applyRules(ctx, network, routers, "vpc ip association", false, 0, false,
		rules.NewVpcIPAssociationRules(network, ips))
	res.Applied = ok && err == nil

	reached := make(map[int64]bool, len(connected))
	for _, router := range connected {
		reached[router.ID] = true
	}
	for id := range res.usage {
		if !reached[id] {
			delete(res.usage, id)
		}
	}
	return res, err
}

// planNics hot-plugs a NIC for every VLAN the router does not reach yet and
// unplugs the NICs of VLANs left without addresses. It returns the usage
// commands for the plugged NICs.
func (t *AdvancedTopology) planNics(ctx context.Context, router *model.Router, ips []*model.PublicIPAddress) (*command.Commands, error) {
	usage := command.NewCommands(command.Stop)
	plugger := t.deps.Plugger
	if plugger == nil {
		return usage, nil
	}
	log := util.WithRouter(router.InstanceName)

	kept := make(map[string]bool)
	for _, ip := range ips {
		if !ip.IsReleasing() {
			kept[ip.VlanTag] = true
		}
	}

	seen := make(map[string]bool)
	for _, ip := range ips {
		if seen[ip.VlanTag] {
			continue
		}
		seen[ip.VlanTag] = true

		nic, err := t.deps.Store.FindRouterNicByBroadcastURI(ip.NetworkID, router.ID, vlanURI(ip.VlanTag))
		switch {
		case kept[ip.VlanTag] && err != nil:
			log.Debugf("Plugging nic for vlan %s into router %s", ip.VlanTag, router.InstanceName)
			nic, err = plugger.PlugNic(ctx, router, ip)
			if err != nil {
				return nil, fmt.Errorf("plugging nic for %s into router %s: %w", ip.Address, router.InstanceName, err)
			}
			cmd, err := t.deps.Builder.CreateNetworkUsageCommand(router, nic)
			if err != nil {
				return nil, err
			}
			usage.AddCommandWithID("usage-"+ip.VlanTag, cmd)
		case !kept[ip.VlanTag] && err == nil && !ip.SourceNat:
			log.Debugf("Unplugging nic for vlan %s from router %s", ip.VlanTag, router.InstanceName)
			if err := plugger.UnplugNic(ctx, router, nic); err != nil {
				return nil, fmt.Errorf("unplugging nic %s from router %s: %w", nic.MACAddress, router.InstanceName, err)
			}
		}
	}
	return usage, nil
}

// RecordUsage sends the usage commands planned by Associate. Routers that
// stopped meanwhile are skipped; failures are logged since the addresses
// are already in place.
func (t *AdvancedTopology) RecordUsage(ctx context.Context, network *model.Network, routers []*model.Router, res *Association) {
	if res == nil || !res.Applied {
		return
	}
	for _, router := range routers {
		plug, ok := res.usage[router.ID]
		if !ok {
			continue
		}
		if router.IsStoppedOrStopping() {
			util.WithRouter(router.InstanceName).Debugf("Router is in %s, not sending usage commands", router.State)
			continue
		}
		if _, err := plug.Accept(ctx, t.visitor, router); err != nil {
			util.WithRouter(router.InstanceName).Warnf("Failed to send network usage commands: %v", err)
		}
	}
}

// ApplyRemoteAccessVpnUsers applies the users of a remote access VPN on router.
func (t *AdvancedTopology) ApplyRemoteAccessVpnUsers(ctx context.Context, vpn *model.RemoteAccessVpn, users []*model.VpnUser, router *model.Router) ([]string, error) {
	util.WithRouter(router.InstanceName).Debugf("APPLYING ADVANCED VPN USERS RULES")
	network := &model.Network{DataCenterID: router.DataCenterID, VpcID: vpn.VpcID}
	if vpn.NetworkID != 0 {
		n, err := t.deps.Store.FindNetwork(vpn.NetworkID)
		if err != nil {
			return nil, err
		}
		network = n
	}
	ok, err := t.ApplyRules(ctx, network, []*model.Router{router}, "vpn users", false, 0, false,
		rules.NewAdvancedVpnRules(network, vpn, users))
	if err != nil {
		return nil, err
	}
	return vpnResults(len(users), ok), nil
}

// ApplyNetworkACLs applies a tier or private gateway ACL.
func (t *AdvancedTopology) ApplyNetworkACLs(ctx context.Context, network *model.Network, acls []*model.NetworkACLItem, routers []*model.Router, isPrivateGateway bool) (bool, error) {
	if len(acls) == 0 {
		util.WithNetwork(network.ID).Debugf("No network ACLs to be applied")
		return true, nil
	}
	return t.ApplyRules(ctx, network, routers, "network acls", false, 0, false,
		rules.NewNetworkAclsRules(network, acls, isPrivateGateway))
}

// ApplyStaticRoutes applies VPC static routes on every running router.
func (t *AdvancedTopology) ApplyStaticRoutes(ctx context.Context, routes []*model.StaticRoute, routers []*model.Router) (bool, error) {
	if len(routes) == 0 {
		util.Debugf("No static routes to apply")
		return true, nil
	}
	r := rules.NewStaticRoutesRules(routes)
	result := true
	for _, router := range routers {
		switch {
		case router.IsRunning():
			ok, err := r.Accept(ctx, t.visitor, router)
			if err != nil {
				return false, err
			}
			result = result && ok
		case router.IsStoppedOrStopping():
			util.WithRouter(router.InstanceName).Debugf("Router is in %s, so not sending StaticRoute command to the backend", router.State)
		default:
			util.WithRouter(router.InstanceName).Warnf("Unable to apply StaticRoute, virtual router is not in the right state %s", router.State)
			return false, util.NewResourceUnavailable(util.ReasonRouterState, util.ScopeDataCenter, router.DataCenterID,
				"Unable to apply StaticRoute on the backend, virtual router %s is not in the right state", router.InstanceName)
		}
	}
	return result, nil
}

// SetupPrivateGateway plugs the private gateway address into router. A
// failed setup is rolled back on a best effort basis.
func (t *AdvancedTopology) SetupPrivateGateway(ctx context.Context, network *model.Network, gateway *model.PrivateGateway, nic *model.Nic, router *model.Router) (bool, error) {
	r := rules.NewPrivateGatewayRules(network, gateway, nic)
	ok, err := r.Accept(ctx, t.visitor, router)
	if err != nil {
		return false, err
	}
	if !ok {
		log := util.WithRouter(router.InstanceName)
		log.Warnf("Failed to setup private gateway %s, removing it", gateway.IPAddress)
		if _, rerr := r.AsRemoval().Accept(ctx, t.visitor, router); rerr != nil {
			log.Warnf("Failed to remove private gateway %s: %v", gateway.IPAddress, rerr)
		}
	}
	return ok, nil
}

// DestroyPrivateGateway removes the private gateway address from router.
func (t *AdvancedTopology) DestroyPrivateGateway(ctx context.Context, network *model.Network, gateway *model.PrivateGateway, nic *model.Nic, router *model.Router) (bool, error) {
	return rules.NewPrivateGatewayRules(network, gateway, nic).AsRemoval().Accept(ctx, t.visitor, router)
}

// SetupDhcpForPvlan programs the router host for PVLAN DHCP. NICs that are
// not on a pvlan:// broadcast domain are declined.
func (t *AdvancedTopology) SetupDhcpForPvlan(ctx context.Context, add bool, router *model.Router, nic *model.Nic) (bool, error) {
	if util.URIScheme(nic.BroadcastURI) != "pvlan" {
		return false, nil
	}
	setup, err := t.deps.Builder.CreatePvlanSetupCommand(router, add, nic)
	if err != nil {
		return false, err
	}
	return rules.NewDhcpPvlanRules(add, nic, setup).Accept(ctx, t.visitor, router)
}
