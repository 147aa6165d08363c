package topology

import (
	"context"

	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/rules"
)

// NetworkTopology applies network intents to the routers of one zone
// flavor. Boolean results report aggregate success; failures come back as
// *util.ResourceUnavailableError or *util.NotImplementedError.
type NetworkTopology interface {
	Kind() model.NetworkType
	Visitor() rules.Visitor

	ConfigDhcpForSubnet(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile,
		dest *model.DeployDestination, routers []*model.Router, alias *model.IPAlias) (bool, error)
	ApplyDhcpEntry(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile,
		dest *model.DeployDestination, routers []*model.Router) (bool, error)
	RemoveDhcpEntry(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile,
		routers []*model.Router) (bool, error)
	ApplyUserData(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile,
		dest *model.DeployDestination, routers []*model.Router) (bool, error)

	ApplyLoadBalancingRules(ctx context.Context, network *model.Network, lbs []*model.LoadBalancingRule, routers []*model.Router) (bool, error)
	ApplyFirewallRules(ctx context.Context, network *model.Network, fw []*model.FirewallRule, routers []*model.Router) (bool, error)
	ApplyStaticNats(ctx context.Context, network *model.Network, nats []*model.StaticNat, routers []*model.Router) (bool, error)
	AssociatePublicIP(ctx context.Context, network *model.Network, ips []*model.PublicIPAddress, routers []*model.Router) (bool, error)

	// ApplyVpnUsers returns one entry per user: "" when applied, a failure
	// marker otherwise.
	ApplyVpnUsers(ctx context.Context, network *model.Network, users []*model.VpnUser, routers []*model.Router) ([]string, error)
	ApplyRemoteAccessVpnUsers(ctx context.Context, vpn *model.RemoteAccessVpn, users []*model.VpnUser, router *model.Router) ([]string, error)

	SavePasswordToRouter(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile, router *model.Router) (bool, error)
	SaveSSHPublicKeyToRouter(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile,
		router *model.Router, sshPublicKey string) (bool, error)
	SaveUserDataToRouter(ctx context.Context, network *model.Network, nic *model.Nic, profile *model.VMProfile, router *model.Router) (bool, error)

	ApplyNetworkACLs(ctx context.Context, network *model.Network, acls []*model.NetworkACLItem, routers []*model.Router, isPrivateGateway bool) (bool, error)
	ApplyStaticRoutes(ctx context.Context, routes []*model.StaticRoute, routers []*model.Router) (bool, error)
	SetupPrivateGateway(ctx context.Context, network *model.Network, gateway *model.PrivateGateway, nic *model.Nic, router *model.Router) (bool, error)
	DestroyPrivateGateway(ctx context.Context, network *model.Network, gateway *model.PrivateGateway, nic *model.Nic, router *model.Router) (bool, error)
	SetupDhcpForPvlan(ctx context.Context, add bool, router *model.Router, nic *model.Nic) (bool, error)

	ApplyRules(ctx context.Context, network *model.Network, routers []*model.Router, typeString string,
		isPodLevelException bool, podID int64, failWhenDisconnect bool, applier rules.Applier) (bool, error)
}

// VpnUserFailed marks a user whose VPN credentials were not applied.
const VpnUserFailed = "false"

func vpnResults(n int, applied bool) []string {
	out := make([]string, n)
	if !applied {
		for i := range out {
			out[i] = VpnUserFailed
		}
	}
	return out
}
