package intent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/topology"
	"github.com/tenantnet/netorch/pkg/util"
)

// Store resolves the ids an intent refers to.
type Store interface {
	FindDataCenter(id int64) (*model.DataCenter, error)
	FindNetwork(id int64) (*model.Network, error)
	FindRouter(id int64) (*model.Router, error)
	ListRouters(networkID int64) []*model.Router
	FindVM(id int64) (*model.VirtualMachine, error)
	FindNic(id int64) (*model.Nic, error)
	FindVMNic(vmID, networkID int64) (*model.Nic, error)
	FindRouterNic(routerID, networkID int64) (*model.Nic, error)
	FindIPAlias(id int64) (*model.IPAlias, error)
	FindPublicIP(id int64) (*model.PublicIPAddress, error)
	FindPrivateGateway(id int64) (*model.PrivateGateway, error)
}

// Result is the outcome of one intent.
type Result struct {
	Intent  *Intent
	Zone    model.NetworkType
	Success bool
	// VpnResults holds one entry per user for VPN intents.
	VpnResults []string
	Err        error
	Duration   time.Duration
}

// Executor runs intents through the topology of their zone.
type Executor struct {
	topologies *topology.Context
	store      Store
}

// NewExecutor creates an executor.
func NewExecutor(topologies *topology.Context, store Store) *Executor {
	return &Executor{topologies: topologies, store: store}
}

// Run executes the intents of doc in order. Every intent gets a Result;
// with StopOnError the run ends after the first unsuccessful one. The
// returned error is the first intent error, if any.
func (e *Executor) Run(ctx context.Context, doc *Document) ([]*Result, error) {
	var results []*Result
	var firstErr error
	for _, in := range doc.Intents {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := e.Execute(ctx, in)
		results = append(results, res)
		if res.Err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", in, res.Err)
		}
		if doc.StopOnError && !res.Success {
			break
		}
	}
	return results, firstErr
}

// Execute runs one intent.
func (e *Executor) Execute(ctx context.Context, in *Intent) *Result {
	start := time.Now()
	res := &Result{Intent: in}
	res.Success, res.VpnResults, res.Zone, res.Err = e.execute(ctx, in)
	res.Duration = time.Since(start)

	log := util.WithField("intent", in.String())
	switch {
	case res.Err != nil:
		log.Warnf("Intent failed: %v", res.Err)
	case !res.Success:
		log.Warn("Intent not applied")
	default:
		log.Infof("Intent applied in %s", res.Duration.Round(time.Millisecond))
	}
	return res
}

// target is what an intent resolved to before dispatch.
type target struct {
	network  *model.Network
	routers  []*model.Router
	topology topology.NetworkTopology
}

func (e *Executor) resolve(in *Intent, networkID int64) (*target, error) {
	t := &target{}
	if networkID != 0 {
		n, err := e.store.FindNetwork(networkID)
		if err != nil {
			return nil, err
		}
		t.network = n
	}

	if len(in.Routers) > 0 {
		for _, id := range in.Routers {
			r, err := e.store.FindRouter(id)
			if err != nil {
				return nil, err
			}
			t.routers = append(t.routers, r)
		}
	} else if t.network != nil {
		t.routers = e.store.ListRouters(t.network.ID)
	}

	var zone int64
	switch {
	case t.network != nil:
		zone = t.network.DataCenterID
	case len(t.routers) > 0:
		zone = t.routers[0].DataCenterID
	default:
		return nil, fmt.Errorf("%w: cannot tell the zone of %s", util.ErrInvalidArgument, in)
	}
	dc, err := e.store.FindDataCenter(zone)
	if err != nil {
		return nil, err
	}
	t.topology, err = e.topologies.RetrieveNetworkTopology(dc)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (e *Executor) vmNic(in *Intent, network *model.Network) (*model.VMProfile, *model.Nic, error) {
	vm, err := e.store.FindVM(in.VM)
	if err != nil {
		return nil, nil, err
	}
	var nic *model.Nic
	if in.Nic != 0 {
		nic, err = e.store.FindNic(in.Nic)
	} else {
		nic, err = e.store.FindVMNic(vm.ID, network.ID)
	}
	if err != nil {
		return nil, nil, err
	}
	return &model.VMProfile{VM: vm, Password: in.Password}, nic, nil
}

func (e *Executor) execute(ctx context.Context, in *Intent) (bool, []string, model.NetworkType, error) {
	networkID := in.Network
	var gw *model.PrivateGateway
	if in.Kind == KindPrivateGateway {
		g, err := e.store.FindPrivateGateway(in.Gateway)
		if err != nil {
			return false, nil, "", err
		}
		gw = g
		networkID = g.NetworkID
	}

	t, err := e.resolve(in, networkID)
	if err != nil {
		return false, nil, "", err
	}
	zone := t.topology.Kind()
	ok, vpn, err := e.dispatch(ctx, in, t, gw)
	return ok, vpn, zone, err
}

func (e *Executor) dispatch(ctx context.Context, in *Intent, t *target, gw *model.PrivateGateway) (bool, []string, error) {
	topo := t.topology
	network := t.network
	routers := t.routers

	switch in.Kind {
	case KindFirewall:
		ok, err := topo.ApplyFirewallRules(ctx, network, in.FirewallRules, routers)
		return ok, nil, err
	case KindLoadBalancing:
		ok, err := topo.ApplyLoadBalancingRules(ctx, network, in.LoadBalancers, routers)
		return ok, nil, err
	case KindStaticNat:
		ok, err := topo.ApplyStaticNats(ctx, network, in.StaticNats, routers)
		return ok, nil, err
	case KindIPAssociation:
		ips := make([]*model.PublicIPAddress, 0, len(in.PublicIPs))
		for _, id := range in.PublicIPs {
			ip, err := e.store.FindPublicIP(id)
			if err != nil {
				return false, nil, err
			}
			ips = append(ips, ip)
		}
		ok, err := topo.AssociatePublicIP(ctx, network, ips, routers)
		return ok, nil, err

	case KindVpnUsers:
		res, err := topo.ApplyVpnUsers(ctx, network, in.VpnUsers, routers)
		return err == nil && allApplied(res), res, err
	case KindRemoteAccessVpn:
		res, err := topo.ApplyRemoteAccessVpnUsers(ctx, in.Vpn, in.VpnUsers, routers[0])
		return err == nil && allApplied(res), res, err

	case KindNetworkACLs:
		ok, err := topo.ApplyNetworkACLs(ctx, network, in.ACLs, routers, in.PrivateGatewayACL)
		return ok, nil, err
	case KindStaticRoutes:
		ok, err := topo.ApplyStaticRoutes(ctx, in.StaticRoutes, routers)
		return ok, nil, err
	case KindPrivateGateway:
		ok, err := e.eachRouter(ctx, routers, func(router *model.Router) (bool, error) {
			nic, err := e.store.FindRouterNic(router.ID, gw.NetworkID)
			if err != nil {
				return false, err
			}
			if in.Remove {
				return topo.DestroyPrivateGateway(ctx, network, gw, nic, router)
			}
			return topo.SetupPrivateGateway(ctx, network, gw, nic, router)
		})
		return ok, nil, err
	case KindDhcpPvlan:
		nic, err := e.store.FindNic(in.Nic)
		if err != nil {
			return false, nil, err
		}
		ok, err := topo.SetupDhcpForPvlan(ctx, !in.Remove, routers[0], nic)
		return ok, nil, err
	}

	// The rest push VM metadata.
	profile, nic, err := e.vmNic(in, network)
	if err != nil {
		return false, nil, err
	}
	var ok bool
	switch in.Kind {
	case KindDhcpEntry:
		ok, err = topo.ApplyDhcpEntry(ctx, network, nic, profile, in.Destination, routers)
	case KindRemoveDhcpEntry:
		ok, err = topo.RemoveDhcpEntry(ctx, network, nic, profile, routers)
	case KindUserData:
		ok, err = topo.ApplyUserData(ctx, network, nic, profile, in.Destination, routers)
	case KindConfigDhcpSubnet:
		alias, aerr := e.store.FindIPAlias(in.Alias)
		if aerr != nil {
			return false, nil, aerr
		}
		ok, err = topo.ConfigDhcpForSubnet(ctx, network, nic, profile, in.Destination, routers, alias)
	case KindPassword:
		ok, err = e.eachRouter(ctx, routers, func(router *model.Router) (bool, error) {
			return topo.SavePasswordToRouter(ctx, network, nic, profile, router)
		})
	case KindSSHKey:
		ok, err = e.eachRouter(ctx, routers, func(router *model.Router) (bool, error) {
			return topo.SaveSSHPublicKeyToRouter(ctx, network, nic, profile, router, in.SSHKey)
		})
	case KindRouterUserData:
		ok, err = e.eachRouter(ctx, routers, func(router *model.Router) (bool, error) {
			return topo.SaveUserDataToRouter(ctx, network, nic, profile, router)
		})
	default:
		return false, nil, fmt.Errorf("%w: intent kind %q", util.ErrInvalidArgument, in.Kind)
	}
	return ok, nil, err
}

// eachRouter runs a single-router operation on every router and reports
// whether all of them succeeded. The first error stops the loop.
func (e *Executor) eachRouter(ctx context.Context, routers []*model.Router, fn func(*model.Router) (bool, error)) (bool, error) {
	if len(routers) == 0 {
		return false, fmt.Errorf("%w: no router to apply to", util.ErrNotFound)
	}
	result := true
	for _, router := range routers {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		ok, err := fn(router)
		if err != nil {
			return false, err
		}
		result = result && ok
	}
	return result, nil
}

func allApplied(results []string) bool {
	for _, r := range results {
		if r != "" {
			return false
		}
	}
	return true
}

// IsNotImplemented reports whether a result failed because the zone flavor
// does not support the intent.
func (r *Result) IsNotImplemented() bool {
	return errors.Is(r.Err, util.ErrNotImplemented)
}
