package command

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/util"
)

// Store is the read access the Builder needs to resolve router addressing.
type Store interface {
	FindDataCenter(id int64) (*model.DataCenter, error)
	FindNetwork(id int64) (*model.Network, error)
	FindVpc(id int64) (*model.Vpc, error)
	// FindRouterNic returns the router's NIC in the given network.
	FindRouterNic(routerID, networkID int64) (*model.Nic, error)
	ListIPAliases(networkID, routerID int64) ([]*model.IPAlias, error)
}

// PrivateIPAddress is a private gateway address with the addressing of the
// private network it lives on.
type PrivateIPAddress struct {
	IP           *model.PrivateIP
	BroadcastURI string
	Gateway      string
	Netmask      string
	MACAddress   string
}

// Builder turns rule payloads into router commands. It never sends anything.
type Builder struct {
	store Store
}

// NewBuilder creates a Builder reading addressing from store.
func NewBuilder(store Store) *Builder {
	return &Builder{store: store}
}

// access builds the access details for router. When network is non-nil the
// router's guest address and the network gateway are included.
func (b *Builder) access(router *model.Router, network *model.Network) RouterCommand {
	rc := RouterCommand{}
	rc.SetAccess(AccessRouterName, router.InstanceName)
	rc.SetAccess(AccessRouterIP, router.ControlIP)
	if dc, err := b.store.FindDataCenter(router.DataCenterID); err == nil {
		rc.SetAccess(AccessZoneNetType, string(dc.NetworkType))
	}
	if network != nil {
		if nic, err := b.store.FindRouterNic(router.ID, network.ID); err == nil {
			rc.SetAccess(AccessRouterGuest, nic.IPv4Address)
		}
		if network.Gateway != "" {
			rc.SetAccess(AccessGuestGateway, network.Gateway)
		}
		if network.CIDR != "" {
			rc.SetAccess(AccessGuestCIDR, network.CIDR)
		}
		if network.BroadcastURI != "" {
			rc.SetAccess(AccessGuestBcast, network.BroadcastURI)
		}
	}
	return rc
}

// CreateApplyStaticNatCommands adds one SetStaticNatRulesCommand for the mappings.
func (b *Builder) CreateApplyStaticNatCommands(router *model.Router, network *model.Network, nats []*model.StaticNat, cmds *Commands) {
	if len(nats) == 0 {
		return
	}
	tos := make([]StaticNatRuleTO, 0, len(nats))
	for _, n := range nats {
		tos = append(tos, StaticNatRuleTO{
			ID:         n.SourceIPAddressID,
			SrcIP:      n.SourceIP,
			SrcVlanTag: n.VlanTag,
			DstIP:      n.DestinationIP,
			Revoked:    n.Revoke,
		})
	}
	cmd := &SetStaticNatRulesCommand{RouterCommand: b.access(router, network), Rules: tos, Vpc: network.InVpc()}
	cmds.AddCommand(cmd)
}

// CreateApplyLoadBalancingRulesCommands adds one LoadBalancerConfigCommand.
func (b *Builder) CreateApplyLoadBalancingRulesCommands(router *model.Router, network *model.Network, rules []*model.LoadBalancingRule, cmds *Commands) {
	tos := make([]LoadBalancerTO, 0, len(rules))
	for _, r := range rules {
		lb := LoadBalancerTO{
			ID:        r.ID,
			SrcIP:     r.SourceIP,
			SrcPort:   r.SourcePort,
			Protocol:  r.Protocol,
			Algorithm: r.Algorithm,
			Revoked:   r.IsRevoked(),
		}
		for _, d := range r.Destinations {
			lb.Destinations = append(lb.Destinations, DestinationTO{DestIP: d.IPAddress, DestPort: d.Port, Revoked: d.Revoked})
		}
		for _, s := range r.Stickiness {
			lb.Stickiness = append(lb.Stickiness, StickinessTO{Method: s.Method, Params: s.Params})
		}
		tos = append(tos, lb)
	}
	cmds.AddCommand(&LoadBalancerConfigCommand{RouterCommand: b.access(router, network), LoadBalancers: tos, Vpc: network.InVpc()})
}

func firewallTO(r *model.FirewallRule) FirewallRuleTO {
	return FirewallRuleTO{
		ID:            r.ID,
		SrcIP:         r.PublicIP,
		SrcVlanTag:    r.VlanTag,
		Protocol:      r.Protocol,
		PortRange:     [2]int{r.SourcePortStart, r.SourcePortEnd},
		Revoked:       r.IsRevoked(),
		SourceCIDRs:   r.SourceCIDRs,
		DestCIDRs:     r.DestinationCIDRs,
		IcmpType:      r.IcmpType,
		IcmpCode:      r.IcmpCode,
		Direction:     string(r.Direction),
		DefaultEgress: r.DefaultEgress,
		Purpose:       string(r.Purpose),
	}
}

// CreateApplyFirewallRulesCommands adds one SetFirewallRulesCommand. Egress
// rules without source CIDRs are scoped to the guest network CIDR.
func (b *Builder) CreateApplyFirewallRulesCommands(router *model.Router, network *model.Network, rules []*model.FirewallRule, cmds *Commands) {
	tos := make([]FirewallRuleTO, 0, len(rules))
	for _, r := range rules {
		to := firewallTO(r)
		if r.Direction == model.Egress && len(to.SourceCIDRs) == 0 && network.CIDR != "" {
			to.SourceCIDRs = []string{network.CIDR}
		}
		tos = append(tos, to)
	}
	cmds.AddCommand(&SetFirewallRulesCommand{RouterCommand: b.access(router, network), Rules: tos})
}

// CreateApplyPortForwardingRulesCommands adds one SetPortForwardingRulesCommand.
func (b *Builder) CreateApplyPortForwardingRulesCommands(router *model.Router, network *model.Network, rules []*model.FirewallRule, cmds *Commands) {
	tos := make([]PortForwardingRuleTO, 0, len(rules))
	for _, r := range rules {
		tos = append(tos, PortForwardingRuleTO{
			FirewallRuleTO: firewallTO(r),
			DstIP:          r.DestinationIP,
			DstPortRange:   [2]int{r.DestinationPortStart, r.DestinationPortEnd},
		})
	}
	cmds.AddCommand(&SetPortForwardingRulesCommand{RouterCommand: b.access(router, network), Rules: tos, Vpc: network.InVpc()})
}

// CreateApplyStaticNatRulesCommands adds one SetStaticNatRulesCommand for
// static NAT firewall rules.
func (b *Builder) CreateApplyStaticNatRulesCommands(router *model.Router, network *model.Network, rules []*model.FirewallRule, cmds *Commands) {
	tos := make([]StaticNatRuleTO, 0, len(rules))
	for _, r := range rules {
		tos = append(tos, StaticNatRuleTO{
			ID:         r.ID,
			SrcIP:      r.PublicIP,
			SrcVlanTag: r.VlanTag,
			DstIP:      r.DestinationIP,
			Protocol:   r.Protocol,
			PortRange:  [2]int{r.SourcePortStart, r.SourcePortEnd},
			Revoked:    r.IsRevoked(),
		})
	}
	cmds.AddCommand(&SetStaticNatRulesCommand{RouterCommand: b.access(router, network), Rules: tos, Vpc: network.InVpc()})
}

// groupByVlan groups IPs by VLAN tag, preserving order inside each group and
// returning the tags sorted.
func groupByVlan(ips []*model.PublicIPAddress) ([]string, map[string][]*model.PublicIPAddress) {
	groups := make(map[string][]*model.PublicIPAddress)
	for _, ip := range ips {
		groups[ip.VlanTag] = append(groups[ip.VlanTag], ip)
	}
	tags := make([]string, 0, len(groups))
	for tag := range groups {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, groups
}

func vlanURI(tag string) string {
	if util.URIScheme(tag) != "" {
		return tag
	}
	return "vlan://" + tag
}

func publicIPTO(ip *model.PublicIPAddress, first bool, mac string) IPAddressTO {
	return IPAddressTO{
		PublicIP:     ip.Address,
		Add:          !ip.IsReleasing(),
		SourceNat:    ip.SourceNat,
		OneToOneNat:  ip.OneToOneNat,
		FirstIP:      first,
		BroadcastURI: vlanURI(ip.VlanTag),
		VlanGateway:  ip.VlanGateway,
		VlanNetmask:  ip.VlanNetmask,
		VifMAC:       mac,
		TrafficType:  string(model.TrafficPublic),
	}
}

// CreateAssociateIPCommands adds one IpAssocCommand per public VLAN.
func (b *Builder) CreateAssociateIPCommands(router *model.Router, network *model.Network, ips []*model.PublicIPAddress, cmds *Commands) {
	tags, groups := groupByVlan(ips)
	for _, tag := range tags {
		group := groups[tag]
		tos := make([]IPAddressTO, 0, len(group))
		for i, ip := range group {
			tos = append(tos, publicIPTO(ip, i == 0, ip.MACAddress))
		}
		cmds.AddCommandWithID("IPAssocCommand-"+tag, &IPAssocCommand{RouterCommand: b.access(router, network), IPs: tos})
	}
}

// CreateVpcAssociatePublicIPCommands adds one IpAssocVpcCommand per public
// VLAN, using the router NIC MAC of that VLAN, followed by a
// SetSourceNatCommand when a source NAT address is part of the set.
func (b *Builder) CreateVpcAssociatePublicIPCommands(router *model.Router, network *model.Network, ips []*model.PublicIPAddress, vlanMACs map[string]string, cmds *Commands) {
	tags, groups := groupByVlan(ips)
	var sourceNat *IPAddressTO
	for _, tag := range tags {
		group := groups[tag]
		tos := make([]IPAddressTO, 0, len(group))
		for i, ip := range group {
			to := publicIPTO(ip, i == 0, vlanMACs[util.URIValue(tag)])
			if ip.SourceNat && sourceNat == nil {
				snat := to
				sourceNat = &snat
			}
			tos = append(tos, to)
		}
		cmds.AddCommandWithID("IPAssocVpcCommand-"+tag, &IPAssocVpcCommand{RouterCommand: b.access(router, network), IPs: tos})
	}
	if sourceNat != nil {
		cmds.AddCommandWithID("SetSourceNatCommand", &SetSourceNatCommand{RouterCommand: b.access(router, network), IP: *sourceNat, Add: sourceNat.Add})
	}
}

// CreateVpcAssociatePrivateIPCommands adds the IpAssocVpcCommand for private
// gateway addresses and, for a source NAT gateway, the SetSourceNatCommand.
func (b *Builder) CreateVpcAssociatePrivateIPCommands(router *model.Router, ips []PrivateIPAddress, add bool, cmds *Commands) {
	if len(ips) == 0 {
		return
	}
	tos := make([]IPAddressTO, 0, len(ips))
	var sourceNat *IPAddressTO
	for _, p := range ips {
		to := IPAddressTO{
			PublicIP:     p.IP.IPAddress,
			Add:          add,
			SourceNat:    p.IP.SourceNat,
			BroadcastURI: p.BroadcastURI,
			VlanGateway:  p.Gateway,
			VlanNetmask:  p.Netmask,
			VifMAC:       p.MACAddress,
			TrafficType:  string(model.TrafficGuest),
		}
		if p.IP.SourceNat && sourceNat == nil {
			snat := to
			sourceNat = &snat
		}
		tos = append(tos, to)
	}
	cmds.AddCommandWithID("IPAssocVpcCommand", &IPAssocVpcCommand{RouterCommand: b.access(router, nil), IPs: tos})
	if sourceNat != nil {
		cmds.AddCommandWithID("SetSourceNatCommand", &SetSourceNatCommand{RouterCommand: b.access(router, nil), IP: *sourceNat, Add: add})
	}
}

// CreateDhcpEntryCommand adds the DhcpEntryCommand for a VM NIC. The router's
// own address in the NIC's network is announced as DNS, falling back to the
// zone resolver.
func (b *Builder) CreateDhcpEntryCommand(router *model.Router, vm *model.VirtualMachine, nic *model.Nic, remove bool, cmds *Commands) error {
	network, err := b.store.FindNetwork(nic.NetworkID)
	if err != nil {
		return fmt.Errorf("dhcp entry for %s: %w", vm.InstanceName, err)
	}
	cmd := &DhcpEntryCommand{
		RouterCommand: b.access(router, network),
		VMMac:         nic.MACAddress,
		VMIPAddress:   nic.IPv4Address,
		VMIPv6Address: nic.IPv6Address,
		VMName:        vm.HostName,
		DefaultNic:    nic.IsDefault,
		Remove:        remove,
	}
	if nic.IsDefault {
		cmd.DefaultRouter = nic.IPv4Gateway
	}
	if rnic, err := b.store.FindRouterNic(router.ID, nic.NetworkID); err == nil {
		cmd.DefaultDNS = rnic.IPv4Address
	} else if dc, err := b.store.FindDataCenter(network.DataCenterID); err == nil {
		cmd.DefaultDNS = dc.DNS1
	}
	cmds.AddCommandWithID("dhcp", cmd)
	return nil
}

// CreatePasswordCommand adds the SavePasswordCommand carrying the profile
// password. Nothing is added without a password or for a non-default NIC.
func (b *Builder) CreatePasswordCommand(router *model.Router, profile *model.VMProfile, nic *model.Nic, cmds *Commands) {
	if profile.Password == "" || !nic.IsDefault {
		return
	}
	cmds.AddCommandWithID("password", &SavePasswordCommand{
		RouterCommand: b.access(router, nil),
		Password:      profile.Password,
		VMIPAddress:   nic.IPv4Address,
		VMName:        profile.VM.HostName,
	})
}

// CreateVMDataCommand adds the VmDataCommand holding user data and metadata.
// sshPublicKey overrides the key recorded on the VM when non-empty.
func (b *Builder) CreateVMDataCommand(router *model.Router, vm *model.VirtualMachine, nic *model.Nic, sshPublicKey string, cmds *Commands) {
	zoneName := ""
	if dc, err := b.store.FindDataCenter(router.DataCenterID); err == nil {
		zoneName = dc.Name
	}
	if sshPublicKey == "" {
		sshPublicKey = vm.SSHPublicKey
	}
	data := []VMData{
		{"userdata", "user-data", vm.UserData},
		{"metadata", "service-offering", vm.ServiceOffering},
		{"metadata", "availability-zone", zoneName},
		{"metadata", "local-ipv4", nic.IPv4Address},
		{"metadata", "local-hostname", vm.HostName},
		{"metadata", "public-keys", sshPublicKey},
		{"metadata", "instance-id", vm.InstanceName},
		{"metadata", "vm-id", strconv.FormatInt(vm.ID, 10)},
	}
	if vm.UUID != "" {
		data = append(data, VMData{"metadata", "cloud-identifier", "CloudStack-{" + vm.UUID + "}"})
	}
	cmds.AddCommandWithID("vmdata", &VMDataCommand{
		RouterCommand: b.access(router, nil),
		VMIPAddress:   nic.IPv4Address,
		VMName:        vm.HostName,
		Data:          data,
	})
}

// CreateApplyVpnUsersCommand adds one VpnUsersCfgCommand for the user set.
func (b *Builder) CreateApplyVpnUsersCommand(router *model.Router, users []*model.VpnUser, cmds *Commands) {
	tos := make([]VpnUserTO, 0, len(users))
	for _, u := range users {
		tos = append(tos, VpnUserTO{Username: u.Username, Password: u.Password, Add: u.State != model.RuleRevoke})
	}
	cmds.AddCommand(&VpnUsersCfgCommand{RouterCommand: b.access(router, nil), Users: tos})
}

// CreateNetworkACLsCommands adds one SetNetworkACLCommand bound to the router
// NIC in network. Items are ordered by number.
func (b *Builder) CreateNetworkACLsCommands(router *model.Router, network *model.Network, rules []*model.NetworkACLItem, privateGateway bool, cmds *Commands) error {
	nic, err := b.store.FindRouterNic(router.ID, network.ID)
	if err != nil {
		return fmt.Errorf("router %s has no nic in network %d: %w", router.InstanceName, network.ID, err)
	}
	sorted := make([]*model.NetworkACLItem, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	tos := make([]NetworkACLTO, 0, len(sorted))
	for _, r := range sorted {
		tos = append(tos, NetworkACLTO{
			ID:          r.ID,
			Number:      r.Number,
			Protocol:    r.Protocol,
			PortRange:   [2]int{r.SourcePortStart, r.SourcePortEnd},
			SourceCIDRs: r.SourceCIDRs,
			Direction:   string(r.Direction),
			Action:      string(r.Action),
			Revoked:     r.State == model.RuleRevoke,
			IcmpType:    r.IcmpType,
			IcmpCode:    r.IcmpCode,
		})
	}
	netmask := nic.IPv4Netmask
	if netmask == "" && network.CIDR != "" {
		netmask, _ = util.CIDRNetmask(network.CIDR)
	}
	cmds.AddCommand(&SetNetworkACLCommand{
		RouterCommand: b.access(router, network),
		Rules:         tos,
		Nic: NicTO{
			MAC:          nic.MACAddress,
			IP:           nic.IPv4Address,
			Netmask:      netmask,
			Gateway:      network.Gateway,
			BroadcastURI: network.BroadcastURI,
		},
		PrivateGateway: privateGateway,
	})
	return nil
}

// CreateStaticRouteCommands adds one SetStaticRouteCommand.
func (b *Builder) CreateStaticRouteCommands(router *model.Router, routes []*model.StaticRoute, cmds *Commands) {
	tos := make([]StaticRouteTO, 0, len(routes))
	for _, r := range routes {
		tos = append(tos, StaticRouteTO{ID: r.ID, CIDR: r.CIDR, GatewayIP: r.GatewayIP, Revoked: r.State == model.RuleRevoke})
	}
	cmds.AddCommand(&SetStaticRouteCommand{RouterCommand: b.access(router, nil), Routes: tos})
}

// CreateIPAliasCommand adds a CreateIpAliasCommand for the router in networkID.
func (b *Builder) CreateIPAliasCommand(router *model.Router, aliases []IPAliasTO, networkID int64, cmds *Commands) error {
	nic, err := b.store.FindRouterNic(router.ID, networkID)
	if err != nil {
		return fmt.Errorf("router %s has no nic in network %d: %w", router.InstanceName, networkID, err)
	}
	cmds.AddCommandWithID("ipalias", &CreateIPAliasCommand{RouterCommand: b.access(router, nil), RouterIP: nic.IPv4Address, Aliases: aliases})
	return nil
}

// ConfigDnsMasq adds a DnsMasqConfigCommand serving DHCP on every alias the
// router holds in network.
func (b *Builder) ConfigDnsMasq(router *model.Router, network *model.Network, cmds *Commands) error {
	aliases, err := b.store.ListIPAliases(network.ID, router.ID)
	if err != nil {
		return err
	}
	ranges := make([]DhcpTO, 0, len(aliases))
	for _, a := range aliases {
		ranges = append(ranges, DhcpTO{RouterIP: a.IPAddress, Gateway: a.Gateway, Netmask: a.Netmask, StartIP: a.IPAddress})
	}
	cmds.AddCommandWithID("dnsmasq", &DnsMasqConfigCommand{RouterCommand: b.access(router, network), Ranges: ranges})
	return nil
}

// CreatePvlanSetupCommand builds the host-side PVLAN DHCP setup for a router
// NIC whose broadcast URI is "pvlan://<primary>-i<isolated>".
func (b *Builder) CreatePvlanSetupCommand(router *model.Router, add bool, nic *model.Nic) (*PvlanSetupCommand, error) {
	if util.URIScheme(nic.BroadcastURI) != "pvlan" {
		return nil, fmt.Errorf("nic %d broadcast uri %q is not pvlan: %w", nic.ID, nic.BroadcastURI, util.ErrInvalidArgument)
	}
	primary, isolated, ok := strings.Cut(util.URIValue(nic.BroadcastURI), "-i")
	if !ok || primary == "" || isolated == "" {
		return nil, fmt.Errorf("malformed pvlan uri %q: %w", nic.BroadcastURI, util.ErrInvalidArgument)
	}
	op := "add"
	if !add {
		op = "delete"
	}
	return &PvlanSetupCommand{
		RouterCommand: b.access(router, nil),
		Op:            op,
		PrimaryVlan:   primary,
		IsolatedVlan:  isolated,
		DhcpName:      router.InstanceName,
		DhcpMAC:       nic.MACAddress,
		DhcpIP:        nic.IPv4Address,
		NetworkTag:    nic.BroadcastURI,
	}, nil
}

// CreateNetworkUsageCommand builds the usage-accounting command for a public
// NIC newly plugged into a VPC router.
func (b *Builder) CreateNetworkUsageCommand(router *model.Router, nic *model.Nic) (*NetworkUsageCommand, error) {
	vpc, err := b.store.FindVpc(router.VpcID)
	if err != nil {
		return nil, fmt.Errorf("router %s vpc %d: %w", router.InstanceName, router.VpcID, err)
	}
	return &NetworkUsageCommand{
		RouterCommand: b.access(router, nil),
		PrivateIP:     router.ControlIP,
		Domain:        router.InstanceName,
		Option:        "create",
		GuestIP:       nic.IPv4Address,
		VpcCIDR:       vpc.CIDR,
		ForVpc:        true,
	}, nil
}
