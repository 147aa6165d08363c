package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tenantnet/netorch/pkg/cli"
	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/store"
)

var showLive bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show inventory objects",
	Long: `Show routers, networks or hosts from the inventory.

Examples:
  netorch show routers
  netorch show networks --json
  netorch show hosts --live`,
}

var showRoutersCmd = &cobra.Command{
	Use:   "routers",
	Short: "List virtual routers",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := store.LoadFile(userSettings.GetInventory())
		if err != nil {
			return err
		}
		return showRouters(os.Stdout, m)
	},
}

var showNetworksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List networks and the routers serving them",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := store.LoadFile(userSettings.GetInventory())
		if err != nil {
			return err
		}
		return showNetworks(os.Stdout, m)
	},
}

var showHostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "List hosts",
	Long: `List hosts and their status.

With --live, status is read from the host heartbeats on the agent bus
instead of the inventory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if !showLive {
			m, err := store.LoadFile(userSettings.GetInventory())
			if err != nil {
				return err
			}
			return showHosts(os.Stdout, m)
		}

		rt, err := openRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		rt.refreshHosts(ctx)
		return showHosts(os.Stdout, rt.store)
	},
}

func init() {
	showHostsCmd.Flags().BoolVar(&showLive, "live", false, "Read status from the agent bus")

	showCmd.AddCommand(showRoutersCmd)
	showCmd.AddCommand(showNetworksCmd)
	showCmd.AddCommand(showHostsCmd)
}

func showRouters(w io.Writer, m *store.Memory) error {
	routers := m.ListAllRouters()
	if jsonOutput {
		return json.NewEncoder(w).Encode(routers)
	}

	t := cli.NewTableTo(w, "ID", "NAME", "STATE", "ZONE", "HOST", "VPC", "REDUNDANT", "STOP PENDING")
	for _, r := range routers {
		state := string(r.State)
		if r.IsRunning() {
			state = green(state)
		} else {
			state = yellow(state)
		}
		vpc := "-"
		if r.VpcID != 0 {
			vpc = strconv.FormatInt(r.VpcID, 10)
		}
		t.Row(strconv.FormatInt(r.ID, 10), bold(r.InstanceName), state,
			strconv.FormatInt(r.DataCenterID, 10), strconv.FormatInt(r.HostID, 10), vpc,
			cli.YesNo(r.IsRedundant), cli.YesNo(r.StopPending))
	}
	t.Flush()
	if t.Len() == 0 {
		fmt.Fprintln(w, "No routers in inventory")
	}
	return nil
}

func showNetworks(w io.Writer, m *store.Memory) error {
	networks := m.ListNetworks()
	if jsonOutput {
		return json.NewEncoder(w).Encode(networks)
	}

	t := cli.NewTableTo(w, "ID", "NAME", "ZONE", "TRAFFIC", "CIDR", "ROUTERS")
	for _, n := range networks {
		var names []string
		for _, r := range m.ListRouters(n.ID) {
			names = append(names, r.InstanceName)
		}
		routers := "-"
		if len(names) > 0 {
			routers = strings.Join(names, ",")
		}
		cidr := n.CIDR
		if cidr == "" {
			cidr = "-"
		}
		t.Row(strconv.FormatInt(n.ID, 10), n.Name, strconv.FormatInt(n.DataCenterID, 10),
			string(n.TrafficType), cidr, routers)
	}
	t.Flush()
	if t.Len() == 0 {
		fmt.Fprintln(w, "No networks in inventory")
	}
	return nil
}

func showHosts(w io.Writer, m *store.Memory) error {
	hosts := m.ListHosts()
	if jsonOutput {
		return json.NewEncoder(w).Encode(hosts)
	}

	t := cli.NewTableTo(w, "ID", "NAME", "ZONE", "STATUS", "AGENT BUS")
	for _, h := range hosts {
		bus := h.AgentAddr
		if bus == "" {
			bus = userSettings.AgentAddrForHost(h.ID)
		}
		t.Row(strconv.FormatInt(h.ID, 10), h.Name, strconv.FormatInt(h.DataCenterID, 10),
			cli.Severity(hostSeverity(h.Status), string(h.Status)), bus)
	}
	t.Flush()
	if t.Len() == 0 {
		fmt.Fprintln(w, "No hosts in inventory")
	}
	return nil
}

func hostSeverity(status model.HostStatus) string {
	switch status {
	case model.HostUp:
		return "info"
	case model.HostAlert:
		return "warning"
	}
	return "error"
}
