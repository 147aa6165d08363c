// Netorch - virtual router command orchestration
//
// Netorch turns network intents (firewall rules, NAT, DHCP entries, VPN
// users, ACLs, private gateways) into command batches for the virtual
// routers of a zone, and pushes them to the router agents over the agent
// bus. Basic and Advanced zones get their own command flavor; redundant
// router pairs where only one router answered are marked for a stop.
//
// Examples:
//
//	netorch apply intents.yaml                  # Apply every intent in order
//	netorch apply intents.yaml --stop-on-error  # Stop at the first failure
//	netorch show routers                        # Routers of the inventory
//	netorch audit list --last 1h --failures     # Recent failed dispatches
//	netorch agent serve r-20-VM                 # Lab agent answering batches
//	netorch settings set agent.tunnel jump-1    # Reach the bus over SSH
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tenantnet/netorch/pkg/cli"
	"github.com/tenantnet/netorch/pkg/settings"
	"github.com/tenantnet/netorch/pkg/util"
	"github.com/tenantnet/netorch/pkg/version"
)

var (
	// Global option flags
	inventoryPath string
	verbose       bool
	jsonOutput    bool
	metricsAddr   string
	tunnelHost    string
	sshUser       string

	// Global state
	userSettings = &settings.Settings{}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("Error:"), err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "netorch",
	Short:             "Virtual router command orchestration",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Netorch applies network intents to the virtual routers of a cloud zone.

Intents are read from a YAML document and run in order. Each one is turned
into command batches for every router serving the network, which are queued
on the agent bus and answered by the router agents.

  netorch apply <intents.yaml> [--stop-on-error]`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isSettingsOrHelp(cmd) {
			return nil
		}

		s, err := settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			s = &settings.Settings{}
		}
		userSettings = s

		// Flags win over settings and environment
		if inventoryPath != "" {
			userSettings.Inventory = inventoryPath
		}
		if metricsAddr != "" {
			userSettings.MetricsAddr = metricsAddr
		}
		if tunnelHost != "" {
			userSettings.Agent.Tunnel = tunnelHost
		}
		if sshUser != "" {
			userSettings.Agent.SSHUser = sshUser
		}

		if userSettings.LogJSON {
			util.SetJSONFormat()
		}
		// Quiet by default, verbose on -v
		level := "warn"
		if verbose {
			level = "debug"
		} else if userSettings.LogLevel != "" {
			level = userSettings.GetLogLevel()
		}
		if err := util.SetLogLevel(level); err != nil {
			return fmt.Errorf("log level %q: %w", level, err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&inventoryPath, "inventory", "I", "", "Inventory file (default from settings)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&tunnelHost, "tunnel", "", "Reach the agent bus through this SSH host")
	rootCmd.PersistentFlags().StringVar(&sshUser, "ssh-user", "", "SSH user for --tunnel")

	for _, cmd := range []*cobra.Command{applyCmd, showCmd, auditCmd, agentStatusCmd} {
		addOutputFlags(cmd)
	}

	rootCmd.AddGroup(
		&cobra.Group{ID: "intent", Title: "Intent Operations:"},
		&cobra.Group{ID: "agent", Title: "Agent Bus:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)

	for _, cmd := range []*cobra.Command{applyCmd, showCmd} {
		cmd.GroupID = "intent"
		rootCmd.AddCommand(cmd)
	}

	agentCmd.GroupID = "agent"
	rootCmd.AddCommand(agentCmd)

	for _, cmd := range []*cobra.Command{settingsCmd, auditCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String("netorch"))
		if verbose {
			fmt.Println(version.Info())
		}
	},
}

// isSettingsOrHelp checks whether cmd (or any ancestor) is a settings, help, or version command.
func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "settings":
			return true
		}
	}
	return false
}

// addOutputFlags registers --json as a local flag.
// For parent commands, this is a PersistentFlag so subcommands inherit.
func addOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if cmd.HasSubCommands() {
		flags = cmd.PersistentFlags()
	}
	flags.BoolVar(&jsonOutput, "json", false, "JSON output")
}

// Color helpers delegate to pkg/cli
func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
func bold(s string) string   { return cli.Bold(s) }
