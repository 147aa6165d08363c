package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tenantnet/netorch/pkg/audit"
	"github.com/tenantnet/netorch/pkg/cli"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View audit logs",
	Long: `View the audit log of router dispatches.

Every command batch pushed to a router is logged with:
  - Timestamp
  - Zone topology and intent
  - Router and network affected
  - Outcome (applied, rejected, disconnected, stop-pending, ...)

Redundant pair remediations are logged as well.

Examples:
  netorch audit list --router r-20-VM
  netorch audit list --last 24h
  netorch audit list --outcome disconnected`,
}

var (
	auditRouter   string
	auditTopology string
	auditIntent   string
	auditOutcome  string
	auditNetwork  int64
	auditLast     string
	auditLimit    int
	auditFailures bool
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := audit.Filter{
			Router:      auditRouter,
			Topology:    auditTopology,
			Intent:      auditIntent,
			Outcome:     audit.Outcome(auditOutcome),
			NetworkID:   auditNetwork,
			Limit:       auditLimit,
			FailureOnly: auditFailures,
		}

		// Parse --last duration
		if auditLast != "" {
			duration, err := time.ParseDuration(auditLast)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", auditLast)
			}
			filter.StartTime = time.Now().Add(-duration)
		}

		logger, err := openAuditLog()
		if err != nil {
			return err
		}
		defer logger.Close()

		events, err := logger.Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(events)
		}

		if len(events) == 0 {
			fmt.Println("No audit events found")
			return nil
		}

		t := cli.NewTable("TIMESTAMP", "TOPOLOGY", "INTENT", "ROUTER", "OUTCOME", "DETAIL")
		for _, event := range events {
			detail := event.Message
			if event.Error != "" {
				detail = event.Error
			}
			if detail == "" {
				detail = "-"
			}
			router := event.Router
			if router == "" {
				router = "-"
			}
			t.Row(
				event.Timestamp.Format("2006-01-02 15:04:05"),
				event.Topology,
				event.Intent,
				router,
				cli.Severity(string(event.Severity()), string(event.Outcome)),
				detail,
			)
		}
		t.Flush()

		return nil
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditRouter, "router", "", "Filter by router name")
	auditListCmd.Flags().StringVar(&auditTopology, "topology", "", "Filter by zone topology (Basic, Advanced)")
	auditListCmd.Flags().StringVar(&auditIntent, "intent", "", "Filter by intent")
	auditListCmd.Flags().StringVar(&auditOutcome, "outcome", "", "Filter by outcome")
	auditListCmd.Flags().Int64Var(&auditNetwork, "network", 0, "Filter by network id")
	auditListCmd.Flags().StringVar(&auditLast, "last", "", "Show events from last duration (e.g., 1h, 24h)")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum events to show")
	auditListCmd.Flags().BoolVar(&auditFailures, "failures", false, "Show only failed dispatches")

	auditCmd.AddCommand(auditListCmd)
}
