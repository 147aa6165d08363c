package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tenantnet/netorch/pkg/cli"
	"github.com/tenantnet/netorch/pkg/intent"
)

var (
	applyStopOnError bool
	applySkipHosts   bool
)

var applyCmd = &cobra.Command{
	Use:   "apply <intents.yaml>",
	Short: "Apply an intent document",
	Long: `Apply the intents of a YAML document, in order.

Each intent resolves its network and routers from the inventory and is
dispatched through the topology of its zone. Routers default to every
router with a NIC in the network.

Host status is read from the agent bus first, so routers on hosts that
stopped sending heartbeats are treated as disconnected.

Examples:
  netorch apply intents.yaml
  netorch apply intents.yaml --stop-on-error --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := intent.LoadFile(args[0])
		if err != nil {
			return err
		}
		if applyStopOnError {
			doc.StopOnError = true
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := openRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		if !applySkipHosts {
			rt.refreshHosts(ctx)
		}

		results, runErr := rt.executor.Run(ctx, doc)
		if jsonOutput {
			if err := json.NewEncoder(os.Stdout).Encode(newReports(results)); err != nil {
				return err
			}
		} else {
			printResults(os.Stdout, results, len(doc.Intents))
		}

		if runErr != nil {
			return runErr
		}
		if n := countRejected(results); n > 0 {
			return fmt.Errorf("%d of %d intents not applied", n, len(doc.Intents))
		}
		return nil
	},
}

func init() {
	applyCmd.Flags().BoolVar(&applyStopOnError, "stop-on-error", false, "Stop at the first intent that is not applied")
	applyCmd.Flags().BoolVar(&applySkipHosts, "skip-host-check", false, "Use host status from the inventory as is")
	applyCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while applying")
}

// intentReport is the JSON form of an intent result.
type intentReport struct {
	Intent         string   `json:"intent"`
	Kind           string   `json:"kind"`
	Zone           string   `json:"zone,omitempty"`
	Success        bool     `json:"success"`
	NotImplemented bool     `json:"not_implemented,omitempty"`
	VpnResults     []string `json:"vpn_results,omitempty"`
	Error          string   `json:"error,omitempty"`
	DurationMs     int64    `json:"duration_ms"`
}

func newReports(results []*intent.Result) []intentReport {
	reports := make([]intentReport, 0, len(results))
	for _, r := range results {
		rep := intentReport{
			Intent:         r.Intent.String(),
			Kind:           string(r.Intent.Kind),
			Zone:           string(r.Zone),
			Success:        r.Success,
			NotImplemented: r.IsNotImplemented(),
			VpnResults:     r.VpnResults,
			DurationMs:     r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			rep.Error = r.Err.Error()
		}
		reports = append(reports, rep)
	}
	return reports
}

func printResults(w io.Writer, results []*intent.Result, total int) {
	width := 0
	for _, r := range results {
		if n := len(r.Intent.String()); n > width {
			width = n
		}
	}
	width += 4

	for _, r := range results {
		line := fmt.Sprintf("%s %s", cli.DotPad(r.Intent.String(), width), cli.Result(r.Success, r.Err))
		if r.Zone != "" {
			line += fmt.Sprintf(" (%s, %s)", r.Zone, r.Duration.Round(time.Millisecond))
		}
		fmt.Fprintln(w, line)
		if r.Err != nil {
			fmt.Fprintf(w, "  %s\n", r.Err)
		}
		for i, v := range r.VpnResults {
			if v != "" {
				fmt.Fprintf(w, "  vpn user %d: %s\n", i, yellow("not applied"))
			}
		}
	}
	if skipped := total - len(results); skipped > 0 {
		fmt.Fprintf(w, "%s\n", yellow(fmt.Sprintf("%d intents skipped after failure", skipped)))
	}
}

func countRejected(results []*intent.Result) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}
