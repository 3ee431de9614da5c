package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/hookchat/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckMessage string
	healthcheckPerf    int
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the configured webhooks are reachable",
	Long: `Check the health of the configured webhooks by verifying:
  • Configuration loading
  • Endpoint availability (HEAD request)
  • A raw test message to the first endpoint
  • Optional latency statistics (--perf N)

Requests go directly to the endpoints, without relays.

Examples:
  hookchat healthcheck
  hookchat healthcheck --perf 5 -v`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		fmt.Fprintln(out, sectionStyle.Render("🔍 Webhook Health Check"))
		fmt.Fprintln(out)

		// Step 1: Load configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		cfg, paths, err := loadConfig()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to load configuration:"), err)
			return err
		}
		fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if verbose {
			if paths.ConfigExists() {
				fmt.Fprintf(out, "   Config file: %s\n", paths.ConfigFile)
			} else {
				fmt.Fprintf(out, "   Config file: none, using defaults\n")
			}
			fmt.Fprintf(out, "   Endpoints: %d\n", len(cfg.Endpoints))
			fmt.Fprintf(out, "   Relays: %d\n", len(cfg.Relays))
			fmt.Fprintf(out, "   Identity store: %s\n", cfg.Identity.Driver)
		}
		fmt.Fprintln(out)

		prober := internal.NewProber(nil, cfg.Source, cfg.Timeouts.AvailabilityCheck)

		// Step 2: Availability
		fmt.Fprintln(out, infoStyle.Render("Step 2: Checking endpoint availability..."))
		var results []internal.Availability
		_ = internal.ShowProgress(ctx, "Probing endpoints...", func() error {
			results = prober.CheckAll(ctx, cfg.Endpoints)
			return nil
		})
		available := 0
		for _, r := range results {
			if r.Available {
				available++
				fmt.Fprintln(out, successStyle.Render("✅ "+r.URL), fmt.Sprintf("(%d, %s)", r.Status, r.Latency.Round(1e6)))
				continue
			}
			reason := fmt.Sprintf("status %d", r.Status)
			if r.Err != nil {
				reason = r.Err.Error()
			}
			fmt.Fprintln(out, warningStyle.Render("⚠️  "+r.URL), reason)
		}
		fmt.Fprintln(out)

		// Step 3: Test message
		target := cfg.Endpoints[0]
		fmt.Fprintln(out, infoStyle.Render("Step 3: Sending a test message..."))
		test := prober.SendTestMessage(ctx, target, healthcheckMessage)
		if test.Success {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Test message answered in %s", test.ResponseTime.Round(1e6))))
		} else if test.Err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Test message failed:"), test.Err)
		} else {
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("❌ Test message returned status %d", test.Status)))
		}
		if verbose && test.Data != nil {
			printData(out, test.Data)
		}
		fmt.Fprintln(out)

		// Step 4: Performance
		if healthcheckPerf > 0 {
			fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Step 4: Measuring latency over %d messages...", healthcheckPerf)))
			var stats internal.PerfStats
			err := internal.ShowProgress(ctx, "Sampling...", func() error {
				var err error
				stats, err = prober.PerformanceStats(ctx, target, healthcheckPerf)
				return err
			})
			if err != nil {
				fmt.Fprintln(out, errorStyle.Render("❌ Latency measurement failed:"), err)
			} else {
				fmt.Fprintf(out, "   Average: %s\n", stats.Avg.Round(1e6))
				fmt.Fprintf(out, "   Min: %s\n", stats.Min.Round(1e6))
				fmt.Fprintf(out, "   Max: %s\n", stats.Max.Round(1e6))
				fmt.Fprintf(out, "   Success rate: %.0f%%\n", stats.SuccessRate)
			}
			fmt.Fprintln(out)
		}

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)

		switch {
		case available == len(results) && test.Success:
			fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("   • Endpoints: %d/%d available", available, len(results))))
			return nil
		case available > 0 || test.Success:
			fmt.Fprintln(out, warningStyle.Render("⚠️  Some endpoints are degraded"))
			fmt.Fprintf(out, "   • Endpoints: %d/%d available\n", available, len(results))
			if len(cfg.Relays) > 0 {
				fmt.Fprintln(out, "   • Messages can still be delivered through relays")
			}
			return nil
		default:
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			fmt.Fprintln(out, "   • No endpoint answered")
			return fmt.Errorf("health check failed: no endpoint reachable")
		}
	},
}

func printData(w io.Writer, data map[string]any) {
	pretty, err := json.MarshalIndent(data, "   ", "  ")
	if err != nil {
		return
	}
	fmt.Fprintf(w, "   Response: %s\n", pretty)
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().StringVarP(&healthcheckMessage, "message", "m", "Тестовое сообщение", "Text of the test message")
	healthcheckCmd.Flags().IntVar(&healthcheckPerf, "perf", 0, "Send N test messages and report latency")
}
