package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/safetrail/safetrail/internal/common/config"
	"github.com/safetrail/safetrail/internal/common/logger"
	"github.com/safetrail/safetrail/internal/health"
	"github.com/safetrail/safetrail/internal/patterns"
	"github.com/safetrail/safetrail/internal/risk"
	"github.com/safetrail/safetrail/internal/safety"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// app carries the persistent flags and the state built from them
type app struct {
	configFile string
	server     string
	output     string
	verbose    bool
	timeout    time.Duration

	cfg     *config.Config
	log     *zap.Logger
	service *safety.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "riskctl",
		Short: "Tourist safety risk tool",
		Long: `riskctl scores locations and analyzes alert batches.

Examples:
  # Score a location at 23:00 using the configured zone table
  riskctl score --lat 28.6139 --lng 77.2090 --hour 23

  # Analyze an alert batch read from a file
  riskctl analyze alerts.json --days 7

  # Score against a running service instead of in-process
  riskctl score --lat 19.076 --lng 72.8777 --server http://localhost:8000

  # List the configured risk zones
  riskctl zones

  # Check a running service
  riskctl health --server http://localhost:8000
`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file (default is ./config.yaml)")
	root.PersistentFlags().StringVarP(&a.server, "server", "s", "", "risk service base URL; when set, score and analyze call the service")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", outputText, "output format: text or json")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose logging")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 10*time.Second, "request timeout in remote mode")

	root.AddCommand(newScoreCmd(a), newAnalyzeCmd(a), newZonesCmd(a), newHealthCmd(a))
	root.CompletionOptions.DisableDefaultCmd = true

	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.output != outputText && a.output != outputJSON {
		return fmt.Errorf("unknown output format %q", a.output)
	}

	cfg, err := config.LoadFrom("riskctl", a.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	a.log = logger.New(cfg.Environment, level)

	registry, err := cfg.Registry()
	if err != nil {
		return err
	}
	a.service = safety.NewService(registry, a.log,
		safety.WithDefaultTimeRangeDays(cfg.DefaultTimeRangeDays))
	return nil
}

func (a *app) remote() *remoteClient {
	if a.server == "" {
		return nil
	}
	return newRemoteClient(a.server, a.timeout)
}

func newScoreCmd(a *app) *cobra.Command {
	var (
		lat, lng   float64
		hour, day  int
		alertsFile string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Assess the risk of a location",
		Long:  "Assess the risk of a location. Hour and weekday default to the current local time.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := safety.PredictRequest{
				Location: safety.Location{Latitude: lat, Longitude: lng},
			}
			if cmd.Flags().Changed("hour") {
				req.Hour = &hour
			}
			if cmd.Flags().Changed("day") {
				req.DayOfWeek = &day
			}
			if alertsFile != "" {
				alerts, err := readAlerts(cmd.InOrStdin(), alertsFile)
				if err != nil {
					return err
				}
				req.HistoricalAlerts = alerts
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
			defer cancel()

			var (
				result *risk.Assessment
				err    error
			)
			if client := a.remote(); client != nil {
				result, err = client.PredictRisk(ctx, req)
			} else {
				result, err = a.service.PredictRisk(ctx, req)
			}
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), result, func(w io.Writer) { writeAssessment(w, result) })
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in decimal degrees")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude in decimal degrees")
	cmd.Flags().IntVar(&hour, "hour", 0, "hour of day 0-23 (default: now)")
	cmd.Flags().IntVar(&day, "day", 0, "day of week 0-6, Monday=0 (default: today)")
	cmd.Flags().StringVar(&alertsFile, "alerts-file", "", "JSON file of recent alerts near the location ('-' for stdin)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")

	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "analyze <alerts.json|->",
		Short: "Find hotspots and time patterns in an alert batch",
		Long: `Find hotspots and time patterns in an alert batch.

The input is either a JSON array of alerts or an object with an "alerts"
array. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alerts, err := readAlerts(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
			defer cancel()

			var report *patterns.Report
			if client := a.remote(); client != nil {
				report, err = client.AnalyzePatterns(ctx, alerts, days)
			} else {
				report, err = a.service.AnalyzePatterns(ctx, alerts, days)
			}
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), report, func(w io.Writer) { writeReport(w, report) })
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "time range in days (default from config)")

	return cmd
}

func newZonesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "List the configured risk zones and night hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := a.service.Registry()
			view := struct {
				Zones       []risk.Zone      `json:"zones"`
				TimeProfile risk.TimeProfile `json:"time_profile"`
			}{registry.Zones(), registry.TimeProfile()}

			return a.render(cmd.OutOrStdout(), view, func(w io.Writer) {
				writeZones(w, view.Zones, view.TimeProfile)
			})
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the health of a running service (requires --server)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := a.remote()
			if client == nil {
				return fmt.Errorf("health requires --server")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
			defer cancel()

			result, err := client.Health(ctx)
			if err != nil {
				return err
			}
			if err := a.render(cmd.OutOrStdout(), result, func(w io.Writer) { writeHealth(w, result) }); err != nil {
				return err
			}
			if result.Status == health.ServiceUnhealthy {
				return fmt.Errorf("service %s is %s", result.Service, result.Status)
			}
			return nil
		},
	}
}

func (a *app) render(w io.Writer, v interface{}, text func(io.Writer)) error {
	if a.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

// readAlerts reads a JSON alert array, or an object with an "alerts" array,
// from path or from stdin when path is "-". Alerts are validated like the
// HTTP API validates them.
func readAlerts(stdin io.Reader, path string) ([]patterns.Alert, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read alerts: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("no alerts in %s", path)
	}

	var alerts []patterns.Alert
	if data[0] == '[' {
		err = json.Unmarshal(data, &alerts)
	} else {
		var wrapped struct {
			Alerts []patterns.Alert `json:"alerts"`
		}
		err = json.Unmarshal(data, &wrapped)
		alerts = wrapped.Alerts
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse alerts: %w", err)
	}

	if err := safety.ValidateAlerts(alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func writeAssessment(w io.Writer, a *risk.Assessment) {
	fmt.Fprintf(w, "Risk level:  %s\n", a.RiskLevel)
	fmt.Fprintf(w, "Risk score:  %.2f\n", a.RiskScore)
	fmt.Fprintf(w, "Confidence:  %.2f\n", a.Confidence)
	fmt.Fprintln(w, "Factors:")
	for _, f := range a.RiskFactors {
		fmt.Fprintf(w, "  - %s\n", f)
	}
	fmt.Fprintln(w, "Recommendations:")
	for _, r := range a.Recommendations {
		fmt.Fprintf(w, "  - %s\n", r)
	}
}

func writeReport(w io.Writer, r *patterns.Report) {
	fmt.Fprintf(w, "Alerts analyzed: %d\n", r.RiskTrends.TotalAlerts)

	if len(r.Hotspots) > 0 {
		fmt.Fprintln(w, "Hotspots:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  LATITUDE\tLONGITUDE\tALERTS\tSEVERITY\tTYPES")
		for _, h := range r.Hotspots {
			fmt.Fprintf(tw, "  %.2f\t%.2f\t%d\t%s\t%s\n",
				h.Location.Latitude, h.Location.Longitude, h.AlertCount, h.Severity, strings.Join(h.AlertTypes, ","))
		}
		tw.Flush()
	}

	if len(r.TimePatterns.PeakHours) > 0 {
		fmt.Fprintf(w, "Peak hours: %s\n", joinInts(r.TimePatterns.PeakHours))
	}
	if len(r.TimePatterns.PeakDays) > 0 {
		fmt.Fprintf(w, "Peak days:  %s\n", joinInts(r.TimePatterns.PeakDays))
	}

	fmt.Fprintln(w, "Insights:")
	for _, insight := range r.Insights {
		fmt.Fprintf(w, "  - %s\n", insight)
	}
}

func writeZones(w io.Writer, zones []risk.Zone, profile risk.TimeProfile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLATITUDE\tLONGITUDE\tRADIUS\tRISK FACTOR")
	for _, z := range zones {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%g\t%g\n", z.Name, z.Latitude, z.Longitude, z.Radius, z.RiskFactor)
	}
	tw.Flush()
	fmt.Fprintf(w, "Night hours: %s\n", joinInts(profile.NightHours))
}

func writeHealth(w io.Writer, h *health.HealthResponse) {
	fmt.Fprintf(w, "Service: %s %s\n", h.Service, h.Version)
	fmt.Fprintf(w, "Status:  %s\n", h.Status)
	if h.Uptime != "" {
		fmt.Fprintf(w, "Uptime:  %s\n", h.Uptime)
	}

	names := make([]string, 0, len(h.Components))
	for name := range h.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPONENT\tSTATUS\tLATENCY\tDETAILS")
	for _, name := range names {
		c := h.Components[name]
		fmt.Fprintf(tw, "%s\t%s\t%.1fms\t%s\n", name, c.Status, c.LatencyMS, c.Details)
	}
	tw.Flush()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
