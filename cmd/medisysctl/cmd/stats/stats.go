package stats

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/strelizia53/medisys-sheroll-aws/internal/config"
	"github.com/strelizia53/medisys-sheroll-aws/pkg/sdk"
)

var (
	statsScope string
	statsLimit int
)

// StatsCmd renders the aggregate dashboard the portal's admin page
// shows: totals, status histogram, per-clinic counts, and an
// uploads-over-time chart.
var StatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate upload statistics",
	Long: `Fetches every page of uploads in the given scope and derives aggregate
statistics: totals, status breakdown, per-clinic counts, and uploads per
day.`,
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cobraCmd.Context())

		scope := sdk.Scope(statsScope)
		switch scope {
		case sdk.ScopeOwn:
			if err := requireStats(cobraCmd.Context(), cfg, []string{"ClinicUser", "HealthcareTeam", "Admin"}); err != nil {
				return err
			}
		case sdk.ScopeAll:
			if err := requireStats(cobraCmd.Context(), cfg, []string{"HealthcareTeam", "Admin"}); err != nil {
				return err
			}
		case sdk.ScopePublic:
		default:
			return fmt.Errorf("unknown scope %q (own, all, public)", statsScope)
		}

		apiClient, err := cfg.ClientProvider.SDKClient(cobraCmd.Context())
		if err != nil {
			return err
		}

		limit := statsLimit
		if limit <= 0 {
			limit = cfg.DefaultLimit
		}

		store := sdk.NewListStore(func(ctx context.Context, startKey string) (sdk.Page[sdk.UploadRecord], error) {
			return apiClient.ListUploads(ctx, sdk.ListUploadsInput{
				Scope:    scope,
				Limit:    limit,
				StartKey: startKey,
			})
		}, sdk.UploadRecord.Key)

		ctx, cancel := context.WithTimeout(cobraCmd.Context(), 60*time.Second)
		defer cancel()

		if err := store.Load(ctx); err != nil {
			return fmt.Errorf("failed to list uploads: %w", err)
		}
		for store.HasMore() {
			if err := store.LoadMore(ctx); err != nil {
				return fmt.Errorf("failed to fetch next page: %w", err)
			}
		}

		summary := sdk.Summarize(store.Items())

		pterm.DefaultSection.Println("Upload Statistics")
		pterm.Info.Printf("Total uploads: %d\n", summary.TotalUploads)
		pterm.Info.Printf("Total rows:    %d\n", summary.TotalRows)
		pterm.Info.Printf("Clinics:       %d\n", summary.Clinics)

		if len(summary.StatusCounts) > 0 {
			pterm.DefaultSection.Println("By Status")
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STATUS\tCOUNT")
			for _, status := range sortedKeys(summary.StatusCounts) {
				fmt.Fprintf(w, "%s\t%d\n", status, summary.StatusCounts[status])
			}
			w.Flush()
		}

		if len(summary.UploadsPerClinic) > 0 {
			pterm.DefaultSection.Println("By Clinic")
			bars := make(pterm.Bars, 0, len(summary.UploadsPerClinic))
			for _, clinic := range sortedKeys(summary.UploadsPerClinic) {
				bars = append(bars, pterm.Bar{Label: clinic, Value: summary.UploadsPerClinic[clinic]})
			}
			if err := pterm.DefaultBarChart.WithHorizontal().WithShowValue().WithBars(bars).Render(); err != nil {
				return err
			}
		}

		if len(summary.UploadsPerDay) > 0 {
			pterm.DefaultSection.Println("Uploads Per Day")
			bars := make(pterm.Bars, 0, len(summary.UploadsPerDay))
			for _, day := range summary.UploadsPerDay {
				bars = append(bars, pterm.Bar{Label: day.Day, Value: day.Count})
			}
			if err := pterm.DefaultBarChart.WithHorizontal().WithShowValue().WithBars(bars).Render(); err != nil {
				return err
			}
		}
		return nil
	},
}

func requireStats(ctx context.Context, cfg *config.GlobalConfig, allowed []string) error {
	broker, err := cfg.ClientProvider.Broker(ctx)
	if err != nil {
		return err
	}
	gate, err := sdk.NewGate(broker, allowed, nil)
	if err != nil {
		return err
	}
	defer gate.Stop()
	if gate.Start() != sdk.DecisionGranted {
		id, _ := broker.Current()
		if !id.Authenticated {
			return fmt.Errorf("not logged in; run `medisysctl auth login`")
		}
		return fmt.Errorf("access denied: requires one of roles %s", strings.Join(allowed, ", "))
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	StatsCmd.Flags().StringVar(&statsScope, "scope", string(sdk.ScopeOwn), "Statistics scope: own, all, or public")
	StatsCmd.Flags().IntVar(&statsLimit, "limit", 0, "Page size used while fetching (defaults to the configured default_limit)")
}
