package reports

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/strelizia53/medisys-sheroll-aws/internal/config"
	"github.com/strelizia53/medisys-sheroll-aws/pkg/sdk"
)

var (
	listScope  string
	listLimit  int
	listAll    bool
	listSearch string
	listClinic string
	listStatus string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List report uploads",
	Long: `Lists report uploads one page at a time. The default scope is your own
clinic; staff roles may pass --scope all to see every clinic, and
--scope public uses the unauthenticated read path.`,
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cobraCmd.Context())

		scope := sdk.Scope(listScope)
		switch scope {
		case sdk.ScopeOwn:
			if _, err := requireRoles(cobraCmd.Context(), cfg, viewerRoles); err != nil {
				return err
			}
		case sdk.ScopeAll:
			if _, err := requireRoles(cobraCmd.Context(), cfg, staffRoles); err != nil {
				return err
			}
		case sdk.ScopePublic:
			// No gate on the public read path.
		default:
			return fmt.Errorf("unknown scope %q (own, all, public)", listScope)
		}

		apiClient, err := cfg.ClientProvider.SDKClient(cobraCmd.Context())
		if err != nil {
			return err
		}

		limit := listLimit
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

		ctx, cancel := context.WithTimeout(cobraCmd.Context(), 30*time.Second)
		defer cancel()

		if err := store.Load(ctx); err != nil {
			return fmt.Errorf("failed to list uploads: %w", err)
		}
		for listAll && store.HasMore() {
			if err := store.LoadMore(ctx); err != nil {
				return fmt.Errorf("failed to fetch next page: %w", err)
			}
		}

		items := filterUploads(store.Items())
		printUploads(items)
		if !listAll && store.HasMore() {
			fmt.Printf("\nMore results available; rerun with --all or a larger --limit.\n")
		}
		return nil
	},
}

// filterUploads applies the client-side narrowing filters, the same way
// the portal filters its already-fetched table rows.
func filterUploads(items []sdk.UploadRecord) []sdk.UploadRecord {
	if listSearch == "" && listClinic == "" && listStatus == "" {
		return items
	}
	needle := strings.ToLower(listSearch)
	out := items[:0:0]
	for _, item := range items {
		if listClinic != "" && item.ClinicID != listClinic {
			continue
		}
		if listStatus != "" && !strings.EqualFold(item.Status, listStatus) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(item.Filename), needle) &&
			!strings.Contains(strings.ToLower(item.UploadID), needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func printUploads(items []sdk.UploadRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UPLOAD_ID\tCLINIC\tFILENAME\tSTATUS\tROWS\tUPLOADED")
	for _, item := range items {
		uploaded := "-"
		if !item.UploadedAt.IsZero() {
			uploaded = item.UploadedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			item.UploadID, item.ClinicID, item.Filename, statusBadge(item.Status), item.RowCount, uploaded)
	}
	w.Flush()
}

func init() {
	listCmd.Flags().StringVar(&listScope, "scope", string(sdk.ScopeOwn), "Listing scope: own, all, or public")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Page size (defaults to the configured default_limit)")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Follow the cursor until every page is fetched")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Filter by substring of filename or upload ID")
	listCmd.Flags().StringVar(&listClinic, "clinic", "", "Filter by clinic ID")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by upload status")
}
