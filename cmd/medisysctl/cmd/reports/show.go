package reports

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/strelizia53/medisys-sheroll-aws/internal/config"
	"github.com/strelizia53/medisys-sheroll-aws/pkg/sdk"
)

var (
	showClinic string
	showLimit  int
	showAll    bool
	showPublic bool
)

var showCmd = &cobra.Command{
	Use:   "show <upload-id>",
	Short: "Show the parsed measurement rows of an upload",
	Long: `Shows the measurement rows parsed out of one upload. The clinic defaults
to your token's clinic claim; staff inspecting another clinic's upload
pass --clinic explicitly.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cobraCmd.Context())
		uploadID := args[0]

		clinicID := showClinic
		if !showPublic {
			id, err := requireRoles(cobraCmd.Context(), cfg, viewerRoles)
			if err != nil {
				return err
			}
			if clinicID == "" {
				clinicID = id.ClinicID
			}
		}
		if clinicID == "" {
			return fmt.Errorf("clinic ID required; pass --clinic")
		}

		apiClient, err := cfg.ClientProvider.SDKClient(cobraCmd.Context())
		if err != nil {
			return err
		}

		limit := showLimit
		if limit <= 0 {
			limit = cfg.DefaultLimit
		}

		store := sdk.NewDetailStore(sdk.DetailStoreConfig{
			Client: apiClient,
			Limit:  limit,
			Public: showPublic,
		})

		ctx, cancel := context.WithTimeout(cobraCmd.Context(), 30*time.Second)
		defer cancel()

		if err := store.Select(ctx, sdk.Selection{ClinicID: clinicID, UploadID: uploadID}); err != nil {
			return fmt.Errorf("failed to fetch upload detail: %w", err)
		}
		for showAll && store.HasMore() {
			if err := store.LoadMore(ctx); err != nil {
				return fmt.Errorf("failed to fetch next page: %w", err)
			}
		}

		rows := store.Rows()
		if len(rows) == 0 {
			fmt.Println("No rows found for this upload.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PATIENT_ID\tTEST\tVALUE\tUNIT\tCOLLECTED")
		for _, row := range rows {
			collected := row.CollectedAt
			if collected == "" {
				collected = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", row.PatientID, row.TestCode, row.Value, row.Unit, collected)
		}
		w.Flush()

		if !showAll && store.HasMore() {
			fmt.Printf("\nMore rows available; rerun with --all.\n")
		}
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&showClinic, "clinic", "", "Clinic the upload belongs to (defaults to your clinic claim)")
	showCmd.Flags().IntVar(&showLimit, "limit", 0, "Row page size (defaults to the configured default_limit)")
	showCmd.Flags().BoolVar(&showAll, "all", false, "Follow the cursor until every row is fetched")
	showCmd.Flags().BoolVar(&showPublic, "public", false, "Use the unauthenticated public read path")
}
