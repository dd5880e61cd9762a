package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/strelizia53/medisys-sheroll-aws/internal/config"
	"github.com/strelizia53/medisys-sheroll-aws/pkg/sdk"
)

var (
	editClinic   string
	editFilename string
	editStatus   string
)

var editCmd = &cobra.Command{
	Use:   "edit <upload-id>",
	Short: "Edit upload metadata (Admin only)",
	Long: `Patches the filename or status of an upload. Only the fields you pass
are sent; everything else stays as it is.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cobraCmd.Context())
		uploadID := args[0]

		id, err := requireRoles(cobraCmd.Context(), cfg, adminRoles)
		if err != nil {
			return err
		}

		clinicID := editClinic
		if clinicID == "" {
			clinicID = id.ClinicID
		}
		if clinicID == "" {
			return fmt.Errorf("clinic ID required; pass --clinic")
		}

		var patch sdk.UploadPatch
		if cobraCmd.Flags().Changed("filename") {
			patch.Filename = &editFilename
		}
		if cobraCmd.Flags().Changed("status") {
			switch editStatus {
			case sdk.StatusPending, sdk.StatusCompleted, sdk.StatusFailed:
			default:
				pterm.Warning.Printf("Unrecognized status %q; sending it anyway.\n", editStatus)
			}
			patch.Status = &editStatus
		}
		if patch.Empty() {
			return fmt.Errorf("nothing to change; pass --filename and/or --status")
		}

		apiClient, err := cfg.ClientProvider.SDKClient(cobraCmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cobraCmd.Context(), 30*time.Second)
		defer cancel()

		coordinator := sdk.NewCoordinator(apiClient, sdk.NewListStore[sdk.UploadRecord](nil, sdk.UploadRecord.Key), nil)
		if err := coordinator.RequestUpdate(ctx, sdk.UpdateUploadInput{
			UploadID: uploadID,
			ClinicID: clinicID,
			Patch:    patch,
		}); err != nil {
			return fmt.Errorf("update failed: %w", err)
		}

		pterm.Success.Printf("Updated upload %s\n", uploadID)
		return nil
	},
}

func init() {
	editCmd.Flags().StringVar(&editClinic, "clinic", "", "Clinic the upload belongs to (defaults to your clinic claim)")
	editCmd.Flags().StringVar(&editFilename, "filename", "", "New filename")
	editCmd.Flags().StringVar(&editStatus, "status", "", "New status (Pending, Completed, Failed)")
}
