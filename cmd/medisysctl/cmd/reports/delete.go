package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/strelizia53/medisys-sheroll-aws/internal/config"
	"github.com/strelizia53/medisys-sheroll-aws/pkg/sdk"
)

var (
	deleteClinic string
	deleteYes    bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete <upload-id>",
	Short: "Delete an upload and its parsed rows",
	Long: `Deletes an upload after confirmation. The server removes the metadata
record and every parsed row; this cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cobraCmd.Context())
		uploadID := args[0]

		id, err := requireRoles(cobraCmd.Context(), cfg, staffRoles)
		if err != nil {
			return err
		}

		clinicID := deleteClinic
		if clinicID == "" {
			clinicID = id.ClinicID
		}
		if clinicID == "" {
			return fmt.Errorf("clinic ID required; pass --clinic")
		}

		var confirm sdk.Confirmer = stdinConfirmer{}
		if deleteYes || cfg.NonInteractive {
			confirm = sdk.AlwaysConfirm
		}

		apiClient, err := cfg.ClientProvider.SDKClient(cobraCmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cobraCmd.Context(), 30*time.Second)
		defer cancel()

		coordinator := sdk.NewCoordinator(apiClient, sdk.NewListStore[sdk.UploadRecord](nil, sdk.UploadRecord.Key), confirm)
		if err := coordinator.RequestDelete(ctx, clinicID, uploadID); err != nil {
			if errors.Is(err, sdk.ErrConfirmationDeclined) {
				fmt.Println("Aborted.")
				return nil
			}
			return fmt.Errorf("delete failed: %w", err)
		}

		pterm.Success.Printf("Deleted upload %s from clinic %s\n", uploadID, clinicID)
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringVar(&deleteClinic, "clinic", "", "Clinic the upload belongs to (defaults to your clinic claim)")
	deleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "Skip the confirmation prompt")
}
