package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strelizia53/medisys-sheroll-aws/internal/auth"
	"github.com/strelizia53/medisys-sheroll-aws/internal/config"
	"github.com/strelizia53/medisys-sheroll-aws/pkg/sdk"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the MediSys portal",
	Long: `Authenticates against the portal's identity provider using the device
authorization flow. A browser window opens for you to approve the login;
the resulting tokens are stored under ~/.medisys and carry the role and
clinic claims the portal API checks on every request.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		if cfg.Issuer == "" || cfg.ClientID == "" {
			return fmt.Errorf("issuer and client_id must be set in ~/.medisys/config.yaml before logging in")
		}

		store, err := auth.NewFileStore()
		if err != nil {
			return fmt.Errorf("failed to create credential store: %w", err)
		}

		meta, creds, err := sdk.LoginWithDeviceCode(cmd.Context(), cfg.Issuer, cfg.ClientID)
		if err != nil {
			return err
		}
		if err := store.SaveCredentials(creds); err != nil {
			return fmt.Errorf("failed to save credentials: %w", err)
		}

		fmt.Println("------------------------------------------------------------")
		fmt.Printf("✅ Login successful!\n")
		if meta.User != "" {
			fmt.Printf("Authenticated as: %s (%s)\n", meta.User, meta.Email)
		}
		fmt.Printf("Token expires at: %s\n", meta.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}
