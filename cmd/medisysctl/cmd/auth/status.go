package auth

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/strelizia53/medisys-sheroll-aws/internal/config"
	"github.com/strelizia53/medisys-sheroll-aws/pkg/sdk"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display authentication status and portal access",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		broker, err := cfg.ClientProvider.Broker(cmd.Context())
		if err != nil {
			return err
		}

		id, err := broker.Current()
		if err != nil {
			return fmt.Errorf("failed to read identity: %w", err)
		}

		pterm.DefaultSection.Println("Authentication Status")
		if !id.Authenticated {
			pterm.Warning.Println("Not logged in. Run `medisysctl auth login`.")
			return nil
		}

		pterm.Info.Printf("Logged in with token expiring at: %s\n", id.ExpiresAt.Format(time.RFC1123))

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SUBJECT\tUSERNAME\tEMAIL\tCLINIC\tROLES")
		roles := "-"
		if len(id.Roles) > 0 {
			roles = strings.Join(id.Roles, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", id.Subject, orDash(id.Username), orDash(id.Email), orDash(id.ClinicID), roles)
		w.Flush()

		pterm.DefaultSection.Println("Portal Access")
		printAccess("Reports (own clinic)", id, []string{"ClinicUser", "HealthcareTeam", "Admin"})
		printAccess("Reports (all clinics)", id, []string{"HealthcareTeam", "Admin"})
		printAccess("Edit metadata", id, []string{"Admin"})
		printAccess("Delete uploads", id, []string{"HealthcareTeam", "Admin"})
		return nil
	},
}

func printAccess(screen string, id sdk.Identity, allowed []string) {
	if sdk.Evaluate(id, allowed) == sdk.DecisionGranted {
		pterm.Success.Printf("%s: granted\n", screen)
		return
	}
	pterm.Error.Printf("%s: denied (requires one of: %s)\n", screen, strings.Join(allowed, ", "))
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
