package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strelizia53/medisys-sheroll-aws/cmd/medisysctl/cmd/auth"
	"github.com/strelizia53/medisys-sheroll-aws/cmd/medisysctl/cmd/reports"
	"github.com/strelizia53/medisys-sheroll-aws/cmd/medisysctl/cmd/stats"
	"github.com/strelizia53/medisys-sheroll-aws/internal/client"
	"github.com/strelizia53/medisys-sheroll-aws/internal/config"
)

var (
	serverURL      string
	nonInteractive bool
)

var rootCmd = &cobra.Command{
	Use:   "medisysctl",
	Short: "MediSys CLI - clinic diagnostic report portal client",
	Long: `medisysctl is the command-line interface for the MediSys diagnostic
report portal. Use it to browse, upload, and manage clinic report uploads,
and to inspect aggregate statistics across clinics.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Check for MEDISYS_NON_INTERACTIVE environment variable
		if os.Getenv("MEDISYS_NON_INTERACTIVE") == "1" {
			nonInteractive = true
		}

		dir, err := config.Dir()
		if err != nil {
			return err
		}
		fileCfg, err := config.Load(dir)
		if err != nil {
			return err
		}

		resolvedURL := fileCfg.ServerURL
		if serverURL != "" {
			resolvedURL = serverURL
		}

		cfg := &config.GlobalConfig{
			ServerURL:      resolvedURL,
			Issuer:         fileCfg.Issuer,
			ClientID:       fileCfg.ClientID,
			DefaultLimit:   fileCfg.DefaultLimit,
			NonInteractive: nonInteractive,
			ClientProvider: client.NewProvider(resolvedURL, fileCfg.Issuer, fileCfg.ClientID),
		}
		cmd.SetContext(config.InjectConfig(cmd.Context(), cfg))
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Reports API endpoint URL (overrides the config file)")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Disable interactive prompts (also set via MEDISYS_NON_INTERACTIVE=1)")
	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(reports.ReportsCmd)
	rootCmd.AddCommand(stats.StatsCmd)
}
