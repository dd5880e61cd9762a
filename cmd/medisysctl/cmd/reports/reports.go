package reports

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/strelizia53/medisys-sheroll-aws/internal/config"
	"github.com/strelizia53/medisys-sheroll-aws/pkg/sdk"
)

// Role sets mirroring the portal's screen guards.
var (
	viewerRoles = []string{"ClinicUser", "HealthcareTeam", "Admin"}
	staffRoles  = []string{"HealthcareTeam", "Admin"}
	adminRoles  = []string{"Admin"}
)

// ReportsCmd is the parent command for report upload operations
var ReportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Browse and manage report uploads",
	Long:  `Commands for listing, inspecting, uploading, editing, and deleting report uploads.`,
}

func init() {
	ReportsCmd.AddCommand(listCmd)
	ReportsCmd.AddCommand(showCmd)
	ReportsCmd.AddCommand(uploadCmd)
	ReportsCmd.AddCommand(editCmd)
	ReportsCmd.AddCommand(deleteCmd)
}

// requireRoles gates a command behind an allowed-role set and returns
// the identity that passed. The denial message names the missing roles,
// the same hint the portal shows on its access screen.
func requireRoles(ctx context.Context, cfg *config.GlobalConfig, allowed []string) (sdk.Identity, error) {
	broker, err := cfg.ClientProvider.Broker(ctx)
	if err != nil {
		return sdk.Identity{}, err
	}

	gate, err := sdk.NewGate(broker, allowed, nil)
	if err != nil {
		return sdk.Identity{}, err
	}
	defer gate.Stop()

	if gate.Start() != sdk.DecisionGranted {
		id, _ := broker.Current()
		if !id.Authenticated {
			return sdk.Identity{}, fmt.Errorf("not logged in; run `medisysctl auth login`")
		}
		return sdk.Identity{}, fmt.Errorf("access denied: requires one of roles %s", strings.Join(allowed, ", "))
	}

	id, err := broker.Current()
	if err != nil {
		return sdk.Identity{}, err
	}
	return id, nil
}

// statusBadge colors a status the way the portal renders its badges.
func statusBadge(status string) string {
	switch status {
	case sdk.StatusCompleted:
		return pterm.Green(status)
	case sdk.StatusPending:
		return pterm.Yellow(status)
	case sdk.StatusFailed:
		return pterm.Red(status)
	case "":
		return "-"
	}
	return status
}

// stdinConfirmer prompts on stdin for a y/n answer.
type stdinConfirmer struct{}

func (stdinConfirmer) Confirm(prompt string) (bool, error) {
	fmt.Printf("%s (y/n): ", prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read input: %w", err)
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
