package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/strelizia53/medisys-sheroll-aws/internal/config"
)

var uploadFilename string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a report file for ingestion",
	Long: `Submits a CSV report file to the portal for parsing. The server assigns
an upload ID, stores the raw file, and parses the measurement rows into
the upload's detail view.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cobraCmd.Context())

		if _, err := requireRoles(cobraCmd.Context(), cfg, viewerRoles); err != nil {
			return err
		}

		path := args[0]
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer file.Close()

		filename := uploadFilename
		if filename == "" {
			filename = filepath.Base(path)
		}

		apiClient, err := cfg.ClientProvider.SDKClient(cobraCmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cobraCmd.Context(), 60*time.Second)
		defer cancel()

		result, err := apiClient.CreateUpload(ctx, filename, file)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}

		pterm.Success.Printf("Uploaded %s\n", filename)
		pterm.Info.Printf("Upload ID: %s\n", result.UploadID)
		pterm.Info.Printf("Parsed rows: %d\n", result.RowCount)
		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadFilename, "filename", "", "Override the filename sent to the server")
}
