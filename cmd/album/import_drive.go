package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var importDriveCmd = &cobra.Command{
	Use:   "import-drive",
	Short: "Import every image from the configured Google Drive folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svcs, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer svcs.Close()

		if svcs.Drive == nil {
			return errors.New("import-drive requires GOOGLE_DRIVE_FOLDER_ID and Drive credentials")
		}

		logger.Println("Starting Drive import...")
		logger.Println("Rate limiting: 2 seconds between Drive API calls with exponential backoff retry")

		stats, err := svcs.Drive.ImportFolder(ctx)
		if err != nil {
			return err
		}

		logger.Printf("Done: imported=%d skipped=%d errors=%d", stats.Imported, stats.Skipped, stats.Errors)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importDriveCmd)
}
