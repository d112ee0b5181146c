package main

import (
	"github.com/spf13/cobra"

	"photo-album/internal/services"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-extract capture dates from stored images and update their records",
	RunE: func(cmd *cobra.Command, args []string) error {
		onlyUnknown, err := cmd.Flags().GetBool("only-unknown")
		if err != nil {
			return err
		}
		dryRun, err := cmd.Flags().GetBool("dry-run")
		if err != nil {
			return err
		}

		if dryRun {
			logger.Println("DRY RUN - no metadata writes")
		}
		if onlyUnknown {
			logger.Println("Only updating records with an unknown capture date")
		}

		ctx := cmd.Context()
		svcs, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer svcs.Close()

		stats, err := svcs.Gallery.Reindex(ctx, services.ReindexOptions{
			OnlyUnknown: onlyUnknown,
			DryRun:      dryRun,
		})
		if err != nil {
			return err
		}

		logger.Printf("Done: updated=%d unchanged=%d skipped=%d errors=%d",
			stats.Updated, stats.Unchanged, stats.Skipped, stats.Errors)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)

	reindexCmd.Flags().Bool("only-unknown", false, "Only touch records whose capture date is Unknown")
	reindexCmd.Flags().Bool("dry-run", false, "Preview changes without writing metadata")
}
