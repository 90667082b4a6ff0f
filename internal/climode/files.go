package climode

import (
	"github.com/spf13/cobra"

	"github.com/gzhole/longline/internal/diag"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List configuration layers loaded and their contributions",
	RunE:  runFiles,
}

func init() {
	rootCmd.AddCommand(filesCmd)
}

func runFiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	diag.WriteFilesTable(cmd.OutOrStdout(), cfg.Layers)
	return nil
}
