package climode

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gzhole/longline/internal/policyconf"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Extract the embedded default rules to the user overlay directory",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dest := configPath
	if dest == "" {
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolving home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
		dest = filepath.Join(base, "longline")
	} else {
		dest = filepath.Dir(dest)
	}

	if err := policyconf.ExtractDefaults(dest); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "longline: extracted default rules to %s\n", dest)
	return nil
}
