package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ragqa/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration to .rag/config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := writeDefaultConfig(GetRootDir(), initForce)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing configuration")
}

// writeDefaultConfig creates dir/.rag and saves the default configuration
// there, refusing to replace an existing file unless force is set.
func writeDefaultConfig(dir string, force bool) (string, error) {
	if err := config.EnsureRAGDir(dir); err != nil {
		return "", fmt.Errorf("failed to create .rag directory: %w", err)
	}

	path := filepath.Join(dir, ".rag", "config.yaml")
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
