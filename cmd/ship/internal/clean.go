package internal

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rprichard/winpty-ship/internal/workspace"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated projects and build output",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	top, err := topDir()
	if err != nil {
		return err
	}
	removed, err := workspace.Clean(top)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, p := range removed {
		if rel, err := filepath.Rel(top, p); err == nil {
			p = rel
		}
		fmt.Fprintln(out, filepath.ToSlash(p))
	}
	return nil
}
