package internal

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rprichard/winpty-ship/internal/profile"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the supported MSVC releases",
	Args:  cobra.NoArgs,
	RunE:  runVersions,
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, args []string) error {
	data := pterm.TableData{{"Version", "Package", "Environment", "XP toolset"}}
	for _, id := range profile.Versions() {
		v, err := profile.Lookup(id)
		if err != nil {
			return err
		}
		data = append(data, []string{v.ID, v.PackageName, v.ToolsEnv, v.XPToolset})
	}
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s)
	return nil
}
