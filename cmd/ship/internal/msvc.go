package internal

import (
	"os"
	"os/signal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rprichard/winpty-ship/internal/profile"
	"github.com/rprichard/winpty-ship/internal/runner"
	"github.com/rprichard/winpty-ship/internal/ship"
)

var msvcVersion string

var msvcCmd = &cobra.Command{
	Use:   "msvc",
	Short: "Build and package winpty with MSVC",
	Long: `Msvc builds winpty for ia32 and x64, with and without the Windows XP
toolset, and writes ship/packages/winpty-<version>-msvc<year>.zip.

<version> is read from VERSION.txt and must be a semantic version of the
form MAJOR.MINOR.PATCH with an optional -prerelease suffix (0.4.4-dev).
Two-part versions such as 0.4 are rejected.`,
	Args: cobra.NoArgs,
	RunE: runMSVC,
}

func init() {
	msvcCmd.Flags().StringVar(&msvcVersion, "msvc-version", profile.Newest(), "MSVC release to build with")
	rootCmd.AddCommand(msvcCmd)
}

func runMSVC(cmd *cobra.Command, args []string) error {
	v, err := profile.Lookup(msvcVersion)
	if err != nil {
		return err
	}
	top, err := topDir()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(top)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	pterm.DefaultSection.Printfln("winpty %s", v.PackageName)
	a := ship.New(ship.Options{
		TopDir:  top,
		Config:  cfg,
		Version: v,
		Runner:  runner.New(),
	})
	path, err := a.Run(ctx)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("wrote %s", path)
	return nil
}
