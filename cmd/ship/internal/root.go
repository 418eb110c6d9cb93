package internal

import (
	"path/filepath"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/rprichard/winpty-ship/internal/config"
)

var (
	rootDir    string
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:          "ship",
	Short:        "ship packages winpty binaries",
	Long:         `ship builds winpty with MSVC for every supported architecture and packages the results as a zip file.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetOutputLevel(log.Ldebug)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "Top directory of the winpty checkout")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Settings file (default <root>/"+config.DefaultFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every command being run")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}

func topDir() (string, error) {
	return filepath.Abs(rootDir)
}

// loadConfig reads the settings file. The default file may be absent; one
// named with --config may not.
func loadConfig(top string) (config.Config, error) {
	if configFile == "" {
		return config.Load(filepath.Join(top, filepath.FromSlash(config.DefaultFile)), true)
	}
	return config.Load(configFile, false)
}
