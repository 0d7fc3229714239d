package cli

import (
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// Persistent flags
var (
	configPath string
	dataDir    string
	gameData   string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "questlog",
	Short: "Track daily game tasks in per-game SQLite stores",
	Long: `questlog keeps one SQLite store per game under its data directory,
migrates each store on startup and serves the tracker over MCP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default <data dir>/config.toml)")
	flags.StringVar(&dataDir, "data-dir", "", "data directory (default $QUESTLOG_DATA_DIR or the platform config directory)")
	flags.StringVar(&gameData, "game-data", "", "game definitions directory (default <data dir>/gamedata)")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "", "log format: console or json")
}

// Execute runs the root command with the given build metadata.
func Execute(v, built string) error {
	if v != "" {
		version = v
	}
	if built != "" {
		buildTime = built
	}
	return rootCmd.Execute()
}
