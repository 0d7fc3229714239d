package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/questlog/internal/config"
)

var writeConfig bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Prints the configuration after defaults, the config file and flags are applied.
With --write the result is saved to the config file if it does not exist yet.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&writeConfig, "write", false, "write the configuration file if missing")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	data, err := toml.Marshal(rt.cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	cmd.Print(string(data))

	if !writeConfig {
		return nil
	}
	if _, err := os.Stat(rt.configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", rt.configFile)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(rt.configFile), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := config.Save(rt.configFile, rt.cfg); err != nil {
		return err
	}
	cmd.PrintErrf("wrote %s\n", rt.configFile)
	return nil
}
