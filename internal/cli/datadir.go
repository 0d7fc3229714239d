package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dshills/questlog/internal/opener"
)

var openDataDir bool

// newOpener is swapped in tests
var newOpener = func(rt *runtime) opener.Opener {
	return opener.NewSystem(rt.logger)
}

var datadirCmd = &cobra.Command{
	Use:   "datadir",
	Short: "Print the data directory",
	Args:  cobra.NoArgs,
	RunE:  runDatadir,
}

func init() {
	datadirCmd.Flags().BoolVar(&openDataDir, "open", false, "also open the directory in the file manager")
	rootCmd.AddCommand(datadirCmd)
}

func runDatadir(cmd *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	dir, err := rt.resolver.DataDir()
	if err != nil {
		return err
	}
	cmd.Println(dir)

	if openDataDir {
		if err := newOpener(rt).Open(dir); err != nil {
			if errors.Is(err, opener.ErrNoDisplay) {
				cmd.PrintErrln("no display detected; not opening")
				return nil
			}
			return err
		}
	}
	return nil
}
