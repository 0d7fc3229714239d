package cli

import (
	"github.com/spf13/cobra"
)

var greetCmd = &cobra.Command{
	Use:   "greet <name>",
	Short: "Print a greeting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Hello, %s! You've been greeted from questlog!\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(greetCmd)
}
