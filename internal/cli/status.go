package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema version of every game store without migrating",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	games, err := rt.loadCatalog()
	if err != nil {
		return err
	}
	mgr, err := rt.manager()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GAME\tSCHEMA\tLATEST\tPATH")
	for _, g := range games.Games() {
		h, err := rt.openStore(cmd.Context(), g.ID)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t%d\t%v\n", g.ID, mgr.Latest(), err)
			continue
		}
		v, err := mgr.SchemaVersion(cmd.Context(), h)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t%d\t%v\n", g.ID, mgr.Latest(), err)
		} else {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", g.ID, v, mgr.Latest(), h.Path())
		}
		_ = h.Close()
	}
	return w.Flush()
}
