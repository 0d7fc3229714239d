package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/questlog/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create and migrate every game store, then exit",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback <game>",
	Short: "Revert the newest migration of a game store",
	Args:  cobra.ExactArgs(1),
	RunE:  runRollback,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(rollbackCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	a, err := rt.startApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	for _, g := range a.Games() {
		s, err := a.Store(g.ID)
		if err != nil {
			return err
		}
		v, err := a.Manager().SchemaVersion(cmd.Context(), s.Handle)
		if err != nil {
			return err
		}
		cmd.Printf("%s: schema version %d\n", g.ID, v)
	}
	return nil
}

func runRollback(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	mgr, err := rt.manager()
	if err != nil {
		return err
	}
	h, err := rt.openStore(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer h.Close()

	v, err := mgr.Rollback(cmd.Context(), h)
	if errors.Is(err, migrate.ErrNothingToRollback) {
		cmd.Printf("%s: nothing to roll back\n", args[0])
		return nil
	}
	if err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	cmd.Printf("%s: schema version %d\n", args[0], v)
	return nil
}
