package cmd

import (
	"fmt"

	"stry/store"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or revert database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply the pending migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the most recent migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrateDown,
}

func init() {
	migrateDownCmd.Flags().IntP("steps", "n", 1, "number of migrations to revert")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	RootCmd.AddCommand(migrateCmd)
}

func connectStore() (*store.Store, error) {
	st, err := store.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	st, err := connectStore()
	if err != nil {
		return err
	}
	defer st.Close()

	applied, err := st.MigrateUp(cmd.Context())
	for _, name := range applied {
		infoColour.Printf("applied %s\n", name)
	}
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		warningColour.Println("database is up to date")
		return nil
	}
	successColour.Printf("applied %d migrations\n", len(applied))
	return nil
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	steps, err := cmd.Flags().GetInt("steps")
	if err != nil {
		return err
	}

	st, err := connectStore()
	if err != nil {
		return err
	}
	defer st.Close()

	reverted, err := st.MigrateDown(cmd.Context(), steps)
	for _, name := range reverted {
		infoColour.Printf("reverted %s\n", name)
	}
	if err != nil {
		return err
	}
	if len(reverted) == 0 {
		warningColour.Println("no migrations to revert")
		return nil
	}
	successColour.Printf("reverted %d migrations\n", len(reverted))
	return nil
}
