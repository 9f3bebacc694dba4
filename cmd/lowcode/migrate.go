package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the tables of every collection",
	Long: `Create the table, foreign key columns and join tables of every
collection that does not have a table yet. Existing tables are left alone
unless --drop is given, in which case they are dropped and recreated.

Examples:
  lowcode migrate
  lowcode migrate --drop --config staging.yaml`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var dropCmd = &cobra.Command{
	Use:   "drop <collection>",
	Short: "Drop the tables of a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runDrop,
}

var migrateDrop bool

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(dropCmd)

	migrateCmd.Flags().BoolVar(&migrateDrop, "drop", false, "drop and recreate existing tables")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	app, err := openApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Migrate(context.Background(), migrateDrop)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range res.Dropped {
		fmt.Fprintf(out, "dropped  %s\n", name)
	}
	for _, name := range res.Created {
		fmt.Fprintf(out, "created  %s\n", name)
	}
	for _, name := range res.Skipped {
		fmt.Fprintf(out, "exists   %s\n", name)
	}
	return nil
}

func runDrop(cmd *cobra.Command, args []string) error {
	app, err := openApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Drop(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "dropped  %s\n", args[0])
	return nil
}
