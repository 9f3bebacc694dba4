package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/lowcode/bootstrap"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List registered field types",
	Long: `List every field type a collection definition may use:
the built-in types followed by the registered extensions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := bootstrap.NewRegistry()
		if err != nil {
			return err
		}
		for _, t := range reg.Types() {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
