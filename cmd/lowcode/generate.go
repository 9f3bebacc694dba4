package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/lowcode/bootstrap"
)

var generateCmd = &cobra.Command{
	Use:   "generate [collection]",
	Short: "Generate CRUD controllers from collections",
	Long: `Generate a Go CRUD controller for a collection, or for every
collection when none is named. Files are written to the configured output
directory as <class>_controller.go.

Examples:
  # Generate controllers for all collections
  lowcode generate

  # Generate one controller with a custom class name and package
  lowcode generate product --class CatalogItem --namespace github.com/acme/shop/handlers

  # Only the read methods
  lowcode generate product --methods List,Get --out ./internal/handlers`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

var generateOpts bootstrap.GenerateOptions

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&generateOpts.ClassName, "class", "", "controller class name (default derived from the collection)")
	generateCmd.Flags().StringVar(&generateOpts.Namespace, "namespace", "", "package name or import path of the generated code")
	generateCmd.Flags().StringVarP(&generateOpts.OutputDir, "out", "o", "", "output directory")
	generateCmd.Flags().StringSliceVar(&generateOpts.Methods, "methods", nil, "methods to generate (List,Get,Create,Update,Delete)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	app, err := openApp(true)
	if err != nil {
		return err
	}
	defer app.Close()

	var paths []string
	if len(args) == 1 {
		path, err := app.GenerateController(args[0], generateOpts)
		if err != nil {
			return err
		}
		paths = append(paths, path)
	} else {
		if generateOpts.ClassName != "" {
			return fmt.Errorf("--class needs a collection name")
		}
		paths, err = app.GenerateAll(generateOpts)
		if err != nil {
			return err
		}
	}

	for _, path := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote  %s\n", path)
	}
	return nil
}
