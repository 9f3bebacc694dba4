package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/lowcode/bootstrap"
	"github.com/artpar/lowcode/core/schema"
	"github.com/artpar/lowcode/core/validation"
)

var checkCmd = &cobra.Command{
	Use:   "check [file|dir]...",
	Short: "Parse and validate collection definitions",
	Long: `Parse collection definitions and report problems without touching
the database.

Checks:
  - YAML syntax is valid
  - Names are valid identifiers and fields are unique
  - Every field type is registered
  - Relationship kinds are supported
  - Validation rules can be derived

With no arguments the configured schema directory is checked.

Examples:
  lowcode check
  lowcode check collections/product.yaml
  lowcode check ./defs ./more-defs`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	reg, err := bootstrap.NewRegistry()
	if err != nil {
		return err
	}
	opts := []schema.Option{schema.WithTablePrefix(cfg.Schema.Prefix())}

	if len(args) == 0 {
		args = []string{cfg.Schema.Dir}
	}

	out := cmd.OutOrStdout()
	var collections []*schema.Collection
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(out, "  %s %s\n", crossMark, path)
			return err
		}

		if info.IsDir() {
			all, err := schema.ParseDir(path, reg, opts...)
			if err != nil {
				fmt.Fprintf(out, "  %s %s\n", crossMark, path)
				return err
			}
			collections = append(collections, all...)
			continue
		}

		c, err := schema.ParseFile(path, reg, opts...)
		if err != nil {
			fmt.Fprintf(out, "  %s %s\n", crossMark, path)
			return err
		}
		collections = append(collections, c)
	}

	for _, c := range collections {
		if _, err := validation.RulesFor(c); err != nil {
			fmt.Fprintf(out, "  %s %s\n", crossMark, c.Name())
			return fmt.Errorf("rules for %s: %w", c.Name(), err)
		}
		fmt.Fprintf(out, "  %s %s (table %s, %d fields, %d relationships)\n",
			checkMark, c.Name(), c.Table(), len(c.Fields()), len(c.Relationships()))
	}
	fmt.Fprintf(out, "\n%d collection(s) valid\n", len(collections))
	return nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
