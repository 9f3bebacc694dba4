package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/lowcode/core/errs"
	"github.com/artpar/lowcode/core/formatter"
)

var rulesCmd = &cobra.Command{
	Use:   "rules <collection>",
	Short: "Print the validation rules of a collection",
	Long: `Print the rule chain derived for every field of a collection.

Examples:
  lowcode rules product
  lowcode rules product -o table`,
	Args: cobra.ExactArgs(1),
	RunE: runRules,
}

var describeCmd = &cobra.Command{
	Use:   "describe <collection>",
	Short: "Show the fields and relationships of a collection",
	Long: `Show a collection as loaded from its definition, with derived table,
foreign key and join table names filled in. The yaml output is itself a
valid definition file.

Examples:
  lowcode describe product
  lowcode describe product -o yaml > product.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runDescribe,
}

var (
	rulesOutput    string
	describeOutput string
)

var validateCmd = &cobra.Command{
	Use:   "validate <collection> <record.json>",
	Short: "Validate a JSON record against the rules of a collection",
	Long: `Validate a JSON object against the rules derived from a collection.
Use "-" to read the record from stdin.

Examples:
  lowcode validate product product.json
  echo '{"title": ""}' | lowcode validate product -`,
	Args: cobra.ExactArgs(2),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(validateCmd)

	rulesCmd.Flags().StringVarP(&rulesOutput, "output", "o", "json", "output format (table, json, yaml)")
	describeCmd.Flags().StringVarP(&describeOutput, "output", "o", "table", "output format (table, json, yaml)")
}

func runRules(cmd *cobra.Command, args []string) error {
	app, err := openApp(true)
	if err != nil {
		return err
	}
	defer app.Close()

	f, err := formatter.NewDefault().Get(rulesOutput)
	if err != nil {
		return err
	}
	c, err := app.Collection(args[0])
	if err != nil {
		return report(cmd, f, err)
	}
	rules, err := app.Rules(args[0])
	if err != nil {
		return report(cmd, f, err)
	}
	return f.FormatRules(cmd.OutOrStdout(), c.Name(), rules, c.FieldNames())
}

func runDescribe(cmd *cobra.Command, args []string) error {
	app, err := openApp(true)
	if err != nil {
		return err
	}
	defer app.Close()

	f, err := formatter.NewDefault().Get(describeOutput)
	if err != nil {
		return err
	}
	c, err := app.Collection(args[0])
	if err != nil {
		return report(cmd, f, err)
	}
	return f.FormatCollection(cmd.OutOrStdout(), c.Descriptor())
}

func runValidate(cmd *cobra.Command, args []string) error {
	app, err := openApp(true)
	if err != nil {
		return err
	}
	defer app.Close()

	var data []byte
	if args[1] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[1])
	}
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return fmt.Errorf("parse record: %w", err)
	}

	out := cmd.OutOrStdout()
	err = app.Validate(args[0], record)
	if errs.IsValidation(err) {
		var e *errs.Error
		if errors.As(err, &e) {
			for _, f := range e.Fields {
				fmt.Fprintf(out, "  %s %s: %s\n", crossMark, f.Field, f.Rule)
			}
		}
		return fmt.Errorf("record is invalid")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  %s record is valid\n", checkMark)
	return nil
}
