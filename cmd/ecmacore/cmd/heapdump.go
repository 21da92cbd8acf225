package cmd

import (
	"fmt"

	"github.com/novabit/ecmacore/internal/introspect"
	"github.com/novabit/ecmacore/pkg/ecma"
	"github.com/spf13/cobra"
)

var (
	heapdumpExpr   string
	queryPaths     []string
	redactPaths    []string
)

var heapdumpCmd = &cobra.Command{
	Use:   "heapdump [file]",
	Short: "Evaluate source and print a JSON dump of the resulting value",
	Long: `Run source through eval and render its completion value as a JSON
document describing the object graph, for debugging or embedding tools.

Examples:
  # Dump the shape of an array's evaluation result
  ecmacore heapdump -e "[1, 2, 3];"

  # Pull one field out of a large dump
  ecmacore heapdump --query properties.0 script.js

  # Strip a field's value before printing
  ecmacore heapdump --redact properties.secret script.js`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHeapdump,
}

func init() {
	rootCmd.AddCommand(heapdumpCmd)

	heapdumpCmd.Flags().StringVarP(&heapdumpExpr, "eval", "e", "", "evaluate inline source instead of reading from a file")
	heapdumpCmd.Flags().StringArrayVar(&queryPaths, "query", nil, "gjson path to extract from the dump (repeatable)")
	heapdumpCmd.Flags().StringArrayVar(&redactPaths, "redact", nil, "sjson path whose value is replaced with <redacted> before printing (repeatable)")
}

func runHeapdump(_ *cobra.Command, args []string) error {
	source, _, err := sourceFromArgs(heapdumpExpr, args)
	if err != nil {
		return err
	}

	cfg, err := loadConfigOrDefault()
	if err != nil {
		return err
	}

	engine, err := ecma.NewWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	result, err := engine.Eval(source)
	if err != nil {
		return err
	}

	heap := engine.Heap()

	if len(redactPaths) > 0 {
		doc, err := introspect.Redact(heap, result, redactPaths)
		if err != nil {
			exitWithError("redact failed: %v", err)
			return err
		}
		fmt.Println(string(doc))
		return nil
	}

	if len(queryPaths) > 0 {
		for _, path := range queryPaths {
			res, ok := introspect.Query(heap, result, path)
			fmt.Println(introspect.FormatQueryResult(path, res, ok))
		}
		return nil
	}

	fmt.Println(engine.Inspect(result))
	return nil
}
