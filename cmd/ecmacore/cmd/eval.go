package cmd

import (
	"fmt"

	"github.com/novabit/ecmacore/internal/config"
	"github.com/novabit/ecmacore/internal/srctext"
	"github.com/novabit/ecmacore/pkg/ecma"
	"github.com/spf13/cobra"
)

var (
	evalExpr string
	trace    bool
)

var evalCmd = &cobra.Command{
	Use:   "eval [file]",
	Short: "Evaluate an ECMAScript source file or inline expression",
	Long: `Evaluate source text as a top-level eval and print its completion value.

Examples:
  # Run a script file
  ecmacore eval script.js

  # Evaluate an inline expression
  ecmacore eval -e "1 + 2 * 3;"

  # Trace execution depth
  ecmacore eval --trace script.js`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline source instead of reading from a file")
	evalCmd.Flags().BoolVar(&trace, "trace", false, "trace execution (for debugging)")
}

func runEval(_ *cobra.Command, args []string) error {
	source, _, err := sourceFromArgs(evalExpr, args)
	if err != nil {
		return err
	}

	cfg, err := loadConfigOrDefault()
	if err != nil {
		return err
	}
	cfg.Trace = cfg.Trace || trace

	engine, err := ecma.NewWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	result, err := engine.Eval(source)
	if err != nil {
		return err
	}

	fmt.Println(result.ToDisplayString())
	return nil
}

// sourceFromArgs resolves the eval command's input: an inline expression
// takes priority, otherwise the sole positional argument names a file,
// decoded via internal/srctext so a UTF-16 source file loads the same as
// a UTF-8 one.
func sourceFromArgs(inline string, args []string) (source, filename string, err error) {
	if inline != "" {
		return inline, "<eval>", nil
	}
	if len(args) != 1 {
		return "", "", fmt.Errorf("either provide a file path or use -e flag for inline source")
	}
	filename = args[0]
	decoded, err := srctext.DecodeFile(filename)
	if err != nil {
		return "", "", err
	}
	return decoded, filename, nil
}

func loadConfigOrDefault() (config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
