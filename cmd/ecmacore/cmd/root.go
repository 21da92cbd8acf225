package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "ecmacore",
	Short: "ECMAScript engine core CLI",
	Long: `ecmacore runs ECMAScript source text against a minimal managed-heap
engine core: the object model, Array exotic object protocol, global eval/
declaration instantiation, and the for-in/for-of/spread iteration protocol.

The core's parser/compiler/VM (internal/host/miniscript) is a small
tree-walking implementation, not a production-grade engine front end.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML engine tuning config")
}

var configFile string

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
