// Command pagegen serves the landing-page and bio-element generation API and runs one-shot
// generations from the shell.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "pagegen",
	Short: "Generate landing pages and bio elements from a text prompt",
	Long: `pagegen turns a free-text description into a landing-page document or a list of
bio-page elements by asking a completion provider for JSON and repairing what comes back.

Without a subcommand it starts the HTTP server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			return os.Setenv("PAGEGEN_CONFIG_PATH", configPath)
		}
		return nil
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML or JSON config file (or set PAGEGEN_CONFIG_PATH)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if msg := exitMessage(err); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(1)
	}
}

// exitMessage is what main prints for err; failures already reported by a command print nothing.
func exitMessage(err error) string {
	var reported reportedError
	if errors.As(err, &reported) {
		return ""
	}
	return err.Error()
}
