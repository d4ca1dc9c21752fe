package commands

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docctl",
	Short: "Extract text from PDF and Word documents",
	Long: `docctl runs the document extraction pipeline locally, without the HTTP
server, database or model provider. It uses the same configuration as the
server (CONFIG_FILE and environment variables).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
