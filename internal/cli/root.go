// Package cli implements the starq command tree: offline transpilation and
// inspection of circuit files against a device architecture.
package cli

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "starq",
	Short: "Transpile and inspect circuits for star topology quantum devices",
	Long: `starq works on circuit files in the service JSON format. It can insert
and remove the MOVE instructions that shuttle qubit states through
computational resonators, validate circuits against a device architecture,
and summarize circuit files.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute runs the command tree. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
