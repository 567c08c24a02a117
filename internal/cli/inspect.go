package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jaskrrish/go-starq/circuit"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [circuit file]",
	Short: "Summarize a circuit file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := readCircuit(args[0])
		if err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		fingerprint, err := c.Fingerprint()
		if err != nil {
			return err
		}

		counts := make(map[string]int)
		for _, in := range c.Instructions {
			counts[circuit.CanonicalName(in.Name)]++
		}
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "name:         %s\n", c.Name)
		fmt.Fprintf(w, "instructions: %d\n", len(c.Instructions))
		fmt.Fprintf(w, "components:   %d (%v)\n", len(c.AllQubits()), c.AllQubits())
		for _, name := range names {
			fmt.Fprintf(w, "  %-10s %d\n", name, counts[name])
		}
		fmt.Fprintf(w, "fingerprint:  %s\n", fingerprint)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
