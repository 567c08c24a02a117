package cli

import (
	"github.com/spf13/cobra"

	"github.com/jaskrrish/go-starq/transpile"
)

var removeOut string

var removeCmd = &cobra.Command{
	Use:   "remove [circuit file]",
	Short: "Remove MOVE instructions, rewriting resonator loci to qubit names",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := readCircuit(args[0])
		if err != nil {
			return err
		}
		out, err := transpile.RemoveMoves(c)
		if err != nil {
			return err
		}
		return writeCircuit(out, removeOut)
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringVarP(&removeOut, "out", "o", "", "write the circuit to this file instead of stdout")
}
