package cli

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jaskrrish/go-starq/transpile"
)

var (
	insertArch   string
	insertMap    string
	insertPolicy string
	insertOut    string
)

var insertCmd = &cobra.Command{
	Use:   "insert [circuit file]",
	Short: "Insert the MOVE instructions a circuit needs to run on the device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := readCircuit(args[0])
		if err != nil {
			return err
		}
		arch, err := readArchitecture(insertArch)
		if err != nil {
			return err
		}
		mapping, err := parseMapping(insertMap)
		if err != nil {
			return err
		}
		policy := transpile.ExistingMovePolicy(insertPolicy)
		switch policy {
		case transpile.MovePolicyUnset, transpile.MovePolicyKeep, transpile.MovePolicyRemove, transpile.MovePolicyError:
		default:
			return errors.Errorf("unknown MOVE policy %q, want keep, remove or error", insertPolicy)
		}

		// Warnings are logged by the transpiler itself.
		out, _, err := transpile.InsertMoves(c, arch, &transpile.InsertOptions{
			QubitMapping:  mapping,
			ExistingMoves: policy,
		})
		if err != nil {
			return err
		}
		return writeCircuit(out, insertOut)
	},
}

func init() {
	rootCmd.AddCommand(insertCmd)
	insertCmd.Flags().StringVar(&insertArch, "arch", "", "architecture JSON file (required)")
	insertCmd.Flags().StringVar(&insertMap, "map", "", "qubit mapping as logical=physical pairs, comma separated")
	insertCmd.Flags().StringVar(&insertPolicy, "policy", "", "how to handle existing MOVE instructions (keep, remove, error)")
	insertCmd.Flags().StringVarP(&insertOut, "out", "o", "", "write the transpiled circuit to this file instead of stdout")
	_ = insertCmd.MarkFlagRequired("arch")
}
