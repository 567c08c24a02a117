package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaskrrish/go-starq/qpu"
	"github.com/jaskrrish/go-starq/transpile"
)

var (
	validateArch string
	validateMap  string
	validateMode string
)

var validateCmd = &cobra.Command{
	Use:   "validate [circuit file]",
	Short: "Check that a circuit can execute on a device architecture",
	Long: `Checks circuit structure, calibration coverage of every instruction, and
the placement of MOVE instructions under the selected validation mode.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := readCircuit(args[0])
		if err != nil {
			return err
		}
		arch, err := readArchitecture(validateArch)
		if err != nil {
			return err
		}
		mapping, err := parseMapping(validateMap)
		if err != nil {
			return err
		}
		if err := qpu.ValidateCircuit(arch, c, mapping); err != nil {
			return err
		}
		mode := transpile.MoveValidationMode(validateMode)
		if err := transpile.ValidateMoves(arch, c, mapping, mode); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateArch, "arch", "", "architecture JSON file (required)")
	validateCmd.Flags().StringVar(&validateMap, "map", "", "qubit mapping as logical=physical pairs, comma separated")
	validateCmd.Flags().StringVar(&validateMode, "move-validation", "strict", "MOVE validation mode (strict, allow_prx, none)")
	_ = validateCmd.MarkFlagRequired("arch")
}
