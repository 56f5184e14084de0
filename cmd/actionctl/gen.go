package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/govm-net/actions/abi"
)

func newGenCmd() *cobra.Command {
	var (
		file   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate the registration file of a contract",
		Long: `Generate Register<Contract> and the typed action wrappers of a contract.
The output defaults to the source file name with an .actions.go suffix.
Example: actionctl gen -f tvg.go -o tvg.actions.go`,
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, err := readContract(file)
			if err != nil {
				return err
			}

			code, err := abi.GenerateActionFile(contract)
			if err != nil {
				return err
			}

			out := output
			if out == "" {
				out = strings.TrimSuffix(file, ".go") + ".actions.go"
			}
			if err := os.WriteFile(out, []byte(code), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d actions of %s into %s\n", len(contract.Actions), contract.TypeName, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Source file of the contract (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	cmd.MarkFlagRequired("file")
	return cmd
}
