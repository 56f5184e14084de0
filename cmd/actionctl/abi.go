package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/govm-net/actions/abi"
)

func newAbiCmd() *cobra.Command {
	var (
		file   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "abi",
		Short: "Print the action manifest of a contract",
		Long: `Print the action manifest of a contract source file.
Example: actionctl abi -f tvg.go --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, err := readContract(file)
			if err != nil {
				return err
			}

			m := contract.Manifest()
			var out []byte
			switch format {
			case "json":
				out, err = m.JSON()
			case "yaml":
				out, err = m.YAML()
			default:
				return fmt.Errorf("unknown format %q, want json or yaml", format)
			}
			if err != nil {
				return fmt.Errorf("failed to render manifest: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Source file of the contract (required)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")
	cmd.MarkFlagRequired("file")
	return cmd
}

func readContract(path string) (*abi.Contract, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	contract, err := abi.ExtractContract(code)
	if err != nil {
		return nil, fmt.Errorf("failed to extract actions from %s: %w", path, err)
	}
	return contract, nil
}
