package main

import (
	"fmt"

	"github.com/rpgo/escape-velocity/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newExampleConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "example-config",
		Short: "Write an example simulation configuration",
		Long: `Write an example simulation configuration.

Examples:
  fevsim example-config                     # Writes example_config.yaml
  fevsim example-config --out plan.yaml     # Writes plan.yaml
  fevsim example-config --out -             # Prints to stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			example := config.NewInputParser().CreateExampleConfiguration()

			if out == "-" {
				b, err := yaml.Marshal(example)
				if err != nil {
					return fmt.Errorf("failed to encode example configuration: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}

			if err := config.SaveConfiguration(example, out); err != nil {
				return fmt.Errorf("failed to write example configuration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Example configuration written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().String("out", "example_config.yaml", "Output path, or - for stdout")

	return cmd
}
