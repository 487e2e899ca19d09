package main

import (
	"encoding/json"
	"fmt"

	"github.com/rpgo/escape-velocity/internal/config"
	"github.com/rpgo/escape-velocity/internal/output"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a simulation configuration without running it",
		Long: `Validate a simulation configuration without running it.

This command checks for:
  - Missing required settings
  - Non-positive horizons or simulation counts
  - Tax rates at or above 100%
  - Lump sums outside the simulated years
  - Non-finite numbers`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")

			parser := config.NewInputParser()
			cfgFile, err := parser.LoadFromFile(path)
			if err == nil {
				_, err = parser.ToSimulationConfig(cfgFile)
			}

			if jsonOut {
				result := map[string]any{"valid": err == nil, "config": path}
				if err != nil {
					result["error"] = err.Error()
				}
				if encErr := json.NewEncoder(cmd.OutOrStdout()).Encode(result); encErr != nil {
					return encErr
				}
				return err
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK: %d simulations x %d years, initial assets %s\n",
				cfgFile.Simulation.Simulations, cfgFile.Simulation.Years,
				output.FormatCurrency(cfgFile.Portfolio.TotalValue()))
			return nil
		},
	}

	cmd.Flags().String("config", "", "Path to the YAML configuration")
	cmd.MarkFlagRequired("config")

	return cmd
}
