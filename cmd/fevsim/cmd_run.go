package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rpgo/escape-velocity/internal/calculation"
	"github.com/rpgo/escape-velocity/internal/config"
	"github.com/rpgo/escape-velocity/internal/domain"
	"github.com/rpgo/escape-velocity/internal/output"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the Monte Carlo forecast for a configuration",
		Long: `Run the Monte Carlo forecast for a configuration.

Flags override the matching simulation settings of the configuration file.

Examples:
  fevsim run --config plan.yaml
  fevsim run --config plan.yaml --format console,csv,pdf --output reports
  fevsim run --config plan.yaml --seed 7 --stream-mode sequential
  fevsim run --config plan.yaml --format all --output reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			formats, _ := cmd.Flags().GetStringSlice("format")
			outDir, _ := cmd.Flags().GetString("output")
			jsonOut, _ := cmd.Flags().GetBool("json")

			parser := config.NewInputParser()
			cfgFile, err := parser.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			applyRunOverrides(cmd, cfgFile)
			if err := parser.ValidateConfiguration(cfgFile); err != nil {
				return fmt.Errorf("invalid overrides: %w", err)
			}
			simCfg, err := parser.ToSimulationConfig(cfgFile)
			if err != nil {
				return err
			}

			engine := calculation.NewEngine(
				calculation.WithStreamMode(cfgFile.Simulation.StreamMode),
				calculation.WithWorkers(cfgFile.Simulation.Workers),
			)
			engine.SetLogger(newCommandLogger(cmd))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			report, err := engine.RunContext(ctx, simCfg)
			if err != nil {
				return err
			}

			return writeRunOutputs(cmd, report, formats, outDir, jsonOut)
		},
	}

	cmd.Flags().String("config", "", "Path to the YAML configuration")
	cmd.Flags().StringSlice("format", []string{"console"}, "Output formats: "+formatList())
	cmd.Flags().String("output", ".", "Directory for file outputs")
	cmd.Flags().Int64("seed", 0, "Random seed (overrides configuration)")
	cmd.Flags().Int("simulations", 0, "Number of simulations (overrides configuration)")
	cmd.Flags().Int("years", 0, "Number of simulated years (overrides configuration)")
	cmd.Flags().Int("workers", 0, "Concurrent simulations, 0 for GOMAXPROCS (overrides configuration)")
	cmd.Flags().String("stream-mode", "", "Random stream allocation: per-simulation or sequential")
	cmd.MarkFlagRequired("config")

	return cmd
}

// applyRunOverrides copies explicitly set flags onto the simulation settings.
func applyRunOverrides(cmd *cobra.Command, cfg *domain.Configuration) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		seed, _ := flags.GetInt64("seed")
		cfg.Simulation.Seed = &seed
	}
	if flags.Changed("simulations") {
		cfg.Simulation.Simulations, _ = flags.GetInt("simulations")
	}
	if flags.Changed("years") {
		cfg.Simulation.Years, _ = flags.GetInt("years")
	}
	if flags.Changed("workers") {
		cfg.Simulation.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("stream-mode") {
		mode, _ := flags.GetString("stream-mode")
		cfg.Simulation.StreamMode = domain.StreamMode(mode)
	}
}

// writeRunOutputs prints console output to stdout and writes every other
// format into outDir.
func writeRunOutputs(cmd *cobra.Command, report *domain.SimulationReport, formats []string, outDir string, jsonOut bool) error {
	var written []string
	for _, format := range formats {
		if output.NormalizeFormatName(format) == "console" {
			if jsonOut {
				continue
			}
			data, err := output.ConsoleFormatter{}.Format(report)
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(data); err != nil {
				return err
			}
			continue
		}
		paths, err := output.GenerateReport(report, format, outDir)
		if err != nil {
			return err
		}
		written = append(written, paths...)
	}

	if jsonOut {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
			"insights": report.Insights.Map(),
			"metadata": report.Metadata,
			"files":    written,
		})
	}
	for _, p := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
	}
	return nil
}

func formatList() string {
	return strings.Join(append(output.AvailableFormatterNames(), "all"), ", ")
}

