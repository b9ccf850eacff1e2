package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/traderforge/fxbot/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage fxbot configuration files.

Examples:
  fxbot config init --output fxbot.yaml
  fxbot config validate --file fxbot.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "fxbot.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.Save(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  fxbot backtest --config %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	bindings := 0
	for _, sc := range cfg.Symbols {
		bindings += len(sc.Strategies)
	}

	fmt.Printf("Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Account:    %.2f %s, leverage %.0f\n",
		cfg.Account.InitialDeposit, cfg.Account.Currency, cfg.Account.Leverage)
	fmt.Printf("  Symbols:    %d (%d strategy bindings)\n", len(cfg.Symbols), bindings)
	fmt.Printf("  Window:     %s to %s\n", cfg.Backtest.Start, cfg.Backtest.End)
	fmt.Printf("  Journal:    %s\n", cfg.Journal.Type)
	return nil
}
