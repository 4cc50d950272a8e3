package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"rdscraper/pkg/config"
	"rdscraper/pkg/session"
	"rdscraper/pkg/ui"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage rdscraper configuration.

Values are resolved in this order, highest first:
  - command line flags
  - environment variables (RDSCRAPER_*)
  - .env files (./.env, ~/.rdscraper.env)
  - configuration file
  - defaults`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".rdscraper.yaml"
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Adjust output.base_directory and rate_limit to taste")
	fmt.Println("2. Run 'rdscraper config validate'")
	fmt.Println("3. Start with 'rdscraper download <account>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	display := *cfg
	if display.Reddit.Cookie != "" {
		display.Reddit.Cookie = (&session.Credentials{Cookie: display.Reddit.Cookie}).Masked().Cookie
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current configuration")
	fmt.Println()
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}

	if cfg.RateLimit.RequestsPerMinute == 0 {
		ui.PrintWarning("Rate limiting is disabled; Reddit may answer 429")
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Println("\nSummary:")
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Archives:         %t\n", cfg.Output.CreateArchive)
	fmt.Printf("  Rate limit:       %d requests/minute (burst %d)\n", cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	fmt.Printf("  Timeout:          %s\n", cfg.Download.Timeout)
	fmt.Printf("  Listing cache:    %t\n", cfg.Checkpoint.CacheListings)
	fmt.Printf("  Log level:        %s\n", cfg.Logging.Level)
	return nil
}
