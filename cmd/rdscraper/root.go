package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rdscraper/pkg/config"
	"rdscraper/pkg/logger"
	"rdscraper/pkg/ui"
)

var (
	// Version information, set with -ldflags at build time
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile  string
	logLevel    string
	quiet       bool
	verbose     bool
	notify      bool
	sessionName string

	// Config overrides shared by the download commands
	outputDir     string
	rateLimit     int
	timeout       string
	checkpointArg string
	cacheListings bool
	noArchive     bool
	userAgent     string
)

var rootCmd = &cobra.Command{
	Use:   "rdscraper",
	Short: "Resumable image downloader for Reddit user profiles",
	Long: `rdscraper downloads the images a Reddit user has submitted.

Progress is checkpointed after every image, so an interrupted run
(crash, Ctrl+C, network failure) continues where it stopped:

  - one account, or a queue of accounts processed in order
  - images saved as image_1.jpg, image_2.png, ... and zipped per account
  - optional stored session cookie for authenticated requests
  - client-side rate limiting`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
		}
		if verbose && cmd.Name() != "version" && cmd.Name() != "help" {
			ui.PrintLogo()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rdscraper %s\n", rootCmd.Version)
		fmt.Printf("Go Version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default searches .rdscraper.yaml, ~/.config/rdscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show the logo and info logs")
	rootCmd.PersistentFlags().BoolVar(&notify, "notify", false, "send desktop notifications when accounts finish")
	rootCmd.PersistentFlags().StringVar(&sessionName, "session", "", "stored session to use (default \"default\")")

	rootCmd.SetVersionTemplate("rdscraper {{.Version}}\n")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(versionCmd)
}

// addRunFlags registers the config overrides understood by commands that
// download
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default ./downloads)")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests per minute, 0 disables pacing")
	cmd.Flags().StringVar(&timeout, "timeout", "", "per-request timeout, e.g. 30s")
	cmd.Flags().StringVar(&checkpointArg, "checkpoint", "", "checkpoint file path")
	cmd.Flags().BoolVar(&cacheListings, "cache-listings", false, "keep listings in a local cache so a resume sees the same order")
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "do not zip account directories")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent header for requests")
}

// loadConfig resolves the configuration from file, environment and the
// flags the user actually set
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := make(map[string]interface{})
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("output") {
		flags["output"] = outputDir
	}
	if changed("rate-limit") {
		flags["rate-limit"] = rateLimit
	}
	if changed("timeout") {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid --timeout: %w", err)
		}
		flags["timeout"] = d
	}
	if changed("checkpoint") {
		flags["checkpoint"] = checkpointArg
	}
	if changed("cache-listings") {
		flags["cache-listings"] = cacheListings
	}
	if changed("no-archive") {
		flags["no-archive"] = noArchive
	}
	if changed("user-agent") {
		flags["user-agent"] = userAgent
	}

	switch {
	case logLevel != "":
		flags["log-level"] = logLevel
	case quiet:
		flags["log-level"] = "error"
	case !verbose:
		// Keep the progress bar readable unless asked for more.
		flags["log-level"] = "warn"
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM. The checkpoint keeps the
// last completed item, so an interrupted run can be resumed.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
