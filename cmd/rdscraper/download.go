package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rdscraper/pkg/reddit"
	"rdscraper/pkg/scraper"
	"rdscraper/pkg/ui"
)

var (
	countFlag int
	allFlag   bool
	yesFlag   bool
	freshFlag bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <account...>",
	Short: "Download images submitted by one or more Reddit users",
	Long: `Download the images (jpg, jpeg, png, gif) a Reddit user has submitted.

With one account the run is a single download; with several, the accounts
are queued and processed in the order given. Images are written to
<output>/<account>/image_N.<ext> and zipped to <output>/<account>.zip.

If an interrupted run exists you are first asked whether to resume it.
--count applies only to the accounts given here; the resumed run asks for
its own count, or takes everything when --all is set or stdin is not a
terminal.`,
	Example: `  # Ask how many images to fetch
  rdscraper download spez

  # Fetch everything from three accounts without prompting
  rdscraper download alice bob carol --all --yes

  # Fetch the 20 newest images into ./pics
  rdscraper download u/alice --count 20 -o ./pics`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().IntVarP(&countFlag, "count", "n", -1, "images to download per new account; a resumed run is asked separately (default: ask, or all when not interactive)")
	downloadCmd.Flags().BoolVar(&allFlag, "all", false, "download every image without asking")
	downloadCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "resume an interrupted run without asking")
	downloadCmd.Flags().BoolVar(&freshFlag, "fresh", false, "discard an interrupted run instead of resuming it")
	addRunFlags(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	accounts, err := normalizeAccounts(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	op := newTerminalOperator(yesFlag, allFlag, countFlag)
	a, err := newApp(cfg, op)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()

	if freshFlag {
		if err := a.scraper.Discard(); err != nil {
			return err
		}
	} else {
		restore := op.withoutCount()
		resumed, err := a.scraper.Resume(ctx)
		restore()
		if err != nil && !errors.Is(err, scraper.ErrResumeDeclined) {
			return a.finish(err, 0)
		}
		if resumed {
			ui.PrintSuccess("Interrupted run finished")
		}
	}

	ui.PrintInfo("Accounts", strings.Join(accounts, ", "))
	ui.PrintInfo("Output", cfg.Output.BaseDirectory)

	if len(accounts) == 1 {
		err = a.scraper.StartSingle(ctx, accounts[0])
	} else {
		err = a.scraper.StartMultiple(ctx, accounts)
	}
	return a.finish(err, len(accounts))
}

// normalizeAccounts accepts names, u/ prefixes and profile URLs. Duplicates
// are dropped so no account is processed twice in one run.
func normalizeAccounts(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var accounts []string
	var invalid []string

	for _, arg := range args {
		account := reddit.SanitizeAccount(arg)
		if !reddit.IsValidAccount(account) {
			invalid = append(invalid, arg)
			continue
		}
		if seen[account] {
			continue
		}
		seen[account] = true
		accounts = append(accounts, account)
	}

	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid account name(s): %s", strings.Join(invalid, ", "))
	}
	return accounts, nil
}
