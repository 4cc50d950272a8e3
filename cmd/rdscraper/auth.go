package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rdscraper/pkg/session"
	"rdscraper/pkg/ui"
)

var (
	loginCookie    string
	loginUserAgent string
	logoutAll      bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored Reddit session",
	Long: `Manage the Reddit session cookie sent with every request.

Sessions are stored in:
  - the system keychain, when available
  - an encrypted file (AES-GCM, PBKDF2 key) in the config directory
  - RDSCRAPER_SESSION_COOKIE, read-only

A session is optional; public profiles download without one.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a session cookie",
	Example: `  # Interactive, with instructions
  rdscraper auth login

  # Non-interactive
  rdscraper auth login --cookie "$COOKIE"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a stored session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var authShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List stored sessions with masked cookies",
	Args:  cobra.NoArgs,
	RunE:  runAuthShow,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authShowCmd)

	loginCmd.Flags().StringVar(&loginCookie, "cookie", "", "reddit_session value or full Cookie header")
	loginCmd.Flags().StringVar(&loginUserAgent, "user-agent", "", "User-Agent of the browser the cookie came from")
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored session")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := session.NewManager("")
	if err != nil {
		return fmt.Errorf("failed to initialize session stores: %w", err)
	}

	creds := &session.Credentials{Name: session.DefaultName, Cookie: loginCookie, UserAgent: loginUserAgent}
	if len(args) > 0 {
		creds.Name = args[0]
	}

	if creds.Cookie == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("no terminal to prompt on, pass --cookie")
		}
		session.PrintCookieGuide(os.Stdout)
		fmt.Println()

		fmt.Print("Session cookie (input hidden): ")
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read cookie: %w", err)
		}
		creds.Cookie = strings.TrimSpace(string(secret))

		if creds.UserAgent == "" {
			fmt.Print("Browser User-Agent (optional, Enter to skip): ")
			reader := bufio.NewReader(os.Stdin)
			line, _ := reader.ReadString('\n')
			creds.UserAgent = strings.TrimSpace(line)
		}
	}

	if err := manager.Save(creds); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Session %q saved", creds.Name))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := session.NewManager("")
	if err != nil {
		return fmt.Errorf("failed to initialize session stores: %w", err)
	}

	if logoutAll {
		list, err := manager.List()
		if err != nil {
			return err
		}
		for _, creds := range list {
			// The environment store cannot delete; skip its error.
			_ = manager.Delete(creds.Name)
		}
		ui.PrintSuccess(fmt.Sprintf("Removed %d session(s)", len(list)))
		return nil
	}

	name := session.DefaultName
	if len(args) > 0 {
		name = args[0]
	}
	if err := manager.Delete(name); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Session %q removed", name))
	return nil
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	manager, err := session.NewManager("")
	if err != nil {
		return fmt.Errorf("failed to initialize session stores: %w", err)
	}

	list, err := manager.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		ui.PrintWarning("No stored sessions. Run 'rdscraper auth login' to add one.")
		return nil
	}

	for _, creds := range list {
		masked := creds.Masked()
		ui.PrintInfo(masked.Name, masked.Cookie)
		if masked.UserAgent != "" {
			fmt.Printf("  %s %s\n", ui.Dim("user agent:"), masked.UserAgent)
		}
		fmt.Printf("  %s %s\n", ui.Dim("modified:  "), masked.LastModified.Format("2006-01-02 15:04"))
	}
	return nil
}
