package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// commandSender shells out to the platform notification tool
type commandSender struct {
	build func(title, message string) *exec.Cmd
}

func (c *commandSender) Send(title, message string) error {
	return c.build(title, message).Run()
}

func platformSender(goos string) NotificationSender {
	switch goos {
	case "linux":
		return &commandSender{build: func(title, message string) *exec.Cmd {
			return exec.Command("notify-send", title, message)
		}}
	case "darwin":
		return &commandSender{build: func(title, message string) *exec.Cmd {
			script := fmt.Sprintf(`display notification %q with title %q`, message, title)
			return exec.Command("osascript", "-e", script)
		}}
	case "windows":
		return &commandSender{build: func(title, message string) *exec.Cmd {
			script := fmt.Sprintf(`New-BurntToastNotification -Text %q, %q`, title, message)
			return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
		}}
	default:
		return nil
	}
}

// Notifier prints run milestones and optionally mirrors them to the desktop
type Notifier struct {
	sender NotificationSender
}

// NewNotifier creates a Notifier. When desktop is false, or the platform has
// no notification tool, messages are only printed.
func NewNotifier(desktop bool) *Notifier {
	if !desktop {
		return &Notifier{}
	}
	return &Notifier{sender: platformSender(runtime.GOOS)}
}

// NewNotifierWithSender is used by tests to capture notifications
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// AccountComplete announces that an account was downloaded and archived
func (n *Notifier) AccountComplete(account string, count int, archive string) {
	msg := fmt.Sprintf("Downloaded %d images from u/%s", count, account)
	if archive != "" {
		msg += fmt.Sprintf(" (%s)", archive)
	}
	PrintSuccess(msg)
	n.send("rdscraper", msg)
}

// NoImages announces an account with nothing to download
func (n *Notifier) NoImages(account string) {
	PrintWarning(fmt.Sprintf("No images found for u/%s", account))
}

// RunFailed announces a run aborted by an error
func (n *Notifier) RunFailed(err error) {
	PrintError("Download aborted", err)
	n.send("rdscraper failed", err.Error())
}

// RunComplete announces the end of a whole run
func (n *Notifier) RunComplete(accounts int) {
	msg := fmt.Sprintf("Finished %d account(s)", accounts)
	PrintHighlight(msg)
	n.send("rdscraper", msg)
}

func (n *Notifier) send(title, message string) {
	if n == nil || n.sender == nil {
		return
	}
	// Desktop notifications are best effort.
	_ = n.sender.Send(title, message)
}
