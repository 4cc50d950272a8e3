package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"rdscraper/pkg/checkpoint"
	"rdscraper/pkg/reddit"
	"rdscraper/pkg/ui"
)

// terminalOperator answers the scraper's questions from flags, or by asking
// on the terminal when stdin is interactive
type terminalOperator struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool

	assumeYes bool
	all       bool
	// count is the --count flag; negative means not given
	count int
}

func newTerminalOperator(assumeYes, all bool, count int) *terminalOperator {
	return &terminalOperator{
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
		assumeYes:   assumeYes,
		all:         all,
		count:       count,
	}
}

func (o *terminalOperator) ConfirmResume(cp *checkpoint.Checkpoint) bool {
	describeCheckpoint(o.out, cp)

	if o.assumeYes || !o.interactive {
		return true
	}

	for {
		fmt.Fprint(o.out, "Resume this run? [Y/n]: ")
		answer, err := o.readLine()
		if err != nil {
			return true
		}
		switch strings.ToLower(answer) {
		case "", "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}

func (o *terminalOperator) DownloadCount(account string, start, total int) int {
	remaining := total - start
	if remaining < 0 {
		remaining = 0
	}
	if start > 0 && remaining > 0 {
		fmt.Fprintln(o.out, ui.Yellow(fmt.Sprintf("Resume from image %d/%d", start+1, total)))
	}

	switch {
	case remaining == 0:
		return 0
	case o.all:
		return remaining
	case o.count >= 0:
		return o.count
	case !o.interactive:
		return remaining
	}

	for {
		fmt.Fprintf(o.out, "How many images from %s? (max %d) [%d]: ", ui.Cyan("u/"+account), remaining, remaining)
		answer, err := o.readLine()
		if err != nil || answer == "" {
			return remaining
		}
		n, err := strconv.Atoi(answer)
		if err == nil {
			return n
		}
		fmt.Fprintln(o.out, ui.Red("Please enter a number"))
	}
}

// withoutCount ignores --count until the returned func is called. The flag
// sizes the new accounts, not a run resumed on the way.
func (o *terminalOperator) withoutCount() (restore func()) {
	saved := o.count
	o.count = -1
	return func() { o.count = saved }
}

func (o *terminalOperator) readLine() (string, error) {
	line, err := o.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// describeCheckpoint prints an interrupted run
func describeCheckpoint(w io.Writer, cp *checkpoint.Checkpoint) {
	fmt.Fprintln(w, ui.Magenta("Interrupted run found"))
	fmt.Fprintf(w, "  %s %s\n", ui.Dim("run:     "), cp.RunID)
	fmt.Fprintf(w, "  %s %s\n", ui.Dim("mode:    "), cp.Mode)
	if cp.HasCurrent() {
		fmt.Fprintf(w, "  %s u/%s, next image %d\n", ui.Dim("current: "), cp.CurrentAccount, cp.CurrentIndex+1)
		fmt.Fprintf(w, "  %s %s\n", ui.Dim("profile: "), reddit.ProfileURL(cp.CurrentAccount))
	}
	if len(cp.PendingAccounts) > 0 {
		fmt.Fprintf(w, "  %s %s\n", ui.Dim("queued:  "), strings.Join(cp.PendingAccounts, ", "))
	}
	fmt.Fprintf(w, "  %s %s\n", ui.Dim("updated: "), cp.UpdatedAt.Format("2006-01-02 15:04:05"))
}
