package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// ProgressReporter receives progress events from the download loop.
// Start is called once per account with the number of items the loop
// intends to fetch, Advance after every item that has been persisted.
type ProgressReporter interface {
	Start(account string, total int)
	Advance(n int)
	Finish()
}

// BarReporter renders a progress bar for the account currently downloading
type BarReporter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// NewBarReporter creates a reporter drawing to w, or stdout when w is nil
func NewBarReporter(w io.Writer) *BarReporter {
	if w == nil {
		w = os.Stdout
	}
	return &BarReporter{w: w}
}

func (r *BarReporter) Start(account string, total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(fmt.Sprintf("u/%s", account)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(r.w)
		}),
	)
}

func (r *BarReporter) Advance(n int) {
	if r.bar == nil {
		return
	}
	_ = r.bar.Add(n)
}

func (r *BarReporter) Finish() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Finish()
	r.bar = nil
}

// NopReporter discards progress events
type NopReporter struct{}

func (NopReporter) Start(string, int) {}
func (NopReporter) Advance(int)       {}
func (NopReporter) Finish()           {}

// NewReporter picks a bar reporter, or a silent one in quiet mode
func NewReporter() ProgressReporter {
	if IsQuiet() {
		return NopReporter{}
	}
	return NewBarReporter(os.Stdout)
}
