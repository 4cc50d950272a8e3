package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetQuietMode(false)
	})
	return &buf
}

func TestPrintHelpers(t *testing.T) {
	buf := captureOutput(t)

	PrintInfo("Account", "alice")
	PrintWarning("Resume from image 4/10")
	PrintError("fetch failed", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "Account")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "Resume from image 4/10")
	assert.Contains(t, out, "fetch failed: boom")
}

func TestQuietModeKeepsErrors(t *testing.T) {
	buf := captureOutput(t)
	SetQuietMode(true)

	PrintSuccess("done")
	PrintHighlight("highlight")
	PrintError("failed")

	out := buf.String()
	assert.NotContains(t, out, "done")
	assert.NotContains(t, out, "highlight")
	assert.Contains(t, out, "failed")
	assert.IsType(t, NopReporter{}, NewReporter())
}

func TestBarReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewBarReporter(&buf)

	// Events before Start are ignored.
	r.Advance(1)
	r.Finish()
	assert.Empty(t, buf.String())

	r.Start("alice", 3)
	for i := 0; i < 3; i++ {
		r.Advance(1)
	}
	r.Finish()

	out := buf.String()
	assert.Contains(t, out, "u/alice")
	assert.Contains(t, out, "3/3")
}

type recordingSender struct {
	titles   []string
	messages []string
}

func (s *recordingSender) Send(title, message string) error {
	s.titles = append(s.titles, title)
	s.messages = append(s.messages, message)
	return nil
}

func TestNotifier(t *testing.T) {
	buf := captureOutput(t)
	sender := &recordingSender{}
	n := NewNotifierWithSender(sender)

	n.AccountComplete("alice", 3, "downloads/alice.zip")
	n.NoImages("bob")
	n.RunFailed(errors.New("timeout"))
	n.RunComplete(2)

	require.Len(t, sender.messages, 3)
	assert.Equal(t, "Downloaded 3 images from u/alice (downloads/alice.zip)", sender.messages[0])
	assert.Equal(t, "timeout", sender.messages[1])
	assert.Equal(t, "Finished 2 account(s)", sender.messages[2])
	assert.Contains(t, buf.String(), "No images found for u/bob")
}

func TestNotifierWithoutDesktop(t *testing.T) {
	buf := captureOutput(t)
	n := NewNotifier(false)
	n.AccountComplete("alice", 1, "")
	assert.Contains(t, buf.String(), "Downloaded 1 images from u/alice")
}
