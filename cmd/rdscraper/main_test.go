package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rdscraper/pkg/checkpoint"
)

func scripted(input string, interactive bool) (*terminalOperator, *bytes.Buffer) {
	var out bytes.Buffer
	return &terminalOperator{
		in:          bufio.NewReader(strings.NewReader(input)),
		out:         &out,
		interactive: interactive,
		count:       -1,
	}, &out
}

func TestDownloadCountPrompt(t *testing.T) {
	op, out := scripted("abc\n7\n", true)

	n := op.DownloadCount("alice", 3, 10)
	assert.Equal(t, 7, n)
	assert.Contains(t, out.String(), "Resume from image 4/10")
	assert.Contains(t, out.String(), "(max 7)")
	assert.Contains(t, out.String(), "Please enter a number")
}

func TestDownloadCountDefaults(t *testing.T) {
	op, _ := scripted("\n", true)
	assert.Equal(t, 5, op.DownloadCount("alice", 0, 5), "empty answer takes everything")

	op, _ = scripted("", true)
	assert.Equal(t, 5, op.DownloadCount("alice", 0, 5), "EOF takes everything")

	op, out := scripted("", false)
	assert.Equal(t, 3, op.DownloadCount("alice", 2, 5))
	assert.NotContains(t, out.String(), "How many")
}

func TestDownloadCountFlags(t *testing.T) {
	op, _ := scripted("", true)
	op.count = 50
	assert.Equal(t, 50, op.DownloadCount("alice", 0, 5), "clamping is left to the download loop")

	op.count = -1
	op.all = true
	assert.Equal(t, 4, op.DownloadCount("alice", 1, 5))
}

func TestDownloadCountPastListingEnd(t *testing.T) {
	op, out := scripted("", false)
	assert.Equal(t, 0, op.DownloadCount("alice", 1, 1))
	assert.Equal(t, 0, op.DownloadCount("alice", 4, 1))
	assert.NotContains(t, out.String(), "Resume from image")
}

func TestCountWithheldWhileResuming(t *testing.T) {
	op, _ := scripted("", false)
	op.count = 5

	restore := op.withoutCount()
	assert.Equal(t, 8, op.DownloadCount("alice", 2, 10), "resumed account takes its remainder")

	restore()
	assert.Equal(t, 5, op.DownloadCount("bob", 0, 10))
}

func TestConfirmResume(t *testing.T) {
	cp := checkpoint.NewMultiple([]string{"c"})
	cp.CurrentAccount = "b"
	cp.CurrentIndex = 4

	op, out := scripted("maybe\nn\n", true)
	assert.False(t, op.ConfirmResume(cp))
	assert.Contains(t, out.String(), "u/b, next image 5")
	assert.Contains(t, out.String(), "queued")

	op, _ = scripted("\n", true)
	assert.True(t, op.ConfirmResume(cp))

	op, _ = scripted("", false)
	assert.True(t, op.ConfirmResume(cp), "non-interactive runs resume")

	op, _ = scripted("n\n", true)
	op.assumeYes = true
	assert.True(t, op.ConfirmResume(cp))
}

func TestNormalizeAccounts(t *testing.T) {
	accounts, err := normalizeAccounts([]string{"alice", "u/bob", "https://www.reddit.com/user/carol/", "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, accounts)

	_, err = normalizeAccounts([]string{"ok_name", "no spaces allowed"})
	assert.Error(t, err)
}
