// Package checkpoint persists the progress record that lets an interrupted
// download run resume where it stopped.
//
// Exactly one checkpoint exists at a time, stored as a JSON file at a fixed
// path. Its absence means there is no interrupted run. The record tracks:
//   - the run mode (single account or a queue of accounts)
//   - the account currently being downloaded and the index of its next item
//   - the accounts still waiting in the queue, in submission order
//
// By default the file lives in the platform data directory:
//   - Linux: $XDG_DATA_HOME/rdscraper/checkpoint.json (~/.local/share/rdscraper)
//   - macOS: ~/Library/Application Support/rdscraper/checkpoint.json
//   - Windows: %APPDATA%/rdscraper/checkpoint.json
//
// Saves are atomic (temp file, fsync, rename), so a reader sees either the
// last complete snapshot or nothing. A file that cannot be decoded is moved
// aside to <path>.corrupt and reported as absent.
package checkpoint
