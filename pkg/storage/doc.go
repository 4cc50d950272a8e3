// Package storage manages the on-disk layout of downloaded items.
//
// Each account gets its own directory under the output base directory.
// Items are named image_{n}.{ext}, where n is the 1-based position of the
// item in the account's listing, so a resumed run writes exactly the names
// an uninterrupted run would have written.
//
// Writes go to a temporary file that is synced and renamed into place, so
// a file with a final name is always complete.
//
//	manager, err := storage.NewManager("./downloads")
//	path, err := manager.SaveItem("alice", 3, "jpg", data)
//	// ./downloads/alice/image_3.jpg
package storage
