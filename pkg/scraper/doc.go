// Package scraper drives a download run over one or more Reddit accounts.
//
// A run is described by a checkpoint.Checkpoint that the Scraper owns for
// the duration of the run and persists at every state change:
//
//	Idle -> SingleActive -> Idle
//	Idle -> MultipleActive (one AccountActive per queued account) -> Idle
//
// In single mode the checkpoint names one account. In multiple mode the
// accounts wait in a FIFO queue; the head is popped into the current slot,
// processed, and the slot is emptied before the next pop. After a crash,
// Resume finishes the current account from its saved index and then drains
// the rest of the queue in its original order.
//
// Listing, downloading and prompting are delegated:
//
//	s := scraper.New(fetcher, loop, store, operator, log)
//	if err := s.StartMultiple(ctx, []string{"alice", "bob"}); err != nil {
//	    // the checkpoint is kept, a later Resume picks up where this stopped
//	}
package scraper
