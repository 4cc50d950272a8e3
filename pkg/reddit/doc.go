// Package reddit implements listing.Driver over Reddit's public JSON API.
//
// Listings come from /user/{name}/submitted.json, paged with the "after"
// cursor. Items are fetched with a plain GET of the post's url field.
//
//	client := reddit.NewClient(reddit.Options{
//	    UserAgent: cfg.Reddit.UserAgent,
//	    Timeout:   cfg.Download.Timeout,
//	    Limiter:   ratelimit.PerMinute(60, 5),
//	}, log)
//	page, err := client.FetchPage(ctx, "alice", "", 100)
//
// Every failure is returned as *errors.Error and is never retried here.
package reddit
