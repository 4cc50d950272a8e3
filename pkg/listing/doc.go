// Package listing retrieves the ordered set of downloadable media items for
// an account by following the remote listing's continuation cursor.
//
// The remote side is abstracted behind Driver so that the fetcher can be
// exercised against in-memory fakes; package reddit provides the HTTP
// implementation.
package listing
