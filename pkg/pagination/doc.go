// Package pagination fetches every page of a paginated collection in parallel.
//
// Collection endpoints report the total number of records alongside one page
// of results. The batch fetcher reads the first page to learn how many pages
// exist, then fetches the rest with at most MaxConcurrency requests in flight:
//
//	fetcher := pagination.NewBatchFetcher(users, pagination.DefaultConfig())
//	pages, err := fetcher.FetchAll(ctx, "/users")
//	for _, body := range pages.Complete() {
//		...
//	}
//
// A failing page cancels the fetches still running; the pages fetched so far
// are returned together with the error.
package pagination
