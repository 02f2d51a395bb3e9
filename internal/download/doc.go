// Package download implements the batch queue engine: enqueueing sources
// with an eager probe for direct locators, a sequential batch driver built on
// the yt-dlp fetch engine, point-in-time snapshots for concurrent readers and
// JSON export of the queue state.
package download
