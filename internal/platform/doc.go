package platform

// Package platform contains OS/platform integration and external tooling glue:
// the yt-dlp fetch engine, playlist expansion and filesystem helpers.
