// Package http provides the HTTP client used to fetch audiobook parts
// and cover images.
//
// The Client in this package handles:
//   - User-Agent and per-request headers
//   - Streaming file downloads in fixed 1024-byte chunks with progress callbacks
//   - Connect, TLS handshake and response-header timeouts
//   - A stall watchdog that aborts transfers receiving no bytes
//   - File size retrieval via HEAD requests
//
// # Basic Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	// Download a part, reporting every written chunk
//	declared, err := client.DownloadFile(ctx, partURL, "/books/My Book/Part 01.mp3", nil,
//	    func(n int) { progress.Advance(int64(n)) },
//	    func(length int64) { fmt.Println("declared", length) })
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:  file,
//	    OnWrite: func(n int) { /* update UI */ },
//	}
package http
