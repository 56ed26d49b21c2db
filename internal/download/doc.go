// Package download provides the pipeline that turns a source into a
// finished audiobook.
//
// # Manager
//
// The Manager coordinates the entire process:
//
//  1. Load the source (title, files, metadata, cover, chapters)
//  2. Resolve the output location from the settings template
//  3. Download all files concurrently
//  4. Combine them into one file, or keep a tagged directory
//  5. Embed tags, cover and chapters
//
// # Basic Usage
//
//	src := source.NewManifestSource("book.yaml", client)
//	manager, err := download.NewManager(settings, src, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	artifact, err := manager.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Concurrency
//
// The Coordinator runs one Fetcher per file in an errgroup limited by
// settings.MaxConcurrentDownloads. The first failure cancels the
// transfers still running and every real failure is returned joined.
//
// # Progress Tracking
//
// Messages are reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
//
// Byte and file counts are read with Manager.GetProgress.
//
// # Failures
//
// Nothing is retried. Failed runs leave their downloaded files on disk.
package download
