// Package config provides configuration management for audiobook-downloader.
//
// This package handles:
//   - Loading and saving settings from JSON or YAML files
//   - Default configuration values
//   - Conversion to http.Options and audio.TagConfig for other packages
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Output to ./{title}, mp3, no combining
//	// At most 8 concurrent part downloads
//	// Tagging enabled
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.yaml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Configuration Options
//
// Settings includes options for:
//   - Output location template, container format and combining
//   - Concurrent download limit and network timeouts
//   - ffmpeg / ffprobe locations
//   - Cover art handling
//   - Playlist generation
//   - Tag modification
package config
