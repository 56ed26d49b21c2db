// Package source defines where an audiobook comes from.
//
// A Source supplies the title, the ordered list of parts to download,
// the metadata tags, the cover and the chapter markers. Sources that
// need to transfer parts themselves also implement FileDownloader.
//
// ManifestSource reads all of this from a YAML or JSON file:
//
//	title: The Book
//	files:
//	  - url: https://example.com/part1.mp3
//	    title: Chapter One
//	metadata:
//	  author: Jane Doe
//	  narrator: John Roe
//	cover:
//	  url: https://example.com/cover.jpg
//	chapters:
//	  - start: 0s
//	    title: Opening
//	  - start: "00:12:30"
//	    title: Chapter Two
package source
