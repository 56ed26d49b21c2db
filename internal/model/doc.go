// Package model defines the core data structures used throughout
// the audiobook-downloader application.
//
// # Metadata
//
// Tags is an ordered list of tag-name/value pairs supplied by a source.
// Metadata groups the tags with the optional cover image and chapter
// markers that are embedded into the finished audiobook:
//
//	meta := model.Metadata{
//	    Tags:     model.Tags{{Name: "title", Value: "My Book"}, {Name: "author", Value: "Jane Doe"}},
//	    Cover:    &model.Cover{Data: jpegBytes, Extension: "jpg"},
//	    Chapters: []model.Chapter{{Start: 0, Title: "Opening"}},
//	}
//
// # Files
//
// A FileEntry describes one downloadable part as returned by a source.
// A RemoteFile is the transfer-time descriptor created for each entry:
//
//	file := model.NewRemoteFile(entry, outputDir, index, total)
//	fmt.Println(file.Path) // "<outputDir>/Part 01.mp3"
//
// # Output Location
//
// OutputLocation expands a template into the output directory path:
//
//	dir := model.OutputLocation("/books/{author}/{title}", "My Book", meta.Tags)
//
// Available placeholders: {title} and {<tag name>} for any tag.
package model
