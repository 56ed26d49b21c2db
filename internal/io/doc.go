// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - File copying, moving and writing
//   - Filename sanitization for cross-platform compatibility
//   - Directory creation and removal
//   - Image resizing and format conversion
//
// # File Operations
//
//	// Move a single downloaded part to its final location
//	err := ioutils.MoveFile(ctx, "/books/My Book/Part 01.mp3", "/books/My Book.mp3")
//
//	// Write a standalone cover file
//	err := ioutils.WriteFile(ctx, "/books/My Book/cover.jpg", coverBytes)
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/books/My Book")
//
// # Filename Sanitization
//
//	safe := ioutils.SanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
//
// # Image Processing
//
// The ImageService prepares cover art before it is embedded in tags:
//
//	svc := ioutils.NewImageService()
//	resized, _ := svc.ResizeImage(ctx, imageData, 1000, 1000)
//	jpeg, _ := svc.ConvertToJPEG(ctx, pngData)
package ioutils
