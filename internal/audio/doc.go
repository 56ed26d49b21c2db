// Package audio provides audio file manipulation services: tag, cover
// and chapter writing, combining parts into one file, and playlist
// generation.
//
// # Tagging
//
// Use the Tagger to write metadata into finished audio files. The
// writer is chosen by file extension:
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig(), audio.NewFFmpeg("", ""))
//	err := tagger.AddTags(ctx, "/books/My Book.m4b", meta.Tags)
//	err = tagger.EmbedCover(ctx, "/books/My Book.m4b", cover)
//	err = tagger.AddChapters(ctx, "/books/My Book.m4b", meta.Chapters)
//
// Supported containers:
//   - MP3: ID3v2.4 text frames, attached picture, CHAP frames
//   - M4A/M4B/MP4: iTunes metadata atoms and cover; chapters via ffmpeg
//   - Anything else ffmpeg can remux: tags and chapters via ffmpeg
//
// Every write replaces what it writes, so tagging the same file twice
// with the same metadata leaves one copy of each tag and chapter.
//
// # Combining
//
// FFmpeg joins downloaded parts with the concat demuxer:
//
//	ff := audio.NewFFmpeg("ffmpeg", "ffprobe")
//	err := ff.Combine(ctx, []string{"Part 01.mp3", "Part 02.mp3"}, "/books/My Book", "/books/My Book.m4b")
//
// # Playlist Generation
//
//	creator := audio.NewPlaylistCreator(audio.FormatM3U, true) // extended M3U
//	content := creator.CreatePlaylist(playlist)
//
// Supported formats: M3U (with optional extended info), PLS, WPL, ZPL.
package audio
