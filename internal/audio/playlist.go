package audio

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// PlaylistFormat represents supported playlist file formats.
//
// Each format has different features and compatibility:
//   - M3U: Simple text format, widely supported
//   - PLS: INI-style format, used by Winamp
//   - WPL: XML format, Windows Media Player
//   - ZPL: XML format, Zune/Groove Music
type PlaylistFormat int

const (
	// FormatM3U creates .m3u files (most compatible).
	// Can be extended with EXTINF lines for duration/title info.
	FormatM3U PlaylistFormat = iota

	// FormatPLS creates .pls files (Winamp/SHOUTcast format).
	// INI-style format with file, title, and length info.
	FormatPLS

	// FormatWPL creates .wpl files (Windows Media Player).
	// XML-based SMIL format.
	FormatWPL

	// FormatZPL creates .zpl files (Zune/Groove Music).
	// XML-based SMIL format with extended metadata.
	FormatZPL
)

// Extension returns the file extension for the playlist format, including the dot.
func (f PlaylistFormat) Extension() string {
	switch f {
	case FormatPLS:
		return ".pls"
	case FormatWPL:
		return ".wpl"
	case FormatZPL:
		return ".zpl"
	default:
		return ".m3u"
	}
}

// ParsePlaylistFormat converts a settings value (m3u, pls, wpl, zpl)
// into a PlaylistFormat, defaulting to M3U.
func ParsePlaylistFormat(s string) PlaylistFormat {
	switch strings.ToLower(s) {
	case "pls":
		return FormatPLS
	case "wpl":
		return FormatWPL
	case "zpl":
		return FormatZPL
	default:
		return FormatM3U
	}
}

// Playlist is the audiobook as seen by a playlist file: the parts of
// an output directory in order.
type Playlist struct {
	Title  string
	Author string
	Items  []PlaylistItem
}

// PlaylistItem is one entry of a playlist.
type PlaylistItem struct {
	// File is the filename relative to the playlist.
	File string

	// Title is the display title. Empty means the filename is used.
	Title string

	// Duration is the item length. Zero means unknown.
	Duration time.Duration
}

func (i PlaylistItem) displayTitle() string {
	if i.Title != "" {
		return i.Title
	}
	return strings.TrimSuffix(i.File, filepath.Ext(i.File))
}

// seconds returns the duration in whole seconds, or -1 when unknown.
func (i PlaylistItem) seconds() int {
	if i.Duration <= 0 {
		return -1
	}
	return int(i.Duration.Seconds())
}

// PlaylistCreator generates playlist files in various formats.
//
// Example:
//
//	creator := NewPlaylistCreator(FormatM3U, true)
//	content := creator.CreatePlaylist(playlist)
//
//	// Result:
//	// #EXTM3U
//	// #EXTINF:-1,Jane Doe - Chapter 1
//	// Part 01.mp3
type PlaylistCreator struct {
	format   PlaylistFormat
	extended bool // For M3U: include EXTINF lines with duration/title
}

// NewPlaylistCreator creates a new PlaylistCreator.
//
// Parameters:
//   - format: The playlist format to generate
//   - extended: For M3U format, whether to include #EXTINF lines
//     (ignored for other formats)
func NewPlaylistCreator(format PlaylistFormat, extended bool) *PlaylistCreator {
	return &PlaylistCreator{
		format:   format,
		extended: extended,
	}
}

// Format returns the creator's playlist format.
func (p *PlaylistCreator) Format() PlaylistFormat {
	return p.format
}

// CreatePlaylist generates playlist content.
//
// Returns the playlist as a string, ready to be written to a file.
// Item paths are relative, assuming the playlist file is in the same
// directory as the parts.
func (p *PlaylistCreator) CreatePlaylist(pl *Playlist) string {
	switch p.format {
	case FormatPLS:
		return p.createPLS(pl)
	case FormatWPL:
		return p.createWPL(pl)
	case FormatZPL:
		return p.createZPL(pl)
	default:
		return p.createM3U(pl)
	}
}

// createM3U generates an M3U playlist.
//
// Standard M3U format:
//
//	filename1.mp3
//	filename2.mp3
//
// Extended M3U format (when extended=true):
//
//	#EXTM3U
//	#EXTINF:-1,Author - Title
//	filename1.mp3
//
// Unknown durations are written as -1.
func (p *PlaylistCreator) createM3U(pl *Playlist) string {
	var sb strings.Builder

	if p.extended {
		sb.WriteString("#EXTM3U\n")
	}

	for _, item := range pl.Items {
		if p.extended {
			if pl.Author != "" {
				sb.WriteString(fmt.Sprintf("#EXTINF:%d,%s - %s\n", item.seconds(), pl.Author, item.displayTitle()))
			} else {
				sb.WriteString(fmt.Sprintf("#EXTINF:%d,%s\n", item.seconds(), item.displayTitle()))
			}
		}
		sb.WriteString(item.File + "\n")
	}

	return sb.String()
}

// createPLS generates a PLS playlist.
//
// PLS format is an INI-style text file:
//
//	[playlist]
//	File1=filename1.mp3
//	Title1=Song Title
//	Length1=180
//	NumberOfEntries=2
//	Version=2
func (p *PlaylistCreator) createPLS(pl *Playlist) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")

	for i, item := range pl.Items {
		idx := i + 1
		sb.WriteString(fmt.Sprintf("File%d=%s\n", idx, item.File))
		sb.WriteString(fmt.Sprintf("Title%d=%s\n", idx, item.displayTitle()))
		sb.WriteString(fmt.Sprintf("Length%d=%d\n", idx, item.seconds()))
	}

	sb.WriteString(fmt.Sprintf("NumberOfEntries=%d\n", len(pl.Items)))
	sb.WriteString("Version=2\n")

	return sb.String()
}

// createWPL generates a Windows Media Player playlist.
//
// WPL is an XML-based SMIL format used by Windows Media Player.
func (p *PlaylistCreator) createWPL(pl *Playlist) string {
	var sb strings.Builder

	sb.WriteString("<?wpl version=\"1.0\"?>\n")
	sb.WriteString("<smil>\n")
	sb.WriteString("  <head>\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(pl.Title)))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString("    <seq>\n")

	for _, item := range pl.Items {
		sb.WriteString(fmt.Sprintf("      <media src=\"%s\"/>\n", escapeXML(item.File)))
	}

	sb.WriteString("    </seq>\n")
	sb.WriteString("  </body>\n")
	sb.WriteString("</smil>\n")

	return sb.String()
}

// createZPL generates a Zune/Groove Music playlist.
//
// ZPL is similar to WPL but includes additional metadata attributes
// like book title, author, and item duration.
func (p *PlaylistCreator) createZPL(pl *Playlist) string {
	var sb strings.Builder

	sb.WriteString("<?zpl version=\"2.0\"?>\n")
	sb.WriteString("<smil>\n")
	sb.WriteString("  <head>\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(pl.Title)))
	sb.WriteString("    <meta name=\"Generator\" content=\"AudiobookDownloader\"/>\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"ItemCount\" content=\"%d\"/>\n", len(pl.Items)))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString("    <seq>\n")

	for _, item := range pl.Items {
		sb.WriteString(fmt.Sprintf("      <media src=\"%s\" albumTitle=\"%s\" albumArtist=\"%s\" trackTitle=\"%s\" trackArtist=\"%s\" duration=\"%d\"/>\n",
			escapeXML(item.File),
			escapeXML(pl.Title),
			escapeXML(pl.Author),
			escapeXML(item.displayTitle()),
			escapeXML(pl.Author),
			item.Duration.Milliseconds()))
	}

	sb.WriteString("    </seq>\n")
	sb.WriteString("  </body>\n")
	sb.WriteString("</smil>\n")

	return sb.String()
}

// escapeXML escapes special XML characters in a string.
//
// Replaces: & < > " '
// With:     &amp; &lt; &gt; &quot; &apos;
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
