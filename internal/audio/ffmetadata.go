package audio

import (
	"fmt"
	"strings"
	"time"

	"github.com/handiism/audiobook-downloader/internal/model"
)

var ffmetadataEscaper = strings.NewReplacer(
	`\`, `\\`,
	"=", `\=`,
	";", `\;`,
	"#", `\#`,
	"\n", "\\\n",
)

// FFMetadata renders chapters in ffmpeg's FFMETADATA1 format.
//
// Each chapter ends where the next one starts; the last one ends at
// total, or at its own start when total is unknown or earlier.
func FFMetadata(chapters []model.Chapter, total time.Duration) string {
	var sb strings.Builder
	sb.WriteString(";FFMETADATA1\n")

	for i, ch := range chapters {
		end := total
		if i+1 < len(chapters) {
			end = chapters[i+1].Start
		}
		if end < ch.Start {
			end = ch.Start
		}
		sb.WriteString("[CHAPTER]\n")
		sb.WriteString("TIMEBASE=1/1000\n")
		sb.WriteString(fmt.Sprintf("START=%d\n", ch.Start.Milliseconds()))
		sb.WriteString(fmt.Sprintf("END=%d\n", end.Milliseconds()))
		sb.WriteString(fmt.Sprintf("title=%s\n", ffmetadataEscaper.Replace(ch.Title)))
	}

	return sb.String()
}

// ConcatList renders filenames for ffmpeg's concat demuxer. Relative
// names are resolved by ffmpeg against the list file's directory.
func ConcatList(filenames []string) string {
	var sb strings.Builder
	for _, name := range filenames {
		sb.WriteString("file '")
		sb.WriteString(strings.ReplaceAll(name, "'", `'\''`))
		sb.WriteString("'\n")
	}
	return sb.String()
}
