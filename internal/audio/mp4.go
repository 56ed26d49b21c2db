package audio

import (
	"net/http"
	"strings"

	"github.com/handiism/audiobook-downloader/internal/model"
	"github.com/zhaarey/go-mp4tag"
)

func openMP4(path string, tags *mp4tag.MP4Tags, del []string) error {
	mp4, err := mp4tag.Open(path)
	if err != nil {
		return err
	}
	defer mp4.Close()
	return mp4.Write(tags, del)
}

// mp4DeleteNames maps tag names to the atom names understood by
// mp4tag's delete list.
var mp4DeleteNames = map[string]string{
	model.TagTitle:       "title",
	model.TagAuthor:      "artist",
	"artist":             "artist",
	model.TagAlbumArtist: "album_artist",
	model.TagNarrator:    "composer",
	model.TagAlbum:       "album",
	model.TagGenre:       "genre",
	model.TagDate:        "date",
	model.TagYear:        "date",
	model.TagCopyright:   "copyright",
	model.TagPublisher:   "publisher",
}

func writeMP4Tags(path string, set model.Tags, clear []string) error {
	t := &mp4tag.MP4Tags{
		Custom: make(map[string]string),
	}

	for _, tag := range set {
		switch strings.ToLower(tag.Name) {
		case model.TagTitle:
			t.Title = tag.Value
		case model.TagAuthor, "artist":
			t.Artist = tag.Value
		case model.TagAlbumArtist:
			t.AlbumArtist = tag.Value
		case model.TagNarrator:
			t.Composer = tag.Value
		case model.TagAlbum:
			t.Album = tag.Value
		case model.TagGenre:
			t.CustomGenre = tag.Value
		case model.TagDate, model.TagYear:
			t.Date = tag.Value
		case model.TagCopyright:
			t.Copyright = tag.Value
		case model.TagPublisher:
			t.Publisher = tag.Value
		default:
			t.Custom[strings.ToUpper(tag.Name)] = tag.Value
		}
	}

	var del []string
	for _, name := range clear {
		if atom, ok := mp4DeleteNames[name]; ok {
			del = append(del, atom)
		}
	}
	return openMP4(path, t, del)
}

func writeMP4Cover(path string, cover []byte) error {
	format := mp4tag.ImageTypeJPEG
	if imageMimeType(cover) == "image/png" {
		format = mp4tag.ImageTypePNG
	}
	t := &mp4tag.MP4Tags{
		Pictures: []*mp4tag.MP4Picture{{Format: format, Data: cover}},
	}
	return openMP4(path, t, nil)
}

// imageMimeType sniffs the MIME type of cover data, defaulting to JPEG.
func imageMimeType(data []byte) string {
	if mime := http.DetectContentType(data); strings.HasPrefix(mime, "image/") {
		return mime
	}
	return "image/jpeg"
}
