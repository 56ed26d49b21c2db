package audio

import (
	"fmt"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/handiism/audiobook-downloader/internal/model"
)

// id3Frames maps tag names to ID3v2.4 text frame IDs. Tags not listed
// are written as TXXX user-defined frames.
var id3Frames = map[string]string{
	model.TagTitle:       "TIT2",
	model.TagAuthor:      "TPE1",
	"artist":             "TPE1",
	model.TagAlbumArtist: "TPE2",
	model.TagNarrator:    "TCOM",
	model.TagAlbum:       "TALB",
	model.TagSeries:      "TIT1",
	model.TagGenre:       "TCON",
	model.TagYear:        "TYER",
	model.TagDate:        "TDRC",
	model.TagPublisher:   "TPUB",
	model.TagCopyright:   "TCOP",
	model.TagLanguage:    "TLAN",
}

// id3Comments are written as COMM frames.
var id3Comments = map[string]bool{
	model.TagComment:     true,
	model.TagDescription: true,
}

func openID3(path string, fn func(tag *id3v2.Tag)) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	fn(tag)
	return tag.Save()
}

func writeID3Tags(path string, set model.Tags, clear []string) error {
	return openID3(path, func(tag *id3v2.Tag) {
		for _, name := range clear {
			if id, ok := id3Frames[name]; ok {
				tag.DeleteFrames(id)
			}
		}

		var comments []id3v2.CommentFrame
		userDefined := map[string]string{}
		var userOrder []string
		for _, t := range set {
			name := strings.ToLower(t.Name)
			switch {
			case id3Frames[name] != "":
				tag.AddTextFrame(id3Frames[name], id3v2.EncodingUTF8, t.Value)
			case id3Comments[name]:
				comments = append(comments, id3v2.CommentFrame{
					Encoding:    id3v2.EncodingUTF8,
					Language:    "eng",
					Description: name,
					Text:        t.Value,
				})
			default:
				key := strings.ToUpper(name)
				if _, seen := userDefined[key]; !seen {
					userOrder = append(userOrder, key)
				}
				userDefined[key] = t.Value
			}
		}

		if len(comments) > 0 || containsAny(clear, model.TagComment, model.TagDescription) {
			tag.DeleteFrames(tag.CommonID("Comments"))
		}
		for _, c := range comments {
			tag.AddCommentFrame(c)
		}

		replaceUserDefined(tag, userOrder, userDefined, clear)
	})
}

// replaceUserDefined rewrites TXXX frames so that each description
// appears at most once.
func replaceUserDefined(tag *id3v2.Tag, order []string, values map[string]string, clear []string) {
	drop := map[string]bool{}
	for _, key := range order {
		drop[key] = true
	}
	for _, name := range clear {
		drop[strings.ToUpper(name)] = true
	}
	if len(drop) == 0 {
		return
	}

	var kept []id3v2.UserDefinedTextFrame
	for _, f := range tag.GetFrames("TXXX") {
		udtf, ok := f.(id3v2.UserDefinedTextFrame)
		if ok && !drop[strings.ToUpper(udtf.Description)] {
			kept = append(kept, udtf)
		}
	}
	tag.DeleteFrames("TXXX")
	for _, f := range kept {
		tag.AddUserDefinedTextFrame(f)
	}
	for _, key := range order {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: key,
			Value:       values[key],
		})
	}
}

func writeID3Cover(path string, cover []byte) error {
	return openID3(path, func(tag *id3v2.Tag) {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    imageMimeType(cover),
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     cover,
		})
	})
}

func writeID3Chapters(path string, chapters []model.Chapter, total time.Duration) error {
	return openID3(path, func(tag *id3v2.Tag) {
		tag.DeleteFrames("CHAP")
		for i, ch := range chapters {
			end := total
			if i+1 < len(chapters) {
				end = chapters[i+1].Start
			}
			if end < ch.Start {
				end = ch.Start
			}
			tag.AddChapterFrame(id3v2.ChapterFrame{
				ElementID:   fmt.Sprintf("chp%d", i),
				StartTime:   ch.Start,
				EndTime:     end,
				StartOffset: id3v2.IgnoredOffset,
				EndOffset:   id3v2.IgnoredOffset,
				Title: &id3v2.TextFrame{
					Encoding: id3v2.EncodingUTF8,
					Text:     ch.Title,
				},
			})
		}
	})
}

func containsAny(list []string, names ...string) bool {
	for _, l := range list {
		for _, n := range names {
			if l == n {
				return true
			}
		}
	}
	return false
}
