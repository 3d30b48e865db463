package apod

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoImage is returned by Info.ImageURL when an entry has nothing that can
// be downloaded as an image.
var ErrNoImage = errors.New("apod entry has no downloadable image")

// MediaType is the kind of media an APOD entry points at.
type MediaType int

const (
	MediaOther MediaType = iota
	MediaImage
	MediaVideo
)

func (m MediaType) String() string {
	switch m {
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	default:
		return "other"
	}
}

// MarshalText encodes the media type using the API's vocabulary.
func (m MediaType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText maps the API's media_type string. Unknown values decode to
// MediaOther rather than failing the whole response.
func (m *MediaType) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "image":
		*m = MediaImage
	case "video":
		*m = MediaVideo
	default:
		*m = MediaOther
	}
	return nil
}

// Info is the metadata of one APOD entry.
type Info struct {
	Date         string    `json:"date"`
	Title        string    `json:"title"`
	Explanation  string    `json:"explanation"`
	MediaType    MediaType `json:"media_type"`
	URL          string    `json:"url,omitempty"`
	HDURL        string    `json:"hdurl,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Copyright    string    `json:"copyright,omitempty"`
}

// ImageURL returns the URL of the image to download for this entry. Images
// prefer the HD URL and fall back to the standard one; videos use the
// thumbnail, which the API only includes when thumbs=true was requested.
func (i Info) ImageURL() (string, error) {
	var candidates []string
	switch i.MediaType {
	case MediaImage:
		candidates = []string{i.HDURL, i.URL}
	case MediaVideo:
		candidates = []string{i.ThumbnailURL}
	default:
		return "", fmt.Errorf("%w: media type %s", ErrNoImage, i.MediaType)
	}
	for _, candidate := range candidates {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed, nil
		}
	}
	return "", fmt.Errorf("%w: %s entry %q has no image url", ErrNoImage, i.MediaType, i.Date)
}
