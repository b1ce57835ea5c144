package photo

import (
	"path/filepath"
	"strings"
	"time"
)

// Ref identifies one photo in a source. It is immutable once produced.
type Ref struct {
	ID          string
	URI         string
	Filename    string
	ContentType string
	AddedAt     time.Time // zero when the source does not know it
}

// AlbumQuery selects photos from a named album, optionally restricted to a
// single calendar day (interpreted in UTC).
type AlbumQuery struct {
	Album string
	Day   *time.Time
}

// supportedTypes lists the raster formats (plus PDF, rendered to an image
// before analysis) the intake accepts.
var supportedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/heic":      true,
	"image/heif":      true,
	"application/pdf": true,
}

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".heic": true,
	".heif": true,
	".pdf":  true,
}

// Supported reports whether a photo is in a format the intake can process,
// judged by declared content type with a filename-extension fallback.
func Supported(ref Ref) bool {
	if ref.ContentType != "" {
		return supportedTypes[strings.ToLower(ref.ContentType)]
	}
	name := ref.Filename
	if name == "" {
		name = ref.URI
	}
	return supportedExtensions[strings.ToLower(filepath.Ext(name))]
}

func timeFromUnix(unix int64) time.Time {
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0).UTC()
}

// DayBounds returns the [start, end) UTC instant pair for the calendar day
// of t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
