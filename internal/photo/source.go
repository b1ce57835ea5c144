package photo

import (
	"context"
	"errors"
	"time"
)

// ErrAlbumNotFound is returned when a source has no album with the
// requested name. An album that exists but holds no photos is not an
// error; callers get an empty result instead.
var ErrAlbumNotFound = errors.New("album not found")

// Source resolves albums to photo references and loads photo bytes. The
// two implementations (local index, remote library) are interchangeable;
// callers pick one based on configuration.
type Source interface {
	// Resolve returns the photos in the queried album, newest first.
	Resolve(ctx context.Context, query AlbumQuery) ([]Ref, error)

	// Open returns the raw bytes of one photo.
	Open(ctx context.Context, ref Ref) ([]byte, error)
}

// withinDay reports whether a unix timestamp falls inside the calendar
// day, compared in UTC epoch seconds with an inclusive start and exclusive
// end.
func withinDay(unix int64, day time.Time) bool {
	start, end := DayBounds(day)
	return unix >= start.Unix() && unix < end.Unix()
}
