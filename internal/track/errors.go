package track

import "errors"

var (
	ErrInvalidFormat = errors.New("invalid GPX file")
	ErrNoTracks      = errors.New("GPX file does not contain any tracks")
	ErrNoTrackPoints = errors.New("GPX file does not contain any track points")
)
