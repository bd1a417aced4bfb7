package ffmpeg

import "fmt"

// MissingSourceError is returned when a segment references a file id with no
// known source path. It is fatal for the whole task and detected before any
// subprocess is started.
type MissingSourceError struct {
	FileID string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("missing source for file %s", e.FileID)
}
