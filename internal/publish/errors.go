package publish

import (
	"errors"
	"fmt"
)

var ErrCopyFailed = errors.New("bulk copy failed")

// Stage names the publish step that failed.
type Stage string

const (
	StageTimestamp Stage = "timestamp"
	StageCopy      Stage = "copy"
	StageNormalize Stage = "normalize"
	StageStamp     Stage = "stamp"
)

// PublicationError is a per-resource failure. It never aborts a sync run.
type PublicationError struct {
	ID          string
	Source      string
	Destination string
	Stage       Stage
	ExitCode    int
	Stdout      []byte
	Stderr      []byte
	Err         error
}

func (e *PublicationError) Error() string {
	if e.Stage == StageCopy {
		return fmt.Sprintf("copy %s to %s failed: exit code %d", e.Source, e.Destination, e.ExitCode)
	}
	return fmt.Sprintf("publish %s: %s: %v", e.ID, e.Stage, e.Err)
}

func (e *PublicationError) Unwrap() error {
	return e.Err
}
