package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"time"

	"subflow/internal/media"
	"subflow/internal/stage"
	"subflow/internal/timedtext"
)

// MaxAge is how old a checkpoint may be and still be resumable.
const MaxAge = 24 * time.Hour

// ErrStale marks checkpoints rejected for age.
var ErrStale = errors.New("checkpoint is stale")

// ErrArtifactMissing marks checkpoints whose recorded files are gone.
var ErrArtifactMissing = errors.New("checkpoint artifact missing")

// Checkpoint records the last successfully completed stage of a job and
// every artifact produced so far. It is written immediately after each
// stage success and read once when a job resumes.
type Checkpoint struct {
	JobID                string
	CreatedAt            time.Time
	LastCompletedStage   stage.Name
	DownloadedVideoPath  string
	Transcript           *timedtext.Transcript
	TranslatedTranscript *timedtext.Transcript
	Video                media.VideoDescriptor
	TargetLanguage       string
	Output               media.OutputOptions
}

// NextStage returns the stage a resumed job should enter, or false when
// the recorded stage is terminal.
func (c *Checkpoint) NextStage() (stage.Name, bool) {
	if c == nil || !c.LastCompletedStage.Valid() {
		return stage.Download, true
	}
	return c.LastCompletedStage.Next()
}

// Validate reports whether the checkpoint is still usable at the given
// time: recent enough, and with its recorded video file still on disk.
func (c *Checkpoint) Validate(now time.Time) error {
	if c == nil {
		return errors.New("nil checkpoint")
	}
	if age := now.Sub(c.CreatedAt); age > MaxAge {
		return fmt.Errorf("%w: written %s ago", ErrStale, age.Round(time.Minute))
	}
	if c.DownloadedVideoPath != "" {
		if _, err := os.Stat(c.DownloadedVideoPath); err != nil {
			return fmt.Errorf("%w: %s", ErrArtifactMissing, c.DownloadedVideoPath)
		}
	}
	return nil
}
