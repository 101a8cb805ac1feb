// Package jobs runs image ingestion off the request path, in-process or through River.
package jobs

import (
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// QueueIngestion is the River queue ingestion jobs run on.
const QueueIngestion = "ingestion"

// IngestionArgs identifies one uploaded image to caption, embed and persist.
type IngestionArgs struct {
	ImageID    string    `json:"image_id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Kind returns the job type identifier for River.
func (IngestionArgs) Kind() string { return "image_ingestion" }

// InsertOpts routes jobs to the ingestion queue with one pending job per image.
func (IngestionArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue: QueueIngestion,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			// JobStatePending is required by River when using ByState
			ByState: []rivertype.JobState{
				rivertype.JobStatePending,
				rivertype.JobStateAvailable,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}
