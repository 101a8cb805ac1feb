package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/gallery/internal/jobs"
)

type mockProcessor struct {
	processFunc func(ctx context.Context, args jobs.IngestionArgs) error
}

func (m *mockProcessor) Process(ctx context.Context, args jobs.IngestionArgs) error {
	return m.processFunc(ctx, args)
}

func newJob(args jobs.IngestionArgs) *river.Job[jobs.IngestionArgs] {
	return &river.Job[jobs.IngestionArgs]{
		JobRow: &rivertype.JobRow{ID: 1, Attempt: 1, MaxAttempts: 3, Kind: args.Kind()},
		Args:   args,
	}
}

func TestImageIngestionWorker_Work(t *testing.T) {
	var got jobs.IngestionArgs

	proc := &mockProcessor{processFunc: func(_ context.Context, args jobs.IngestionArgs) error {
		got = args

		return nil
	}}

	args := jobs.IngestionArgs{ImageID: "img-1", Filename: "img-1_cat.jpg", UploadedAt: time.Now()}
	w := NewImageIngestionWorker(proc, 0)

	require.NoError(t, w.Work(context.Background(), newJob(args)))
	assert.Equal(t, args, got)
	assert.Equal(t, defaultIngestionTimeout, w.Timeout(nil))
}

func TestImageIngestionWorker_WorkError(t *testing.T) {
	cause := errors.New("store offline")
	proc := &mockProcessor{processFunc: func(context.Context, jobs.IngestionArgs) error {
		return cause
	}}

	err := NewImageIngestionWorker(proc, time.Minute).Work(context.Background(), newJob(jobs.IngestionArgs{ImageID: "img-2"}))
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "img-2")
}
