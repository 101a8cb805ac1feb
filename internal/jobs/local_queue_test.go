package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProcessor struct {
	processFunc func(ctx context.Context, args IngestionArgs) error
}

func (m *mockProcessor) Process(ctx context.Context, args IngestionArgs) error {
	return m.processFunc(ctx, args)
}

func TestLocalQueue_ProcessesAllJobs(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)

	proc := &mockProcessor{processFunc: func(_ context.Context, args IngestionArgs) error {
		mu.Lock()
		defer mu.Unlock()

		seen = append(seen, args.ImageID)

		return nil
	}}

	q := NewLocalQueue(proc, LocalQueueOptions{Workers: 3, Size: 10})
	q.Start(context.Background())

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, q.Enqueue(context.Background(), IngestionArgs{ImageID: id}))
	}

	require.NoError(t, q.Stop(context.Background()))
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, seen)
}

func TestLocalQueue_FullQueue(t *testing.T) {
	release := make(chan struct{})
	proc := &mockProcessor{processFunc: func(_ context.Context, _ IngestionArgs) error {
		<-release

		return nil
	}}

	// not started: nothing drains the buffer
	q := NewLocalQueue(proc, LocalQueueOptions{Workers: 1, Size: 1})

	require.NoError(t, q.Enqueue(context.Background(), IngestionArgs{ImageID: "a"}))
	assert.ErrorIs(t, q.Enqueue(context.Background(), IngestionArgs{ImageID: "b"}), ErrQueueFull)
	assert.Equal(t, 1, q.Len())

	q.Start(context.Background())
	close(release)
	require.NoError(t, q.Stop(context.Background()))

	assert.ErrorIs(t, q.Enqueue(context.Background(), IngestionArgs{ImageID: "c"}), ErrQueueStopped)
}

func TestLocalQueue_PanicAndErrorAreContained(t *testing.T) {
	var processed atomic.Int32

	proc := &mockProcessor{processFunc: func(_ context.Context, args IngestionArgs) error {
		processed.Add(1)

		switch args.ImageID {
		case "panic":
			panic("decoder exploded")
		case "error":
			return errors.New("store offline")
		}

		return nil
	}}

	q := NewLocalQueue(proc, LocalQueueOptions{Workers: 1, Size: 10})
	q.Start(context.Background())

	for _, id := range []string{"panic", "error", "ok"} {
		require.NoError(t, q.Enqueue(context.Background(), IngestionArgs{ImageID: id}))
	}

	require.NoError(t, q.Stop(context.Background()))
	assert.Equal(t, int32(3), processed.Load(), "worker survives a panicking job")
}

func TestLocalQueue_StopTimeoutCancelsJobs(t *testing.T) {
	started := make(chan struct{})
	proc := &mockProcessor{processFunc: func(ctx context.Context, _ IngestionArgs) error {
		close(started)
		<-ctx.Done()

		return ctx.Err()
	}}

	q := NewLocalQueue(proc, LocalQueueOptions{Workers: 1, Size: 1})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(context.Background(), IngestionArgs{ImageID: "slow"}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Stop(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, q.Stop(context.Background()), "second Stop is a no-op")
}

func TestLocalQueue_JobTimeout(t *testing.T) {
	var deadlineSeen atomic.Bool

	proc := &mockProcessor{processFunc: func(ctx context.Context, _ IngestionArgs) error {
		_, ok := ctx.Deadline()
		deadlineSeen.Store(ok)

		return nil
	}}

	q := NewLocalQueue(proc, LocalQueueOptions{JobTimeout: time.Minute})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(context.Background(), IngestionArgs{ImageID: "a"}))
	require.NoError(t, q.Stop(context.Background()))

	assert.True(t, deadlineSeen.Load())
}

func TestIngestionArgs(t *testing.T) {
	args := IngestionArgs{ImageID: "id"}
	assert.Equal(t, "image_ingestion", args.Kind())

	opts := args.InsertOpts()
	assert.Equal(t, QueueIngestion, opts.Queue)
	assert.True(t, opts.UniqueOpts.ByArgs)
}
