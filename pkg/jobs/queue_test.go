package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsJobAndReleasesKey(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		done <- job
		return nil
	}, QueueConfig{})

	_, err := q.Enqueue(Job{Type: "noop"})
	require.Error(t, err, "enqueue before start must fail")

	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue(Job{Type: "refresh", Key: "suggestions"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case job := <-done:
		assert.Equal(t, id, job.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
	assert.Eventually(t, func() bool { return !q.Pending("suggestions") }, time.Second, 10*time.Millisecond)
}

func TestQueueCoalescesKeyedJobs(t *testing.T) {
	release := make(chan struct{})
	var runs int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&runs, 1)
		<-release
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	first, err := q.Enqueue(Job{Key: "suggestions"})
	require.NoError(t, err)

	second, err := q.Enqueue(Job{Key: "suggestions"})
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.Equal(t, first, second)

	close(release)
	assert.Eventually(t, func() bool { return !q.Pending("suggestions") }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 2 {
			return errors.New("boom")
		}
		return nil
	}, QueueConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue(Job{Key: "k"})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) == 2 && !q.Pending("k") }, time.Second, 10*time.Millisecond)
}
