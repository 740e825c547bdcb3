package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPreservesOrder(t *testing.T) {
	jobs := make([]Job[int], 50)
	for i := range jobs {
		i := i
		jobs[i] = Job[int]{
			Label: fmt.Sprintf("job-%d", i),
			Run: func() (int, error) {
				// Later jobs finish first to exercise reordering.
				time.Sleep(time.Duration(50-i) * time.Microsecond)
				return i * 2, nil
			},
		}
	}

	results, err := Run(context.Background(), jobs, 8, false)
	require.NoError(t, err)
	require.Len(t, results, 50)
	for i, r := range results {
		assert.Equal(t, i*2, r)
	}
}

func TestRunSingleWorker(t *testing.T) {
	var running atomic.Int32
	jobs := make([]Job[int], 10)
	for i := range jobs {
		i := i
		jobs[i] = Job[int]{
			Run: func() (int, error) {
				if running.Add(1) > 1 {
					return 0, errors.New("concurrent execution with one worker")
				}
				defer running.Add(-1)
				return i, nil
			},
		}
	}

	// workers < 1 clamps to one.
	results, err := Run(context.Background(), jobs, 0, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, results)
}

func TestRunEmptyJobs(t *testing.T) {
	results, err := Run[int](context.Background(), nil, 4, false)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRunCollectsLabeledErrors(t *testing.T) {
	sentinel := errors.New("boom")
	jobs := []Job[string]{
		{Label: "ok", Run: func() (string, error) { return "a", nil }},
		{Label: "bad", Run: func() (string, error) { return "", sentinel }},
		{Label: "also-ok", Run: func() (string, error) { return "c", nil }},
	}

	results, err := Run(context.Background(), jobs, 2, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel))
	assert.Contains(t, err.Error(), "bad")

	// Successful slots survive; the failed slot is zero.
	assert.Equal(t, "a", results[0])
	assert.Equal(t, "", results[1])
	assert.Equal(t, "c", results[2])
}

func TestRunFailFast(t *testing.T) {
	var executed atomic.Int32
	jobs := make([]Job[int], 100)
	jobs[0] = Job[int]{
		Label: "first",
		Run:   func() (int, error) { return 0, errors.New("fail immediately") },
	}
	for i := 1; i < len(jobs); i++ {
		jobs[i] = Job[int]{
			Run: func() (int, error) {
				executed.Add(1)
				time.Sleep(time.Millisecond)
				return 1, nil
			},
		}
	}

	_, err := Run(context.Background(), jobs, 1, true)
	require.Error(t, err)
	// With one worker, the first job's failure cancels everything after.
	assert.Equal(t, int32(0), executed.Load())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job[int]{
		{Label: "never", Run: func() (int, error) { return 1, nil }},
	}
	_, err := Run(ctx, jobs, 2, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunMoreWorkersThanJobs(t *testing.T) {
	jobs := []Job[int]{
		{Run: func() (int, error) { return 7, nil }},
	}
	results, err := Run(context.Background(), jobs, 64, false)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, results)
}
