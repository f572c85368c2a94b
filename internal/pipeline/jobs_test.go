package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForJob(t *testing.T, jobs *JobStore, id string) Job {
	t.Helper()

	var job Job
	require.Eventually(t, func() bool {
		j, ok := jobs.Get(id)
		if !ok {
			return false
		}
		job = j
		return j.State != JobRunning
	}, 5*time.Second, 10*time.Millisecond)

	return job
}

func TestJobLifecycle(t *testing.T) {
	gen, _ := newTestGenerator(t, nil)
	jobs := NewJobStore(gen)

	id := jobs.Start(context.Background(), Request{Map: "ChernarusPlus-Top", Zoom: 1})
	require.NotEmpty(t, id)

	job := waitForJob(t, jobs, id)
	assert.Equal(t, JobDone, job.State)
	assert.Equal(t, 4, job.Progress.Total)
	assert.Equal(t, 4, job.Progress.Done)
	require.NotNil(t, job.Result)
	assert.Equal(t, "DayZ_Map_ChernarusPlus-Top_1.png", job.Result.Filename)

	data, filename, ok := jobs.Image(id)
	require.True(t, ok)
	assert.NotEmpty(t, data)
	assert.Equal(t, "DayZ_Map_ChernarusPlus-Top_1.png", filename)
}

func TestJobFailure(t *testing.T) {
	gen, _ := newTestGenerator(t, nil)
	jobs := NewJobStore(gen)

	id := jobs.Start(context.Background(), Request{Map: "Atlantis-Top", Zoom: 1})

	job := waitForJob(t, jobs, id)
	assert.Equal(t, JobFailed, job.State)
	assert.NotEmpty(t, job.Error)

	_, _, ok := jobs.Image(id)
	assert.False(t, ok)
}

func TestNewJobClearsPreviousResult(t *testing.T) {
	gen, _ := newTestGenerator(t, nil)
	jobs := NewJobStore(gen)

	first := jobs.Start(context.Background(), Request{Map: "Livonia-Top", Zoom: 1})
	waitForJob(t, jobs, first)

	_, _, ok := jobs.Image(first)
	require.True(t, ok)

	second := jobs.Start(context.Background(), Request{Map: "Livonia-Sat", Zoom: 1})

	// The previous generation is gone as soon as a new one is triggered.
	_, _, ok = jobs.Image(first)
	assert.False(t, ok)

	job := waitForJob(t, jobs, second)
	assert.Equal(t, JobDone, job.State)

	_, _, ok = jobs.Image(second)
	assert.True(t, ok)
}

func TestJobUnknownID(t *testing.T) {
	gen, _ := newTestGenerator(t, nil)
	jobs := NewJobStore(gen)

	_, ok := jobs.Get("nope")
	assert.False(t, ok)

	_, _, ok = jobs.Image("nope")
	assert.False(t, ok)
}
