package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"mapstitch/internal/fetch"
)

type JobState string

const (
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// JobProgress is the last observed batch progress, safe to serve while the
// job is still running.
type JobProgress struct {
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

type Job struct {
	ID        string      `json:"id"`
	Map       string      `json:"map"`
	Zoom      int         `json:"zoom"`
	State     JobState    `json:"state"`
	Progress  JobProgress `json:"progress"`
	Error     string      `json:"error,omitempty"`
	Result    *Result     `json:"result,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// JobStore holds the UI session state: the running generation and the last
// finished result. Starting a new job clears previous results, so the
// downloadable image always belongs to the latest trigger.
type JobStore struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	current string
	gen     *Generator
}

func NewJobStore(gen *Generator) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		gen:  gen,
	}
}

// Start launches a generation in the background and returns its job id.
func (s *JobStore) Start(ctx context.Context, req Request) string {
	s.mu.Lock()
	// Clear previous results on a new trigger; finished entries with no
	// image left to serve are dropped entirely.
	for id, job := range s.jobs {
		if job.State != JobRunning {
			delete(s.jobs, id)
		} else {
			job.Result = nil
		}
	}

	job := &Job{
		ID:        uuid.New().String(),
		Map:       req.Map,
		Zoom:      req.Zoom,
		State:     JobRunning,
		CreatedAt: time.Now(),
	}
	s.jobs[job.ID] = job
	s.current = job.ID
	s.mu.Unlock()

	go s.run(ctx, job.ID, req)

	return job.ID
}

func (s *JobStore) run(ctx context.Context, id string, req Request) {
	obs := func(p fetch.Progress) {
		s.mu.Lock()
		if job, ok := s.jobs[id]; ok {
			job.Progress = JobProgress{
				Done:    p.Done,
				Total:   p.Total,
				Message: progressMessage(p),
			}
		}
		s.mu.Unlock()
	}

	result, err := s.gen.Run(ctx, req, obs)

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return
	}
	if err != nil {
		job.State = JobFailed
		job.Error = err.Error()
		return
	}
	job.State = JobDone
	// A job that was superseded while running keeps its stats but not the
	// image; the downloadable result always belongs to the latest trigger.
	if s.current == id {
		job.Result = result
	}
}

// Get returns a snapshot of the job. The PNG payload is kept out of the
// JSON form; clients fetch it through Image.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}

	snapshot := *job
	return snapshot, true
}

// Image returns the finished PNG and its download filename.
func (s *JobStore) Image(id string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.State != JobDone || job.Result == nil {
		return nil, "", false
	}

	return job.Result.PNG, job.Result.Filename, true
}

func progressMessage(p fetch.Progress) string {
	switch p.Status {
	case fetch.StatusHit:
		return fmt.Sprintf("tile %d,%d already stored, skipping", p.X, p.Y)
	case fetch.StatusFetched:
		return fmt.Sprintf("tile %d,%d downloaded", p.X, p.Y)
	default:
		return fmt.Sprintf("tile %d,%d failed", p.X, p.Y)
	}
}
