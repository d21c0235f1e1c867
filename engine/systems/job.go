package systems

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/rendergraph/engine/core"
)

/**
 * @brief Describes a job to be run on the worker pool.
 */
type Job struct {
	/** @brief Used in log lines. */
	Name string
	/** @brief The work itself. Required. */
	Run func() error
	/** @brief Invoked when Run succeeded. Optional. */
	OnComplete func()
	/** @brief Invoked with the error when Run failed. Optional. */
	OnFailure func(err error)
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan Job
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	jq := make(chan Job, channelSize)
	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   jq,
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.execute(job)
			}
		}()
	}
}

func (js *JobSystem) execute(job Job) {
	if job.Run == nil {
		return
	}
	if err := job.Run(); err != nil {
		core.LogError("job '%s' failed: %s", job.Name, err.Error())
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

/**
 * @brief Shuts the job system down, waiting for queued jobs to finish.
 */
func (js *JobSystem) Shutdown() error {
	js.closeOnce.Do(func() {
		close(js.jobQueue)
	})
	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution.
 * @param job The description of the job to be executed.
 */
func (js *JobSystem) Submit(job Job) {
	js.jobQueue <- job
}

// RunAll submits every job and blocks until all of them finished. The errors
// of failed jobs are joined.
func (js *JobSystem) RunAll(jobs []Job) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	wg.Add(len(jobs))
	for _, job := range jobs {
		job := job
		onComplete, onFailure := job.OnComplete, job.OnFailure
		job.OnComplete = func() {
			defer wg.Done()
			if onComplete != nil {
				onComplete()
			}
		}
		job.OnFailure = func(err error) {
			defer wg.Done()
			mu.Lock()
			errs = append(errs, fmt.Errorf("%s: %w", job.Name, err))
			mu.Unlock()
			if onFailure != nil {
				onFailure(err)
			}
		}
		if job.Run == nil {
			wg.Done()
			continue
		}
		js.Submit(job)
	}
	wg.Wait()
	return errors.Join(errs...)
}
