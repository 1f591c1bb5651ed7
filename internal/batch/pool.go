package batch

import (
	"runtime"
	"sync"
)

// WorkerPool distributes jobs across a fixed set of workers and collects
// their results. It is a one-shot pool: submit, close, drain.
type WorkerPool[Job any, Result any] struct {
	numWorkers int
	jobs       chan Job
	results    chan Result
	wg         sync.WaitGroup
}

// NewWorkerPool creates a pool with the given number of workers. A
// non-positive numWorkers defaults to the CPU count, and the pool never
// runs more workers than there are jobs.
func NewWorkerPool[Job any, Result any](numWorkers, numJobs int) *WorkerPool[Job, Result] {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numJobs > 0 && numJobs < numWorkers {
		numWorkers = numJobs
	}

	return &WorkerPool[Job, Result]{
		numWorkers: numWorkers,
		jobs:       make(chan Job, numJobs),
		results:    make(chan Result, numJobs),
	}
}

// Start launches the workers, each invoking workerFn per job.
func (p *WorkerPool[Job, Result]) Start(workerFn func(Job) Result) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.results <- workerFn(job)
			}
		}()
	}
}

// Submit queues one job.
func (p *WorkerPool[Job, Result]) Submit(job Job) {
	p.jobs <- job
}

// Close signals that no more jobs will arrive. The results channel closes
// once every worker has finished.
func (p *WorkerPool[Job, Result]) Close() {
	close(p.jobs)
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Results returns the channel of worker outputs.
func (p *WorkerPool[Job, Result]) Results() <-chan Result {
	return p.results
}
