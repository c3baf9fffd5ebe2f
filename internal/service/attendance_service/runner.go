package attendance_service

import (
	"context"
	"log"
	"sync"
)

// job is one queued reconciliation run.
type job struct {
	sessionKey string
	roster     []string
	imageRefs  []string
}

// runner executes reconciliations detached from the submitting request: a
// fixed worker pool draining a buffered channel. There is no status
// surface; effects land in the attendance marks and the log.
type runner struct {
	svc  *AttendanceService
	jobs chan job
	wg   sync.WaitGroup
}

func startRunner(svc *AttendanceService, workers, queueSize int) *runner {
	r := &runner{
		svc:  svc,
		jobs: make(chan job, queueSize),
	}

	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer r.wg.Done()
			for j := range r.jobs {
				r.run(j)
			}
		}()
	}

	return r
}

// submit enqueues the job. When the queue is full the job runs on its own
// goroutine instead, so the caller's acknowledgment is never delayed.
func (r *runner) submit(j job) {
	select {
	case r.jobs <- j:
	default:
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.run(j)
		}()
	}
}

func (r *runner) run(j job) {

	log.Printf("session %s: reconciling %d identities over %d images", j.sessionKey, len(j.roster), len(j.imageRefs))

	outcome, err := r.svc.ReconcileRefs(context.Background(), j.sessionKey, j.roster, j.imageRefs)
	if err != nil {
		// Per-identity upserts are independently safe to leave incomplete;
		// a future rerun converges.
		log.Printf("session %s: reconciliation failed: %v", j.sessionKey, err)
		return
	}

	log.Printf("session %s: done, %d present, %d absent", j.sessionKey, len(outcome.Present), len(outcome.Absent))
}

// close stops accepting work and waits for in-flight runs.
func (r *runner) close() {
	close(r.jobs)
	r.wg.Wait()
}
