package simulation

// plan describes how a run is split across workers.
type plan struct {
	workers     int
	perWorker   int
	total       int // requested trials rounded up to a multiple of workers
	granularity int // per-worker progress reporting step, percent
}

// partition rounds the requested trial count up to the next multiple of
// the worker count (never down; executed trials are always >= the
// request) and derives equal per-worker shares.
func partition(requested, workers int) plan {
	total := requested
	if rem := total % workers; rem != 0 {
		total += workers - rem
	}
	return plan{
		workers:     workers,
		perWorker:   total / workers,
		total:       total,
		granularity: granularityFor(workers),
	}
}

// granularityFor selects how often each worker recomputes its own
// progress. Fewer workers report finer steps so the combined progress
// still moves visibly.
func granularityFor(workers int) int {
	switch workers {
	case 1, 2:
		return 10
	case 3, 4:
		return 20
	default:
		return 25
	}
}
