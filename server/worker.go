package server

import (
	"strconv"
	"sync"

	"github.com/Meulengracht/gracht/arena"
	"github.com/Meulengracht/gracht/link"
	"github.com/Meulengracht/gracht/metrics"
	"github.com/Meulengracht/gracht/queue"
	"github.com/Meulengracht/gracht/wire"
)

// workerState mirrors spec §3's Worker.state: {Startup, Alive,
// ShutdownRequest, Shutdown}.
type workerState int32

const (
	workerStartup workerState = iota
	workerAlive
	workerShutdownRequest
	workerShutdown
)

// job is one dispatched message handed from the server's receive path
// to a worker's queue.
type job struct {
	client    link.Handle
	linkIndex int
	header    wire.Header
	alloc     *arena.Allocation
}

// worker owns a bounded FIFO job queue and runs handlers for jobs
// dispatched to it. The queue itself (package queue) is not internally
// synchronized, per spec §4.8; worker.mu is the external lock the spec
// assumes, and signal is the channel-based stand-in for the "condition"
// the spec pairs with it — the teacher's tree never reaches for
// sync.Cond, so an enqueue-counted semaphore channel plays the same
// role here.
type worker struct {
	id     int
	server *Server

	mu    sync.Mutex
	q     *queue.Queue[*job]
	state workerState

	signal  chan struct{}
	done    chan struct{}
	drained chan struct{}
}

func newWorker(id int, s *Server, depth int) *worker {
	return &worker{
		id:      id,
		server:  s,
		q:       queue.New[*job](depth),
		state:   workerStartup,
		signal:  make(chan struct{}, depth),
		done:    make(chan struct{}),
		drained: make(chan struct{}),
	}
}

// enqueue attempts to add j to this worker's queue, returning false if
// the queue is at capacity.
func (w *worker) enqueue(j *job) bool {
	w.mu.Lock()
	ok := w.q.Enqueue(j)
	depth := w.q.Len()
	w.mu.Unlock()
	if !ok {
		return false
	}
	metrics.WorkerQueueDepth.WithLabelValues(labelFor(w.id)).Set(float64(depth))
	select {
	case w.signal <- struct{}{}:
	default:
	}
	return true
}

// run is the worker loop (spec §4.5): wait for a signal, drain exactly
// one job per signal, invoke its handler, return its buffer to the
// arena. On done, drain remaining jobs cleanup-only and exit.
func (w *worker) run() {
	w.state = workerAlive
	for {
		select {
		case <-w.signal:
			w.handleOne(true)
		case <-w.done:
			w.state = workerShutdownRequest
			w.drainCleanupOnly()
			w.state = workerShutdown
			close(w.drained)
			return
		}
	}
}

func (w *worker) handleOne(invoke bool) {
	w.mu.Lock()
	j, ok := w.q.Dequeue()
	depth := w.q.Len()
	w.mu.Unlock()
	if !ok {
		return
	}
	metrics.WorkerQueueDepth.WithLabelValues(labelFor(w.id)).Set(float64(depth))
	if invoke {
		w.server.invokeAction(j)
	}
	w.server.cleanupMessage(j)
}

func (w *worker) drainCleanupOnly() {
	for {
		w.mu.Lock()
		j, ok := w.q.Dequeue()
		w.mu.Unlock()
		if !ok {
			return
		}
		w.server.cleanupMessage(j)
	}
}

func (w *worker) shutdown() {
	close(w.done)
	<-w.drained
}

func labelFor(id int) string {
	return strconv.Itoa(id)
}
