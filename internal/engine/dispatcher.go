package engine

import (
	"context"
	"hash/maphash"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/placebreak/internal/location"
)

// DefaultWorkers is the number of dispatcher shards when none is given.
const DefaultWorkers = 4

// Task is the handle for a dispatched mutation.
type Task struct {
	done chan struct{}
	err  error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

func (t *Task) finish(err error) {
	t.err = err
	close(t.done)
}

// Done is closed once the task has run.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task has run or ctx is done, and returns the task's
// error or ctx.Err().
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatcher runs engine mutations off the caller's goroutine.
//
// Mutations are sharded by location. Any two tasks touching a common
// location run in submission order; tasks on different shards run in
// parallel. A move touches every source and destination of its blocks, so
// it is queued on each shard those locations map to and runs once every one
// of those workers has reached it.
//
// Lifecycle: NewDispatcher -> Run (in its own goroutine) -> Stop. Tasks
// submitted before Run are queued; tasks submitted after Stop fail with
// ErrDispatcherStopped. Stop lets queued tasks finish.
type Dispatcher struct {
	engine *Engine
	shards []*jobQueue
	seed   maphash.Seed
	logger *slog.Logger

	// mu makes a multi-shard enqueue atomic with respect to other
	// enqueues and to Stop, so every shard sees the same relative order.
	mu      sync.Mutex
	stopped bool
}

// NewDispatcher creates a dispatcher with the given number of workers.
// Values below 1 use DefaultWorkers.
func NewDispatcher(e *Engine, workers int) *Dispatcher {
	if workers < 1 {
		workers = DefaultWorkers
	}
	shards := make([]*jobQueue, workers)
	for i := range shards {
		shards[i] = newJobQueue()
	}
	return &Dispatcher{
		engine: e,
		shards: shards,
		seed:   maphash.MakeSeed(),
		logger: e.logger,
	}
}

// Run starts one worker per shard and blocks until every worker has exited.
// Workers exit once Stop has been called and their queue is drained, or
// when ctx is cancelled; in that case remaining tasks run with the
// cancelled context and fail fast.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher starting", "workers", len(d.shards))

	g, gctx := errgroup.WithContext(ctx)
	for _, q := range d.shards {
		g.Go(func() error {
			d.work(gctx, q)
			return nil
		})
	}
	err := g.Wait()

	if ctx.Err() != nil {
		d.logger.Info("dispatcher stopping: context cancelled")
		return ctx.Err()
	}
	d.logger.Info("dispatcher stopped")
	return err
}

// Stop closes every shard. Already queued tasks still run.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	for _, q := range d.shards {
		q.Close()
	}
}

func (d *Dispatcher) work(ctx context.Context, q *jobQueue) {
	for {
		if j, ok := q.TryDequeue(); ok {
			d.execute(ctx, j)
			continue
		}

		select {
		case <-ctx.Done():
			// Closing makes Wait fire immediately, so the remaining jobs
			// drain through TryDequeue above. Every shard closes at once so
			// a move queued on several shards is never left half-queued.
			d.Stop()
			if q.Drained() {
				return
			}
		case <-q.Wait():
			if q.Drained() {
				return
			}
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, j job) {
	if j.barrier != nil && !j.barrier.arrive() {
		// Another shard's worker runs the task once all have arrived.
		<-j.task.Done()
		return
	}

	err := j.run(ctx)
	if err != nil {
		err = &TaskError{Op: j.op, Location: j.loc, Err: err}
		d.logger.Error("tag task failed",
			"op", j.op,
			"location", j.loc.String(),
			"error", err)
	}
	j.task.finish(err)
}

func (d *Dispatcher) shard(loc location.BlockLocation) int {
	h := maphash.Comparable(d.seed, loc)
	return int(h % uint64(len(d.shards)))
}

// shardsFor returns the sorted, distinct shards owning locs.
func (d *Dispatcher) shardsFor(locs []location.BlockLocation) []int {
	out := make([]int, 0, len(locs))
	for _, loc := range locs {
		out = append(out, d.shard(loc))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// submit queues run on every shard owning one of touched. The first
// location names the task in errors and logs.
func (d *Dispatcher) submit(op string, touched []location.BlockLocation, run func(context.Context) error) *Task {
	t := newTask()
	j := job{op: op, loc: touched[0], run: run, task: t}

	shards := d.shardsFor(touched)
	if len(shards) > 1 {
		j.barrier = newBarrier(len(shards))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		t.finish(&TaskError{Op: op, Location: j.loc, Err: ErrDispatcherStopped})
		return t
	}
	for _, i := range shards {
		// Shards only close under d.mu, so this cannot fail here.
		d.shards[i].Enqueue(j)
	}
	return t
}

// PutTag queues Engine.PutTag.
func (d *Dispatcher) PutTag(block location.Block, ephemeral bool) *Task {
	return d.submit("put", []location.BlockLocation{block.Location}, func(ctx context.Context) error {
		return d.engine.PutTag(ctx, block, ephemeral)
	})
}

// RemoveTag queues Engine.RemoveTag.
func (d *Dispatcher) RemoveTag(block location.Block) *Task {
	return d.submit("remove", []location.BlockLocation{block.Location}, func(ctx context.Context) error {
		return d.engine.RemoveTag(ctx, block)
	})
}

// MoveTags queues Engine.MoveTags. The task is ordered against every task
// touching one of the blocks or one of their destinations.
func (d *Dispatcher) MoveTags(blocks []location.Block, direction location.BlockVector) *Task {
	touched := make([]location.BlockLocation, 0, 2*len(blocks)+1)
	for _, b := range blocks {
		touched = append(touched, b.Location, b.Location.Add(direction))
	}
	if len(touched) == 0 {
		touched = append(touched, location.BlockLocation{})
	}
	blocks = append([]location.Block(nil), blocks...)
	return d.submit("move", touched, func(ctx context.Context) error {
		return d.engine.MoveTags(ctx, blocks, direction)
	})
}

// barrier holds a multi-shard task until every owning worker has reached it.
type barrier struct {
	mu      sync.Mutex
	pending int
}

func newBarrier(n int) *barrier {
	return &barrier{pending: n}
}

// arrive reports whether the caller is the last worker to reach the barrier.
func (b *barrier) arrive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending--
	return b.pending == 0
}
