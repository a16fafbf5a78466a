package gpio

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/cenkalti/backoff/v4"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/panjf2000/ants/v2"
)

// Event is a handled interrupt as seen by observers.
type Event = Sample

// Listener receives handled-interrupt events. Listeners run on the
// dispatcher's worker pool, never on the interrupt cycle's goroutine, and
// see only copied values; they cannot touch the register window or delay
// acknowledgment.
type Listener func(Event)

var (
	// ErrDispatcherClosed is returned by Post after Close.
	ErrDispatcherClosed = errors.New("gpio: dispatcher closed")
	// ErrEventDropped is returned by Post when the queue stays full past
	// the retry budget. The event is lost; the interrupt was still
	// acknowledged.
	ErrEventDropped = errors.New("gpio: event queue full, dropped")
)

const (
	// postRetryInterval spaces the brief retries Post makes on a full
	// queue before giving up.
	postRetryInterval = time.Millisecond
	postMaxRetries    = 8

	drainPollTimeout = 100 * time.Millisecond
)

// Dispatcher fans handled interrupts out to subscribed listeners through a
// bounded queue drained by a single goroutine. Overflow drops events rather
// than stalling the poster.
type Dispatcher struct {
	q         *queue.Queue
	cap       int64
	listeners cmap.ConcurrentMap[string, Listener]
	pool      *ants.Pool
	closed    atomic.Bool
	done      chan struct{}
	dropped   atomic.Uint64
}

// NewDispatcher starts a dispatcher with the given queue capacity and
// worker pool size.
func NewDispatcher(queueCap, workers int) (*Dispatcher, error) {
	if queueCap <= 0 || workers <= 0 {
		return nil, fmt.Errorf("gpio: dispatcher needs positive capacity and workers (got %d, %d)", queueCap, workers)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("gpio: dispatcher pool: %w", err)
	}
	d := &Dispatcher{
		q:         queue.New(int64(queueCap)),
		cap:       int64(queueCap),
		listeners: cmap.New[Listener](),
		pool:      pool,
		done:      make(chan struct{}),
	}
	go d.drain()
	return d, nil
}

// Subscribe registers fn under name, replacing any previous listener with
// that name.
func (d *Dispatcher) Subscribe(name string, fn Listener) {
	d.listeners.Set(name, fn)
}

// Unsubscribe removes the listener registered under name.
func (d *Dispatcher) Unsubscribe(name string) {
	d.listeners.Remove(name)
}

// Post enqueues ev for delivery. On a full queue it retries briefly, then
// drops the event and returns ErrEventDropped. Post never blocks past the
// retry budget.
func (d *Dispatcher) Post(ev Event) error {
	if d.closed.Load() {
		return ErrDispatcherClosed
	}
	op := func() error {
		if d.closed.Load() {
			return backoff.Permanent(ErrDispatcherClosed)
		}
		if d.q.Len() >= d.cap {
			return ErrEventDropped
		}
		if err := d.q.Put(ev); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrDispatcherClosed, err))
		}
		return nil
	}
	err := backoff.Retry(op, backoff.WithMaxRetries(
		backoff.NewConstantBackOff(postRetryInterval), postMaxRetries))
	if errors.Is(err, ErrEventDropped) {
		d.dropped.Add(1)
	}
	return err
}

// Dropped reports how many events overflow has discarded.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Close stops the drain loop, disposes the queue, and releases the pool.
// Events still queued are discarded.
func (d *Dispatcher) Close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	d.q.Dispose()
	<-d.done
	d.pool.Release()
}

func (d *Dispatcher) drain() {
	defer close(d.done)
	for {
		items, err := d.q.Poll(1, drainPollTimeout)
		if err == queue.ErrDisposed {
			return
		}
		if err != nil || len(items) == 0 {
			// Poll timeout, go around and check for disposal.
			continue
		}
		ev, ok := items[0].(Event)
		if !ok {
			continue
		}
		d.listeners.IterCb(func(name string, fn Listener) {
			if submitErr := d.pool.Submit(func() { fn(ev) }); submitErr != nil {
				// Pool released mid-shutdown; deliver inline.
				fn(ev)
			}
		})
	}
}
