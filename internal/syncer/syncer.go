// Package syncer runs remote writes in issue order on a single worker.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults.
const (
	DefaultTimeout = 15 * time.Second
	eventBuffer    = 64
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("syncer closed")

// Kind classifies an Event.
type Kind string

const (
	// EventFailed reports a remote operation that returned an error.
	EventFailed Kind = "failed"
	// EventSynced reports a remote operation that completed.
	EventSynced Kind = "synced"
)

// Event describes the outcome of a remote operation.
type Event struct {
	Kind  Kind
	Op    string
	Table string
	ID    string
	Err   error
	At    time.Time
}

// Job is one remote operation.
type Job struct {
	Op    string
	Table string
	ID    string
	Run   func(ctx context.Context) error

	barrier chan struct{}
}

// Options configure a Syncer.
type Options struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

// Syncer drains a FIFO of jobs with one goroutine. Failed jobs are not retried.
// The queue is unbounded so callers never wait on the remote side.
type Syncer struct {
	events  chan Event
	timeout time.Duration
	log     *zap.Logger

	mu     sync.Mutex
	queue  []Job
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// New starts the worker.
func New(opts Options) *Syncer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Syncer{
		events:  make(chan Event, eventBuffer),
		timeout: opts.Timeout,
		log:     opts.Logger.Named("syncer"),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.loop()
	return s
}

// Events returns the outcome stream. Events are dropped when nobody reads.
func (s *Syncer) Events() <-chan Event {
	return s.events
}

// Publish emits an event that did not come from a queued job.
func (s *Syncer) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case s.events <- ev:
	default:
		s.log.Debug("event dropped", zap.String("op", ev.Op), zap.String("table", ev.Table))
	}
}

// Enqueue appends a job and returns at once.
func (s *Syncer) Enqueue(j Job) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.queue = append(s.queue, j)
	s.mu.Unlock()
	s.signal()
	return nil
}

// Pending returns the number of queued jobs not yet started.
func (s *Syncer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.queue {
		if j.barrier == nil {
			n++
		}
	}
	return n
}

// Flush waits until every job enqueued before the call has run.
func (s *Syncer) Flush(ctx context.Context) error {
	b := make(chan struct{})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.queue = append(s.queue, Job{barrier: b})
	s.mu.Unlock()
	s.signal()

	select {
	case <-b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close runs the remaining jobs and stops the worker.
func (s *Syncer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
	<-s.done
}

func (s *Syncer) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// next pops the head of the queue, waiting for work. ok is false once the
// syncer is closed and drained.
func (s *Syncer) next() (j Job, ok bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			j = s.queue[0]
			s.queue[0] = Job{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return j, true
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return Job{}, false
		}
		<-s.wake
	}
}

func (s *Syncer) loop() {
	defer close(s.done)
	for {
		j, ok := s.next()
		if !ok {
			return
		}
		if j.barrier != nil {
			close(j.barrier)
			continue
		}
		s.run(j)
	}
}

func (s *Syncer) run(j Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := j.Run(ctx)
	ev := Event{Kind: EventSynced, Op: j.Op, Table: j.Table, ID: j.ID, Err: err}
	if err != nil {
		ev.Kind = EventFailed
		s.log.Warn("remote write failed",
			zap.String("op", j.Op),
			zap.String("table", j.Table),
			zap.String("id", j.ID),
			zap.Error(err),
		)
	} else {
		s.log.Debug("remote write",
			zap.String("op", j.Op),
			zap.String("table", j.Table),
			zap.Duration("dur", time.Since(start)),
		)
	}
	s.Publish(ev)
}
