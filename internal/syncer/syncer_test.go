package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSyncer_RunsInOrder(t *testing.T) {
	t.Parallel()

	s := New(Options{Logger: zaptest.NewLogger(t)})
	defer s.Close()

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Enqueue(Job{Op: "insert", Table: "units", Run: func(context.Context) error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 20)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestSyncer_FailureEvent(t *testing.T) {
	t.Parallel()

	s := New(Options{Logger: zaptest.NewLogger(t)})
	defer s.Close()

	boom := errors.New("boom")
	require.NoError(t, s.Enqueue(Job{Op: "delete", Table: "foods", ID: "f1", Run: func(context.Context) error { return boom }}))
	require.NoError(t, s.Enqueue(Job{Op: "update", Table: "foods", ID: "f2", Run: func(context.Context) error { return nil }}))

	first := <-s.Events()
	require.Equal(t, EventFailed, first.Kind)
	require.ErrorIs(t, first.Err, boom)
	require.Equal(t, "f1", first.ID)

	second := <-s.Events()
	require.Equal(t, EventSynced, second.Kind)
	require.Equal(t, "f2", second.ID)
}

func TestSyncer_TimeoutPerJob(t *testing.T) {
	t.Parallel()

	s := New(Options{Logger: zaptest.NewLogger(t), Timeout: 20 * time.Millisecond})
	defer s.Close()

	require.NoError(t, s.Enqueue(Job{Op: "select", Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}))

	ev := <-s.Events()
	require.Equal(t, EventFailed, ev.Kind)
	require.ErrorIs(t, ev.Err, context.DeadlineExceeded)
}

func TestSyncer_FlushHonoursContext(t *testing.T) {
	t.Parallel()

	s := New(Options{Logger: zaptest.NewLogger(t)})
	release := make(chan struct{})
	require.NoError(t, s.Enqueue(Job{Run: func(context.Context) error { <-release; return nil }}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)

	close(release)
	s.Close()
}

func TestSyncer_CloseDrainsAndRejects(t *testing.T) {
	t.Parallel()

	s := New(Options{Logger: zaptest.NewLogger(t)})
	ran := make(chan struct{}, 1)
	require.NoError(t, s.Enqueue(Job{Run: func(context.Context) error { ran <- struct{}{}; return nil }}))
	s.Close()
	s.Close()

	select {
	case <-ran:
	default:
		t.Fatalf("queued job was not run before close")
	}
	require.ErrorIs(t, s.Enqueue(Job{Run: func(context.Context) error { return nil }}), ErrClosed)
	require.NoError(t, s.Flush(context.Background()))
}

func TestSyncer_PublishDoesNotBlock(t *testing.T) {
	t.Parallel()

	s := New(Options{Logger: zaptest.NewLogger(t)})
	defer s.Close()

	for i := 0; i < eventBuffer*2; i++ {
		s.Publish(Event{Kind: EventFailed, Op: "select"})
	}
	require.Len(t, s.Events(), eventBuffer)
}

func TestSyncer_EnqueueNeverBlocks(t *testing.T) {
	t.Parallel()

	s := New(Options{Logger: zaptest.NewLogger(t)})
	release := make(chan struct{})
	defer func() {
		close(release)
		s.Close()
	}()

	hung := func(context.Context) error {
		<-release
		return nil
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			_ = s.Enqueue(Job{Op: "insert", Table: "meal_items", Run: hung})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked behind a hung job")
	}
	require.GreaterOrEqual(t, s.Pending(), 999)
}

func TestSyncer_CloseDrainsQueue(t *testing.T) {
	t.Parallel()

	s := New(Options{Logger: zaptest.NewLogger(t)})

	var (
		mu  sync.Mutex
		ran int
	)
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Enqueue(Job{Op: "update", Table: "water_logs", Run: func(context.Context) error {
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		}}))
	}
	s.Close()
	s.Close()

	mu.Lock()
	require.Equal(t, 50, ran)
	mu.Unlock()
	require.ErrorIs(t, s.Enqueue(Job{Run: func(context.Context) error { return nil }}), ErrClosed)
	require.NoError(t, s.Flush(context.Background()))
}
