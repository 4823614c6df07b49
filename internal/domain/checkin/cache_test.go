package checkin_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rpggio/challengr/internal/domain/calendar"
	"github.com/rpggio/challengr/internal/domain/checkin"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu      sync.Mutex
	creates int
	deletes int
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeRemote) call(ctx context.Context, counter *int) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	*counter++
	return f.err
}

func (f *fakeRemote) Create(ctx context.Context, _ string, _ calendar.Date) error {
	return f.call(ctx, &f.creates)
}

func (f *fakeRemote) Delete(ctx context.Context, _ string, _ calendar.Date) error {
	return f.call(ctx, &f.deletes)
}

var d1 = calendar.MustParse("2024-01-03")

func TestToggle_TwiceRestoresValue(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	c := checkin.NewCache(remote, nil)

	got, err := c.Toggle(ctx, d1, "a1")
	require.NoError(t, err)
	require.True(t, got)
	require.True(t, c.Get(d1, "a1"))
	require.Equal(t, checkin.StateConfirmed, c.State(d1, "a1"))

	got, err = c.Toggle(ctx, d1, "a1")
	require.NoError(t, err)
	require.False(t, got)
	require.False(t, c.Get(d1, "a1"))
	require.Equal(t, 1, remote.creates)
	require.Equal(t, 1, remote.deletes)
}

func TestToggle_StartingCheckedDeletesFirst(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	c := checkin.NewCache(remote, nil)
	c.Set(d1, "a1", true)

	_, err := c.Toggle(ctx, d1, "a1")
	require.NoError(t, err)
	require.Equal(t, 0, remote.creates)
	require.Equal(t, 1, remote.deletes)
	_, err = c.Toggle(ctx, d1, "a1")
	require.NoError(t, err)
	require.True(t, c.Get(d1, "a1"))
	require.Equal(t, 1, remote.creates)
}

func TestToggle_RollbackOnFailure(t *testing.T) {
	ctx := context.Background()
	remoteErr := errors.New("503 service unavailable")
	remote := &fakeRemote{err: remoteErr}
	c := checkin.NewCache(remote, nil)

	got, err := c.Toggle(ctx, d1, "a1")
	require.ErrorIs(t, err, remoteErr)
	require.False(t, got)
	require.False(t, c.Get(d1, "a1"))
	require.Equal(t, checkin.StateRolledBack, c.State(d1, "a1"))

	c.Set(d1, "a2", true)
	_, err = c.Toggle(ctx, d1, "a2")
	require.Error(t, err)
	require.True(t, c.Get(d1, "a2"))
}

func TestToggle_PendingIsVisibleBeforeRemoteReturns(t *testing.T) {
	remote := &fakeRemote{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	c := checkin.NewCache(remote, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Toggle(context.Background(), d1, "a1")
		done <- err
	}()

	<-remote.entered
	require.True(t, c.Get(d1, "a1"))
	require.Equal(t, checkin.StatePending, c.State(d1, "a1"))

	close(remote.block)
	require.NoError(t, <-done)
	require.Equal(t, checkin.StateConfirmed, c.State(d1, "a1"))
}

func TestToggle_RollbackDoesNotClobberNewerWrite(t *testing.T) {
	remote := &fakeRemote{block: make(chan struct{}), entered: make(chan struct{}, 1), err: errors.New("timeout")}
	c := checkin.NewCache(remote, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Toggle(context.Background(), d1, "a1")
		done <- err
	}()
	<-remote.entered
	c.Set(d1, "a1", true)
	close(remote.block)

	require.Error(t, <-done)
	require.True(t, c.Get(d1, "a1"))
	require.Equal(t, checkin.StateConfirmed, c.State(d1, "a1"))
}

func TestToggle_ClosedCache(t *testing.T) {
	c := checkin.NewCache(&fakeRemote{}, nil)
	c.Close()
	_, err := c.Toggle(context.Background(), d1, "a1")
	require.ErrorIs(t, err, checkin.ErrClosed)
}

func TestLoad_StoresResultsAndFailures(t *testing.T) {
	c := checkin.NewCache(&fakeRemote{}, nil)
	keys := []checkin.Key{{ActivityID: "a1", Date: d1}, {ActivityID: "a2", Date: d1}, {ActivityID: "a3", Date: d1}}

	var calls atomic.Int32
	err := c.Load(context.Background(), keys, 2, func(_ context.Context, id string, _ calendar.Date) (bool, error) {
		calls.Add(1)
		switch id {
		case "a1":
			return true, nil
		case "a2":
			return false, errors.New("boom")
		default:
			return false, nil
		}
	})
	require.NoError(t, err)
	require.EqualValues(t, 3, calls.Load())
	require.Equal(t, map[string]bool{"a1": true, "a2": false, "a3": false}, c.Day(d1))
	require.True(t, c.Known(d1, "a1"))
	require.False(t, c.Known(d1, "a2"))
	require.Equal(t, checkin.StateLoadFailed, c.State(d1, "a2"))
}

func TestLoad_AfterCloseIsDropped(t *testing.T) {
	c := checkin.NewCache(&fakeRemote{}, nil)
	release := make(chan struct{})
	started := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- c.Load(context.Background(), []checkin.Key{{ActivityID: "a1", Date: d1}}, 1,
			func(context.Context, string, calendar.Date) (bool, error) {
				close(started)
				<-release
				return true, nil
			})
	}()

	<-started
	c.Close()
	close(release)
	require.ErrorIs(t, <-done, checkin.ErrClosed)
	require.False(t, c.Get(d1, "a1"))
	require.False(t, c.Known(d1, "a1"))
}

func TestLoad_CanceledContext(t *testing.T) {
	c := checkin.NewCache(&fakeRemote{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Load(ctx, []checkin.Key{{ActivityID: "a1", Date: d1}}, 0,
		func(context.Context, string, calendar.Date) (bool, error) { return true, nil })
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, c.Get(d1, "a1"))
}

func TestLoad_DoesNotOverwriteNewerToggle(t *testing.T) {
	c := checkin.NewCache(&fakeRemote{}, nil)
	release := make(chan struct{})
	started := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- c.Load(context.Background(), []checkin.Key{{ActivityID: "a1", Date: d1}}, 1,
			func(context.Context, string, calendar.Date) (bool, error) {
				close(started)
				<-release
				return false, nil
			})
	}()

	<-started
	_, err := c.Toggle(context.Background(), d1, "a1")
	require.NoError(t, err)
	close(release)
	require.NoError(t, <-done)
	require.True(t, c.Get(d1, "a1"))
}

func TestViews_OpenClosesPrevious(t *testing.T) {
	views := checkin.NewViews(&fakeRemote{}, nil)
	first := views.Open("s1")
	require.Same(t, first, views.Current("s1"))

	second := views.Open("s1")
	require.True(t, first.Closed())
	require.False(t, second.Closed())
	require.Same(t, second, views.Current("s1"))

	other := views.Current("s2")
	require.NotSame(t, second, other)
	require.Equal(t, 2, views.Len())

	views.Close("s1")
	require.True(t, second.Closed())
	require.Equal(t, 1, views.Len())
}

func TestViews_EvictIdle(t *testing.T) {
	views := checkin.NewViews(&fakeRemote{}, nil)
	stale := views.Open("s1")
	cutoff := time.Now().Add(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	fresh := views.Open("s2")

	require.Equal(t, 1, views.EvictIdle(cutoff))
	require.True(t, stale.Closed())
	require.False(t, fresh.Closed())
	require.Equal(t, 1, views.Len())

	// Current counts as use and returns a new cache for an evicted key.
	require.NotSame(t, stale, views.Current("s1"))
	require.Zero(t, views.EvictIdle(time.Now().Add(-time.Hour)))
	require.Equal(t, 2, views.EvictIdle(time.Now().Add(time.Hour)))
	require.True(t, fresh.Closed())
	require.Zero(t, views.Len())
}
