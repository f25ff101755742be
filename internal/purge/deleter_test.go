package purge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"regreddit/internal/metrics"
	"regreddit/internal/models"
)

func TestDeleterDeletesEverything(t *testing.T) {
	api := &mockAPI{}
	m := metrics.NewPurgeMetrics()
	d := NewDeleter(api, "token", models.KindPost, 4, zap.NewNop(), m)

	for i := 0; i < 25; i++ {
		d.Dispatch(context.Background(), postName(i))
	}
	d.Wait()

	assert.Len(t, api.deletedIDs(), 25)
	assert.Equal(t, 25.0, testutil.ToFloat64(m.ItemsDeleted.WithLabelValues("posts")))
	assert.Zero(t, testutil.ToFloat64(m.DeleteFailed.WithLabelValues("posts")))
}

func TestDeleterIsolatesFailures(t *testing.T) {
	// Every other delete fails; the rest must still complete and the
	// deleter must never surface an error.
	var n atomic.Int64
	api := &mockAPI{
		DeleteFunc: func(ctx context.Context, token, fullname string) error {
			if n.Add(1)%2 == 0 {
				return errors.New("forbidden")
			}
			return nil
		},
	}
	m := metrics.NewPurgeMetrics()
	d := NewDeleter(api, "token", models.KindComment, 4, zap.NewNop(), m)

	for i := 0; i < 20; i++ {
		d.Dispatch(context.Background(), postName(i))
	}
	d.Wait()

	assert.Len(t, api.deletedIDs(), 20)
	assert.Equal(t, 10.0, testutil.ToFloat64(m.ItemsDeleted.WithLabelValues("comments")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.DeleteFailed.WithLabelValues("comments")))
}

func TestDeleterBoundsConcurrency(t *testing.T) {
	const bound = 3

	var inFlight, peak atomic.Int64
	api := &mockAPI{
		DeleteFunc: func(ctx context.Context, token, fullname string) error {
			cur := inFlight.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return nil
		},
	}
	m := metrics.NewPurgeMetrics()
	d := NewDeleter(api, "token", models.KindPost, bound, zap.NewNop(), m)

	for i := 0; i < 30; i++ {
		d.Dispatch(context.Background(), postName(i))
	}
	d.Wait()

	assert.Len(t, api.deletedIDs(), 30)
	assert.LessOrEqual(t, peak.Load(), int64(bound))
}

func TestDeleterWaitDrainsOutstandingTasks(t *testing.T) {
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(5)

	api := &mockAPI{
		DeleteFunc: func(ctx context.Context, token, fullname string) error {
			started.Done()
			<-release
			return nil
		},
	}
	m := metrics.NewPurgeMetrics()
	d := NewDeleter(api, "token", models.KindPost, 5, zap.NewNop(), m)

	for i := 0; i < 5; i++ {
		d.Dispatch(context.Background(), postName(i))
	}
	started.Wait()

	waited := make(chan struct{})
	go func() {
		d.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned while deletes were still in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)

	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after deletes resolved")
	}

	require.Len(t, api.deletedIDs(), 5)
}

func TestDeleterDispatchStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	api := &mockAPI{}
	m := metrics.NewPurgeMetrics()
	d := NewDeleter(api, "token", models.KindPost, 1, zap.NewNop(), m)

	// A full semaphore plus a canceled context must not deadlock Dispatch.
	block := make(chan struct{})
	api.DeleteFunc = func(c context.Context, token, fullname string) error {
		<-block
		return nil
	}

	d.Dispatch(context.Background(), postName(0))
	d.Dispatch(ctx, postName(1))

	close(block)
	d.Wait()

	assert.Len(t, api.deletedIDs(), 1)
}
