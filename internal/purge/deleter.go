package purge

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"regreddit/internal/client"
	"regreddit/internal/metrics"
	"regreddit/internal/models"
)

// Deleter fans item deletions out to a bounded pool of goroutines. Each
// dispatched task is independent: its outcome is logged and counted, then
// swallowed. A failed delete never aborts a sibling task or the paginator
// feeding the deleter.
type Deleter struct {
	api     client.ContentAPI
	token   string
	kind    models.ContentKind
	log     *zap.Logger
	metrics *metrics.PurgeMetrics

	sem chan struct{}
	wg  sync.WaitGroup
}

func NewDeleter(
	api client.ContentAPI,
	token string,
	kind models.ContentKind,
	concurrency int,
	log *zap.Logger,
	m *metrics.PurgeMetrics,
) *Deleter {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Deleter{
		api:     api,
		token:   token,
		kind:    kind,
		log:     log,
		metrics: m,
		sem:     make(chan struct{}, concurrency),
	}
}

// Dispatch starts an asynchronous delete of the item. It never waits for
// the network call; it blocks only while the pool is saturated.
func (d *Deleter) Dispatch(ctx context.Context, fullname string) {
	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() { <-d.sem }()

		if err := d.api.Delete(ctx, d.token, fullname); err != nil {
			d.log.Warn("failed to delete item",
				zap.String("kind", d.kind.String()),
				zap.String("id", fullname),
				zap.Error(err),
			)
			d.metrics.DeleteFailed.WithLabelValues(d.kind.String()).Inc()
			return
		}

		d.log.Info("deleted item",
			zap.String("kind", d.kind.String()),
			zap.String("id", fullname),
		)
		d.metrics.ItemsDeleted.WithLabelValues(d.kind.String()).Inc()
	}()
}

// Wait blocks until every dispatched delete has resolved.
func (d *Deleter) Wait() {
	d.wg.Wait()
}
