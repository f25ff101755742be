// Package purge implements the best-effort bulk removal of a user's posts
// and comments: paginate the two account listings, drop whitelisted items,
// and delete the rest with bounded fire-and-forget concurrency.
package purge

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"regreddit/internal/client"
	"regreddit/internal/metrics"
	"regreddit/internal/models"
)

// Service coordinates one purge run. The posts and comments pipelines run
// concurrently and independently; the run completes only after both have
// stopped producing items and every dispatched delete has drained.
type Service struct {
	api         client.ContentAPI
	exemptions  Exemptions
	pageSize    int
	concurrency int
	log         *zap.Logger
	metrics     *metrics.PurgeMetrics
}

type Params struct {
	API         client.ContentAPI
	Exemptions  Exemptions
	PageSize    int
	Concurrency int
	Logger      *zap.Logger
	Metrics     *metrics.PurgeMetrics
}

func NewService(p Params) *Service {
	return &Service{
		api:         p.API,
		exemptions:  p.Exemptions,
		pageSize:    p.PageSize,
		concurrency: p.Concurrency,
		log:         p.Logger,
		metrics:     p.Metrics,
	}
}

// Run purges both content kinds. Per-item failures and per-stream anomalies
// are diagnostics, not errors: Run returns nil once both streams have
// drained, no matter how many individual deletes failed.
func (s *Service) Run(ctx context.Context, token string) error {
	var wg sync.WaitGroup

	for _, kind := range []models.ContentKind{models.KindPost, models.KindComment} {
		wg.Add(1)
		go func(kind models.ContentKind) {
			defer wg.Done()
			s.purgeStream(ctx, token, kind)
		}(kind)
	}

	wg.Wait()

	s.log.Info("purge run complete")
	return nil
}

// purgeStream runs one kind's paginate -> filter -> delete pipeline to
// completion, including draining its own deletions.
func (s *Service) purgeStream(ctx context.Context, token string, kind models.ContentKind) {
	pager := NewPaginator(s.api, token, kind, s.pageSize, s.log, s.metrics)
	deleter := NewDeleter(s.api, token, kind, s.concurrency, s.log, s.metrics)

	for {
		item, ok := pager.Next(ctx)
		if !ok {
			break
		}

		if s.exemptions.Exempt(item.Subreddit) {
			s.log.Info("skipping exempt item",
				zap.String("kind", kind.String()),
				zap.String("id", item.Fullname),
				zap.String("subreddit", item.Subreddit),
			)
			s.metrics.ItemsExempted.WithLabelValues(kind.String()).Inc()
			continue
		}

		deleter.Dispatch(ctx, item.Fullname)
	}

	deleter.Wait()

	s.log.Info("stream drained", zap.String("kind", kind.String()))
}
