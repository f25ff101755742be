package purge

import (
	"context"

	"go.uber.org/zap"

	"regreddit/internal/client"
	"regreddit/internal/metrics"
	"regreddit/internal/models"
)

// Paginator walks one content kind's listing as a forward-only sequence of
// items. It is not restartable: once exhausted it stays exhausted.
//
// The cursor for page n+1 is the fullname of the last decodable item of
// page n. A page whose raw child count is below the requested limit is the
// final page, regardless of any server-side cursor.
type Paginator struct {
	api      client.ContentAPI
	token    string
	kind     models.ContentKind
	pageSize int
	log      *zap.Logger
	metrics  *metrics.PurgeMetrics

	cursor string
	buf    []models.ListingItem
	done   bool
}

func NewPaginator(
	api client.ContentAPI,
	token string,
	kind models.ContentKind,
	pageSize int,
	log *zap.Logger,
	m *metrics.PurgeMetrics,
) *Paginator {
	return &Paginator{
		api:      api,
		token:    token,
		kind:     kind,
		pageSize: pageSize,
		log:      log,
		metrics:  m,
	}
}

// Next returns the next item, fetching pages lazily. ok is false once the
// sequence has ended, whether naturally (short page) or because of a
// stream anomaly. Anomalies end only this stream; they are logged, counted,
// and never propagated.
func (p *Paginator) Next(ctx context.Context) (models.ListingItem, bool) {
	for {
		if len(p.buf) > 0 {
			item := p.buf[0]
			p.buf = p.buf[1:]
			return item, true
		}

		if p.done {
			return models.ListingItem{}, false
		}

		page, err := p.api.ListPage(ctx, p.token, p.kind, p.cursor)
		if err != nil {
			p.log.Warn("listing stream ended early",
				zap.String("kind", p.kind.String()),
				zap.Error(err),
			)
			p.metrics.StreamsEnded.WithLabelValues(p.kind.String()).Inc()
			p.done = true
			return models.ListingItem{}, false
		}

		p.metrics.PagesFetched.WithLabelValues(p.kind.String()).Inc()
		p.log.Info("fetched listing page",
			zap.String("kind", p.kind.String()),
			zap.Int("children", page.ChildCount),
			zap.Int("items", len(page.Items)),
			zap.String("after", p.cursor),
		)

		switch {
		case page.ChildCount < p.pageSize:
			// Short page: this is the last one even if a cursor exists.
			p.done = true
		case len(page.Items) == 0:
			// A full page where nothing decoded leaves no cursor to
			// advance from. Stop this stream rather than loop on the
			// same page.
			p.log.Warn("listing stream ended early",
				zap.String("kind", p.kind.String()),
				zap.String("reason", "no decodable item to derive cursor"),
			)
			p.metrics.StreamsEnded.WithLabelValues(p.kind.String()).Inc()
			p.done = true
		default:
			p.cursor = page.Items[len(page.Items)-1].Fullname
		}

		p.buf = page.Items
	}
}
