package purge

import (
	"context"
	"sync"

	"regreddit/internal/models"
)

// mockAPI is a function-field ContentAPI double that records every call.
type mockAPI struct {
	mu sync.Mutex

	AuthenticateFunc func(ctx context.Context) (string, error)
	ListPageFunc     func(ctx context.Context, token string, kind models.ContentKind, after string) (models.Page, error)
	DeleteFunc       func(ctx context.Context, token, fullname string) error
	SubmitFunc       func(ctx context.Context, token string, sub models.Submission) error

	listCalls   []listCall
	deleteCalls []string
}

type listCall struct {
	kind  models.ContentKind
	after string
}

func (m *mockAPI) Authenticate(ctx context.Context) (string, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx)
	}
	return "token", nil
}

func (m *mockAPI) ListPage(ctx context.Context, token string, kind models.ContentKind, after string) (models.Page, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, listCall{kind: kind, after: after})
	m.mu.Unlock()

	if m.ListPageFunc != nil {
		return m.ListPageFunc(ctx, token, kind, after)
	}
	return models.Page{}, nil
}

func (m *mockAPI) Delete(ctx context.Context, token, fullname string) error {
	m.mu.Lock()
	m.deleteCalls = append(m.deleteCalls, fullname)
	m.mu.Unlock()

	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, token, fullname)
	}
	return nil
}

func (m *mockAPI) Submit(ctx context.Context, token string, sub models.Submission) error {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, token, sub)
	}
	return nil
}

func (m *mockAPI) listCallsFor(kind models.ContentKind) []listCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	var calls []listCall
	for _, c := range m.listCalls {
		if c.kind == kind {
			calls = append(calls, c)
		}
	}
	return calls
}

func (m *mockAPI) deletedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, len(m.deleteCalls))
	copy(ids, m.deleteCalls)
	return ids
}

// pagedListing serves a fixed item slice in pages of the given size,
// locating each request's position by cursor, the way the live API does.
func pagedListing(items []models.ListingItem, pageSize int) func(ctx context.Context, token string, kind models.ContentKind, after string) (models.Page, error) {
	return func(ctx context.Context, token string, kind models.ContentKind, after string) (models.Page, error) {
		start := 0
		if after != "" {
			for i, item := range items {
				if item.Fullname == after {
					start = i + 1
					break
				}
			}
		}

		end := start + pageSize
		if end > len(items) {
			end = len(items)
		}

		chunk := items[start:end]
		return models.Page{Items: chunk, ChildCount: len(chunk)}, nil
	}
}

// makeItems builds n post items named t3_0000 .. t3_n-1 in one subreddit.
func makeItems(n int, subreddit string) []models.ListingItem {
	items := make([]models.ListingItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, models.ListingItem{
			Fullname:  postName(i),
			Subreddit: subreddit,
			Kind:      models.KindPost,
		})
	}
	return items
}

func postName(i int) string {
	const digits = "0123456789"
	return "t3_" + string([]byte{
		digits[i/1000%10],
		digits[i/100%10],
		digits[i/10%10],
		digits[i%10],
	})
}
