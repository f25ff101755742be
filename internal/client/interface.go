package client

import (
	"context"

	"regreddit/internal/models"
)

// ContentAPI is everything the application needs from Reddit. The purge
// engine and the submit path both consume this interface; tests swap in a
// mock.
type ContentAPI interface {
	// Authenticate performs the OAuth password grant and returns a bearer
	// token valid for the rest of the run.
	Authenticate(ctx context.Context) (string, error)
	// ListPage fetches one page of the authenticated user's posts or
	// comments, starting after the given cursor ("" for the first page).
	ListPage(ctx context.Context, token string, kind models.ContentKind, after string) (models.Page, error)
	// Delete removes one item by fullname.
	Delete(ctx context.Context, token, fullname string) error
	// Submit creates a new link or self post.
	Submit(ctx context.Context, token string, sub models.Submission) error
}
