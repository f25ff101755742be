// Package app wires the application services and exposes the operations
// the CLI invokes: purge, submit link, submit self post.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"regreddit/internal/client"
	"regreddit/internal/config"
	"regreddit/internal/metrics"
	"regreddit/internal/models"
	"regreddit/internal/purge"
)

// ErrInvalidInput marks a rejected operation parameter, such as a self post
// with two body sources.
var ErrInvalidInput = errors.New("invalid input")

type App struct {
	cfg     *config.Settings
	api     client.ContentAPI
	log     *zap.Logger
	metrics *metrics.PurgeMetrics
}

type Params struct {
	Config  *config.Settings
	API     client.ContentAPI
	Logger  *zap.Logger
	Metrics *metrics.PurgeMetrics
}

func New(p Params) *App {
	return &App{
		cfg:     p.Config,
		api:     p.API,
		log:     p.Logger,
		metrics: p.Metrics,
	}
}

// Purge deletes the account's posts and comments, honoring the whitelist.
// Authentication failure is the only fatal outcome: it aborts before any
// listing or delete call is made. Everything after a successful
// authentication reports success.
func (a *App) Purge(ctx context.Context) error {
	log := a.log.With(zap.String("run_id", uuid.NewString()))
	log.Info("purging reddit account",
		zap.String("username", a.cfg.Credentials.Username),
	)

	token, err := a.api.Authenticate(ctx)
	if err != nil {
		return err
	}

	svc := purge.NewService(purge.Params{
		API:         a.api,
		Exemptions:  purge.NewExemptions(a.cfg.Whitelist),
		PageSize:    a.cfg.PageSize,
		Concurrency: a.cfg.Concurrency,
		Logger:      log,
		Metrics:     a.metrics,
	})

	return svc.Run(ctx, token)
}

// SubmitLink submits a link post.
func (a *App) SubmitLink(ctx context.Context, subreddit, title, rawURL string) error {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	a.log.Info("authenticating with reddit")
	token, err := a.api.Authenticate(ctx)
	if err != nil {
		return err
	}

	a.log.Info("submitting link", zap.String("subreddit", subreddit))

	return a.api.Submit(ctx, token, models.Submission{
		Subreddit: subreddit,
		Title:     title,
		Kind:      models.SubmissionLink,
		URL:       parsed.String(),
	})
}

// SelfPostParams carries the body source options of a self post submission.
// Exactly one of the four fields must be set.
type SelfPostParams struct {
	Subreddit        string
	Title            string
	Text             string
	TextFile         string
	RichtextJSON     string
	RichtextJSONFile string
}

// SubmitSelfPost submits a self post from exactly one body source.
func (a *App) SubmitSelfPost(ctx context.Context, p SelfPostParams) error {
	sub, err := buildSelfPost(p)
	if err != nil {
		return err
	}

	a.log.Info("authenticating with reddit")
	token, err := a.api.Authenticate(ctx)
	if err != nil {
		return err
	}

	a.log.Info("submitting self post", zap.String("subreddit", p.Subreddit))

	return a.api.Submit(ctx, token, sub)
}

func buildSelfPost(p SelfPostParams) (models.Submission, error) {
	sub := models.Submission{
		Subreddit: p.Subreddit,
		Title:     p.Title,
		Kind:      models.SubmissionSelf,
	}

	sources := 0
	for _, s := range []string{p.Text, p.TextFile, p.RichtextJSON, p.RichtextJSONFile} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		return models.Submission{}, fmt.Errorf("%w: exactly one body source is accepted", ErrInvalidInput)
	}

	switch {
	case p.Text != "":
		sub.Text = p.Text
	case p.TextFile != "":
		body, err := os.ReadFile(p.TextFile)
		if err != nil {
			return models.Submission{}, fmt.Errorf("read text file: %w", err)
		}
		sub.Text = string(body)
	case p.RichtextJSON != "":
		sub.RichtextJSON = p.RichtextJSON
	case p.RichtextJSONFile != "":
		body, err := os.ReadFile(p.RichtextJSONFile)
		if err != nil {
			return models.Submission{}, fmt.Errorf("read richtext file: %w", err)
		}
		sub.RichtextJSON = string(body)
	}

	return sub, nil
}
