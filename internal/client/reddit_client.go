package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"regreddit/internal/config"
	"regreddit/internal/models"
	"regreddit/internal/parser"
	"regreddit/pkg/utils"
)

// ErrAuthentication marks a failed token acquisition. It is the single
// fatal error class of a purge run.
var ErrAuthentication = errors.New("could not authenticate")

const (
	defaultAuthBaseURL = "https://www.reddit.com"
	defaultAPIBaseURL  = "https://oauth.reddit.com"
)

// RedditClient implements ContentAPI against the Reddit OAuth API.
type RedditClient struct {
	client   *utils.RetryableClient
	parser   parser.Parser
	cfg      *config.Settings
	limiter  *rate.Limiter
	authBase string
	apiBase  string
}

func NewRedditClient(cfg *config.Settings, p parser.Parser) (*RedditClient, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("a user agent is required")
	}

	httpClient, err := utils.NewRetryableClient(
		cfg.ProxyURLs,
		cfg.MaxRetries,
		cfg.UserAgent,
		cfg.RequestTimeout,
	)
	if err != nil {
		return nil, fmt.Errorf("create HTTP client: %w", err)
	}

	return &RedditClient{
		client: httpClient,
		parser: p,
		cfg:    cfg,
		// Reddit allows 100 requests per 10 minutes for script apps.
		limiter:  rate.NewLimiter(rate.Every(600*time.Millisecond), 1),
		authBase: defaultAuthBaseURL,
		apiBase:  defaultAPIBaseURL,
	}, nil
}

func (r *RedditClient) Authenticate(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", r.cfg.Credentials.Username)
	form.Set("password", r.cfg.Credentials.Password)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.authBase+"/api/v1/access_token",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %s", ErrAuthentication, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(r.cfg.Credentials.ClientID, r.cfg.Credentials.Secret)

	resp, body, err := r.do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAuthentication, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrAuthentication, resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("%w: decode token response: %s", ErrAuthentication, err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrAuthentication)
	}

	return tokenResp.AccessToken, nil
}

func (r *RedditClient) ListPage(ctx context.Context, token string, kind models.ContentKind, after string) (models.Page, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(r.cfg.PageSize))
	params.Set("raw_json", "1")
	if after != "" {
		params.Set("after", after)
	}

	path := "submitted"
	if kind == models.KindComment {
		path = "comments"
	}

	listURL := fmt.Sprintf(
		"%s/user/%s/%s?%s",
		r.apiBase, r.cfg.Credentials.Username, path, params.Encode(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return models.Page{}, fmt.Errorf("create listing request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, body, err := r.do(ctx, req)
	if err != nil {
		return models.Page{}, fmt.Errorf("fetch %s listing: %w", kind, err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Page{}, fmt.Errorf("fetch %s listing: status %d", kind, resp.StatusCode)
	}

	page, err := r.parser.ParseListing(body)
	if err != nil {
		return models.Page{}, fmt.Errorf("decode %s listing: %w", kind, err)
	}

	return page, nil
}

func (r *RedditClient) Delete(ctx context.Context, token, fullname string) error {
	form := url.Values{}
	form.Set("id", fullname)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.apiBase+"/api/del",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, _, err := r.do(ctx, req)
	if err != nil {
		return fmt.Errorf("delete %s: %w", fullname, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete %s: status %d", fullname, resp.StatusCode)
	}

	return nil
}

func (r *RedditClient) Submit(ctx context.Context, token string, sub models.Submission) error {
	form := url.Values{}
	form.Set("sr", sub.Subreddit)
	form.Set("title", sub.Title)
	form.Set("kind", string(sub.Kind))
	form.Set("resubmit", "true")

	switch sub.Kind {
	case models.SubmissionLink:
		form.Set("url", sub.URL)
	case models.SubmissionSelf:
		if sub.RichtextJSON != "" {
			form.Set("richtext_json", sub.RichtextJSON)
		} else {
			form.Set("text", sub.Text)
		}
	default:
		return fmt.Errorf("unknown submission kind %q", sub.Kind)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.apiBase+"/api/submit",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return fmt.Errorf("create submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, body, err := r.do(ctx, req)
	if err != nil {
		return fmt.Errorf("submit to r/%s: %w", sub.Subreddit, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("submit to r/%s: status %d", sub.Subreddit, resp.StatusCode)
	}

	var submitResp struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &submitResp); err != nil {
		return fmt.Errorf("decode submit response: %w", err)
	}
	if !submitResp.Success {
		return fmt.Errorf("reddit rejected the submission to r/%s", sub.Subreddit)
	}

	return nil
}

// do applies the shared request pacing and dispatches through the retrying
// transport.
func (r *RedditClient) do(ctx context.Context, req *http.Request) (*http.Response, []byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	return r.client.Do(req)
}
