// Package utils provides the HTTP transport shared by all Reddit calls:
// uTLS client hello fingerprinting, optional proxy rotation, and
// retry-with-backoff on transient failures.
package utils

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	utls "github.com/refraction-networking/utls"
	proxy "golang.org/x/net/proxy"
)

var clientHelloIDs = []utls.ClientHelloID{
	utls.HelloChrome_Auto,
	utls.HelloFirefox_Auto,
	utls.HelloSafari_Auto,
	utls.HelloEdge_Auto,
}

// ProxyRotator hands out proxies round-robin. A rotator over zero proxies is
// valid and always yields nil (direct connection).
type ProxyRotator struct {
	parsedURLs []*url.URL
	currentIdx uint32
}

func NewProxyRotator(proxyURLs []string) (*ProxyRotator, error) {
	rotator := &ProxyRotator{}

	for _, rawURL := range proxyURLs {
		if rawURL == "" {
			continue
		}
		parsedURL, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy URL %s: %w", rawURL, err)
		}
		rotator.parsedURLs = append(rotator.parsedURLs, parsedURL)
	}

	return rotator, nil
}

func (r *ProxyRotator) NextProxy() *url.URL {
	if len(r.parsedURLs) == 0 {
		return nil
	}

	idx := atomic.AddUint32(&r.currentIdx, 1) % uint32(len(r.parsedURLs))
	return r.parsedURLs[idx]
}

// fingerprintingDialer establishes TLS connections with a browser client
// hello instead of Go's default, optionally through a proxy.
type fingerprintingDialer struct {
	proxyURL      *url.URL
	clientHelloID utls.ClientHelloID
}

func newFingerprintingDialer(proxyURL *url.URL) *fingerprintingDialer {
	return &fingerprintingDialer{
		proxyURL:      proxyURL,
		clientHelloID: clientHelloIDs[rand.Intn(len(clientHelloIDs))],
	}
}

func (d *fingerprintingDialer) DialTLSContext(ctx context.Context, network, addr string) (net.Conn, error) {
	var conn net.Conn
	var err error

	if d.proxyURL == nil {
		var dialer net.Dialer
		conn, err = dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, fmt.Errorf("direct dial: %w", err)
		}
	} else {
		conn, err = d.dialThroughProxy(ctx, network, addr)
		if err != nil {
			return nil, fmt.Errorf("proxy dial: %w", err)
		}
	}

	host := addr
	if h, _, splitErr := net.SplitHostPort(addr); splitErr == nil {
		host = h
	}

	uconn := utls.UClient(conn, &utls.Config{ServerName: host}, d.clientHelloID)
	if err := uconn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("uTLS handshake: %w", err)
	}

	return uconn, nil
}

func (d *fingerprintingDialer) dialThroughProxy(ctx context.Context, network, addr string) (net.Conn, error) {
	switch d.proxyURL.Scheme {
	case "http", "https":
		transport := &http.Transport{
			Proxy: http.ProxyURL(d.proxyURL),
		}

		conn, err := transport.DialContext(ctx, network, addr)
		if err != nil {
			return nil, fmt.Errorf("dial via HTTP proxy: %w", err)
		}

		return conn, nil

	case "socks5":
		auth := &proxy.Auth{}
		if d.proxyURL.User != nil {
			auth.User = d.proxyURL.User.Username()
			if password, ok := d.proxyURL.User.Password(); ok {
				auth.Password = password
			}
		}

		dialer, err := proxy.SOCKS5("tcp", d.proxyURL.Host, auth, &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("create SOCKS5 dialer: %w", err)
		}

		connCh := make(chan net.Conn, 1)
		errCh := make(chan error, 1)

		go func() {
			conn, dialErr := dialer.Dial(network, addr)
			if dialErr != nil {
				errCh <- dialErr
				return
			}
			connCh <- conn
		}()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case conn := <-connCh:
			return conn, nil
		case err := <-errCh:
			return nil, fmt.Errorf("dial via SOCKS5 proxy: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported proxy scheme: %s", d.proxyURL.Scheme)
	}
}

type fingerprintingTransport struct {
	proxyRotator *ProxyRotator
	transport    *http.Transport
}

func newFingerprintingTransport(rotator *ProxyRotator) http.RoundTripper {
	transport := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     false,
	}

	return &fingerprintingTransport{
		proxyRotator: rotator,
		transport:    transport,
	}
}

func (t *fingerprintingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	proxyURL := t.proxyRotator.NextProxy()

	transport := t.transport
	if proxyURL != nil || req.URL.Scheme == "https" {
		// Requests run concurrently; customize a clone instead of
		// mutating the shared transport.
		transport = t.transport.Clone()
		if proxyURL != nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
		if req.URL.Scheme == "https" {
			dialer := newFingerprintingDialer(proxyURL)
			transport.DialTLSContext = dialer.DialTLSContext
		}
	}

	return transport.RoundTrip(req)
}

// RetryableClient wraps an *http.Client with bounded retries, exponential
// backoff on transient failures (transport errors, 429, 5xx), and gzip
// response handling.
type RetryableClient struct {
	client     *http.Client
	maxRetries int
	userAgent  string
}

func NewRetryableClient(proxyURLs []string, maxRetries int, userAgent string, timeout time.Duration) (*RetryableClient, error) {
	rotator, err := NewProxyRotator(proxyURLs)
	if err != nil {
		return nil, fmt.Errorf("create proxy rotator: %w", err)
	}

	if maxRetries < 1 {
		maxRetries = 1
	}

	return &RetryableClient{
		client: &http.Client{
			Transport: newFingerprintingTransport(rotator),
			Timeout:   timeout,
		},
		maxRetries: maxRetries,
		userAgent:  userAgent,
	}, nil
}

// Do issues the request, retrying on transient failures, and returns the
// response with its fully read body. The returned response body is a
// re-readable copy.
func (c *RetryableClient) Do(req *http.Request) (*http.Response, []byte, error) {
	var resp *http.Response
	var bodyBytes []byte
	var err error

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var reqBody []byte
	if req.Body != nil {
		reqBody, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("reading request body: %w", err)
		}
		req.Body.Close()
	}

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if reqBody != nil {
			req.Body = io.NopCloser(bytes.NewReader(reqBody))
		}

		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-req.Context().Done():
				return nil, nil, req.Context().Err()
			case <-time.After(backoff):
			}
		}

		resp, err = c.client.Do(req)
		if err != nil {
			if attempt == c.maxRetries-1 {
				return nil, nil, fmt.Errorf("all %d attempts failed: %w", c.maxRetries, err)
			}
			continue
		}

		bodyBytes, err = readBody(resp)
		if err != nil {
			if attempt == c.maxRetries-1 {
				return nil, nil, fmt.Errorf("reading response body: %w", err)
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			if attempt == c.maxRetries-1 {
				return nil, nil, fmt.Errorf("server error: status %d", resp.StatusCode)
			}
			continue
		}

		break
	}

	resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	return resp, bodyBytes, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	var reader io.ReadCloser
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	default:
		reader = resp.Body
	}

	return io.ReadAll(reader)
}
