package ghri

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// userAgent is the fixed identifier sent with every request, per §4.3.
const userAgent = "ghri/1.0"

// maxAttempts and retryDelay implement §4.3's retry policy literally: a
// fixed number of attempts with a fixed delay, not exponential backoff.
const (
	maxAttempts = 3
	retryDelay  = 1 * time.Second
)

// HTTPPort is the abstract boundary for all network I/O the core performs.
type HTTPPort interface {
	GetJSON(ctx context.Context, rawURL string, out any) error
	GetJSONPaged(ctx context.Context, rawURL string, query url.Values, out any) error
	Download(ctx context.Context, rawURL string, sinkFactory func() (io.WriteCloser, error)) (int64, error)
}

// defaultHTTP is the production HTTPPort.
type defaultHTTP struct {
	client   *http.Client
	token    string
	progress ProgressSink
}

// NewHTTPPort builds the production HTTPPort. token, when non-empty, is
// sent as a Bearer Authorization header on every request. progress, when
// nil, defaults to NoopProgress.
func NewHTTPPort(token string, progress ProgressSink) (HTTPPort, error) {
	client, err := buildHTTPClient()
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = NoopProgress
	}
	return &defaultHTTP{client: client, token: token, progress: progress}, nil
}

func buildHTTPClient() (*http.Client, error) {
	tr := &http.Transport{
		MaxIdleConns:          64,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	proxyURLStr := firstNonEmpty(envAny("HTTPS_PROXY", "https_proxy"), envAny("HTTP_PROXY", "http_proxy"))
	if proxyURLStr == "" {
		tr.Proxy = http.ProxyFromEnvironment
		return &http.Client{Transport: tr}, nil
	}

	proxyURL, err := url.Parse(proxyURLStr)
	if err != nil {
		return nil, fmt.Errorf("parse proxy URL: %w", err)
	}

	if strings.HasPrefix(strings.ToLower(proxyURL.Scheme), "socks5") {
		dialer, err := socks5Dialer(proxyURL)
		if err != nil {
			return nil, err
		}
		tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
		return &http.Client{Transport: tr}, nil
	}

	noProxy := envAny("NO_PROXY", "no_proxy")
	tr.Proxy = func(req *http.Request) (*url.URL, error) {
		if shouldBypassProxy(req.URL.Hostname(), noProxy) {
			return nil, nil
		}
		return proxyURL, nil
	}
	return &http.Client{Transport: tr}, nil
}

func socks5Dialer(proxyURL *url.URL) (proxy.Dialer, error) {
	var auth *proxy.Auth
	if proxyURL.User != nil {
		pass, _ := proxyURL.User.Password()
		auth = &proxy.Auth{User: proxyURL.User.Username(), Password: pass}
	}
	host := proxyURL.Host
	if proxyURL.Port() == "" {
		host = net.JoinHostPort(proxyURL.Hostname(), "1080")
	}
	dialer, err := proxy.SOCKS5("tcp", host, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("create SOCKS5 dialer: %w", err)
	}
	return dialer, nil
}

func shouldBypassProxy(host, noProxy string) bool {
	if noProxy == "" {
		return false
	}
	host = strings.ToLower(host)
	for _, pattern := range strings.Split(noProxy, ",") {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		switch {
		case pattern == "":
			continue
		case pattern == "*":
			return true
		case pattern == host:
			return true
		case strings.HasSuffix(host, strings.TrimPrefix(pattern, ".")):
			return true
		}
	}
	return false
}

func envAny(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetJSON fetches rawURL and decodes the 2xx JSON body into out.
func (h *defaultHTTP) GetJSON(ctx context.Context, rawURL string, out any) error {
	body, err := h.getWithRetry(ctx, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return wrapErr(KindNetworkPermanent, "decode response", rawURL, err)
	}
	return nil
}

// GetJSONPaged is GetJSON with a query string appended, used for releases
// pagination.
func (h *defaultHTTP) GetJSONPaged(ctx context.Context, rawURL string, query url.Values, out any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return wrapErr(KindParse, "parse URL", rawURL, err)
	}
	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return h.GetJSON(ctx, u.String(), out)
}

// Download streams rawURL's body into the sink sinkFactory produces,
// reporting progress through h.progress, and returns the number of bytes
// written.
func (h *defaultHTTP) Download(ctx context.Context, rawURL string, sinkFactory func() (io.WriteCloser, error)) (int64, error) {
	body, contentLength, err := h.getWithRetryLength(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	sink, err := sinkFactory()
	if err != nil {
		return 0, wrapErr(KindFilesystem, "create download sink", rawURL, err)
	}
	defer sink.Close()

	reader, finish := h.progress.Wrap(body, contentLength)
	defer finish()

	n, err := io.Copy(sink, reader)
	if err != nil {
		return n, wrapErr(KindNetworkTransient, "stream download body", rawURL, err)
	}
	return n, nil
}

func (h *defaultHTTP) getWithRetry(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	body, _, err := h.getWithRetryLength(ctx, rawURL)
	return body, err
}

func (h *defaultHTTP) getWithRetryLength(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := h.doOnce(ctx, rawURL)
		if err == nil {
			return resp.Body, resp.ContentLength, nil
		}

		var classified *Error
		if errors.As(err, &classified) && classified.Kind == KindNetworkPermanent {
			return nil, 0, err
		}

		lastErr = err
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, 0, wrapErr(KindInterrupt, "wait to retry", rawURL, ctx.Err())
			case <-time.After(retryDelay):
			}
		}
	}
	return nil, 0, lastErr
}

func (h *defaultHTTP) doOnce(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, wrapErr(KindParse, "build request", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, wrapErr(KindNetworkTransient, "perform request", rawURL, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	classified := classifyStatus(resp, rawURL)
	return nil, classified
}

// classifyStatus turns a non-2xx response into a typed *Error, following
// §4.3's retry table: 5xx is transient, everything else (401/403/404/429/
// other 4xx) is permanent, with a rate-limit hint for 403 bodies that
// mention it.
func classifyStatus(resp *http.Response, rawURL string) error {
	if resp.StatusCode >= 500 {
		return wrapErr(KindNetworkTransient, "request", rawURL, fmt.Errorf("server error: %s", resp.Status))
	}

	if resp.StatusCode == http.StatusForbidden {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if strings.Contains(strings.ToLower(string(body)), "rate limit") {
			return wrapErr(KindNetworkPermanent, "request", rawURL,
				errors.New("rate limited by provider; set GITHUB_TOKEN to raise the limit"))
		}
		return wrapErr(KindNetworkPermanent, "request", rawURL, fmt.Errorf("forbidden: %s", resp.Status))
	}

	return wrapErr(KindNetworkPermanent, "request", rawURL, fmt.Errorf("unexpected status: %s", resp.Status))
}
