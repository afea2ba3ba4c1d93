// Package fine talks to the FSS FINE portal (fine.fss.or.kr): it fetches the
// announcement page, finds the spreadsheet link on it and downloads the file.
package fine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	e "efb/internal/errors"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	BaseURL           = "https://fine.fss.or.kr"
	PagePath          = "/fine/bbs/B0000392/view.do"
	AllowedPathPrefix = "/fine/cmmn/file/fileDown.do"

	UserAgent        = "Mozilla/5.0 (compatible; efb-monitor-mcp/1.0.0)"
	RequestTimeout   = 30 * time.Second
	MaxDownloadBytes = 50 << 20
	menuNo           = "900495"
)

// PageURL builds the announcement page URL for a board post id. The id must
// already have been validated (config.ValidatePageNttID).
func PageURL(nttID string) string {
	q := url.Values{}
	q.Set("nttId", nttID)
	q.Set("menuNo", menuNo)
	q.Set("pageIndex", "1")
	return fmt.Sprintf("%s%s?%s", BaseURL, PagePath, q.Encode())
}

type Client struct {
	pageURL string
	client  *http.Client
	limiter ratelimit.Limiter
	timeout time.Duration
	logger  *zap.Logger
}

type Option func(*Client)

// WithTransport swaps the HTTP transport, keeping the redirect policy.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.client.Transport = rt }
}

func WithRateLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l.Named("fine") }
}

func New(pageURL string, opts ...Option) *Client {
	c := &Client{
		pageURL: pageURL,
		client: &http.Client{
			// a redirect could leave the allow-listed host, so the 3xx itself is
			// returned and treated as a failed response
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter: ratelimit.NewUnlimited(),
		timeout: RequestTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAnnouncementHTML returns the announcement page decoded to UTF-8.
func (c *Client) FetchAnnouncementHTML(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.get(ctx, c.pageURL, "text/html")
	if err != nil {
		return "", e.Wrap(e.ErrPortalUnavailable, "FINE 포털 페이지 요청에 실패했습니다.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", e.Wrap(e.ErrPortalUnavailable, "FINE 포털 페이지 요청에 실패했습니다.",
			fmt.Errorf("fine http %d", resp.StatusCode))
	}

	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", e.Wrap(e.ErrPortalUnavailable, "FINE 포털 페이지를 읽을 수 없습니다.", err)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return "", e.Wrap(e.ErrPortalUnavailable, "FINE 포털 페이지를 읽을 수 없습니다.", err)
	}

	return string(body), nil
}

// DownloadFile fetches the spreadsheet. fileURL must come from ExtractDownloadLink,
// which is the only place the host and path are checked.
func (c *Client) DownloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.get(ctx, fileURL, "")
	if err != nil {
		return nil, e.Wrap(e.ErrDownloadFailed, "엑셀 파일 다운로드에 실패했습니다.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, e.Wrap(e.ErrDownloadFailed, "엑셀 파일 다운로드에 실패했습니다.",
			fmt.Errorf("fine http %d", resp.StatusCode))
	}

	buf, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes+1))
	if err != nil {
		return nil, e.Wrap(e.ErrDownloadFailed, "엑셀 파일 다운로드에 실패했습니다.", err)
	}
	if len(buf) > MaxDownloadBytes {
		return nil, e.New(e.ErrDownloadFailed, "엑셀 파일 크기가 허용 범위를 초과했습니다.")
	}

	return buf, nil
}

func (c *Client) get(ctx context.Context, u, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	c.limiter.Take()

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("url", u), zap.Error(err))
		return nil, err
	}
	c.logger.Debug("request done",
		zap.String("url", u),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}
