package apple

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"nytbestsellers/internal/components/assert"
	"nytbestsellers/internal/components/telemetry"
	"nytbestsellers/lib/htmlutil"
	libtelemetry "nytbestsellers/lib/telemetry"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_scrape_label = "client.scrape-category-label"

	badgeSelector = "div.book-badge__caption"
)

const (
	DefaultTimeout         = 5 * time.Second
	DefaultRequestInterval = 2100 * time.Millisecond
	// Undetermined is the label of a storefront page without a category badge.
	Undetermined = "undetermined"
)

var ErrUpstreamUnavailable = errors.New("apple: storefront unavailable")

type ClientOptions struct {
	Timeout time.Duration
	// RequestInterval spaces consecutive requests, a negative value disables pacing.
	RequestInterval time.Duration
}

type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("apple_client", tel)

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RequestInterval == 0 {
		opts.RequestInterval = DefaultRequestInterval
	}

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetTimeout(opts.Timeout)

	limit := rate.Inf
	if opts.RequestInterval > 0 {
		limit = rate.Every(opts.RequestInterval)
	}
	rateLimiter := rate.NewLimiter(limit, 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)
	libtelemetry.TraceResty(httpClient, "apple_client")

	return &Client{
		http: httpClient,
		tel:  tel,
	}, nil
}

// ScrapeCategoryLabel returns the category badge of an apple books page or
// Undetermined when the page has none.
func (c *Client) ScrapeCategoryLabel(ctx context.Context, url string) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		c.tel.ReportBroken(report_client_scrape_label, err, url)
		return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	if res.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned %s", ErrUpstreamUnavailable, url, res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.String()))
	if err != nil {
		return "", err
	}
	label, ok := htmlutil.FirstText(doc.Find(badgeSelector))
	if !ok || label == "" {
		c.tel.ReportDebug("no category badge", url)
		return Undetermined, nil
	}
	return label, nil
}
