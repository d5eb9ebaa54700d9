package amazon

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"nytbestsellers/internal/components/assert"
	"nytbestsellers/internal/components/chrono"
	"nytbestsellers/internal/components/telemetry"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("internal/scrapers/amazon")

const (
	report_scraper_connect       = "scraper.connect"
	report_scraper_product_page  = "scraper.product-page"
	report_scraper_reviews_count = "scraper.reviews-count"
	report_scraper_reviews       = "scraper.reviews"
	report_scraper_close         = "scraper.close"
)

const (
	MaxPageLoadRetries = 5
	MaxConnectAttempts = 10
	MaxReviewPages     = 10

	ReviewsBaseUrl = "https://www.amazon.com/product-reviews/"
	seeMoreReviews = "See more reviews"
)

var (
	ErrPageLoadExhausted   = errors.New("amazon: product page never showed its ratings")
	ErrReviewsLinkNotFound = errors.New("amazon: reviews link not found")
	ErrSessionUnavailable  = errors.New("amazon: browser session unavailable")
)

// Delays let the storefront settle between interactions.
type Delays struct {
	ProductPage  time.Duration
	ReviewsPage  time.Duration
	Handshake    time.Duration
	ConnectRetry time.Duration
	// SessionSettle is the lower bound of the random pause after connecting.
	SessionSettle       time.Duration
	SessionSettleJitter time.Duration
	ElementTimeout      time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		ProductPage:         5 * time.Second,
		ReviewsPage:         2 * time.Second,
		Handshake:           3 * time.Second,
		ConnectRetry:        5 * time.Second,
		SessionSettle:       2100 * time.Millisecond,
		SessionSettleJitter: 3 * time.Second,
		ElementTimeout:      10 * time.Second,
	}
}

type Options struct {
	Launcher Launcher
	Clock    chrono.API
	Delays   Delays
}

type Scraper struct {
	launcher Launcher
	clock    chrono.API
	delays   Delays
	tel      telemetry.API
}

func NewScraper(opts Options, tel telemetry.API) *Scraper {
	assert.NotNil(tel)
	assert.NotNil(opts.Launcher)

	if opts.Clock == nil {
		opts.Clock = chrono.NewStandardImpl()
	}
	if opts.Delays == (Delays{}) {
		opts.Delays = DefaultDelays()
	}

	return &Scraper{
		launcher: opts.Launcher,
		clock:    opts.Clock,
		delays:   opts.Delays,
		tel:      telemetry.NewScopedAPI("amazon_scraper", tel),
	}
}

func isConnRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(err.Error(), "connection refused")
}

func (s *Scraper) connect(ctx context.Context) (Session, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxConnectAttempts; attempt++ {
		session, err := s.launcher.Launch(ctx)
		if err == nil {
			settle := s.delays.SessionSettle
			if s.delays.SessionSettleJitter > 0 {
				settle += rand.N(s.delays.SessionSettleJitter)
			}
			err = s.clock.Sleep(ctx, settle)
			if err != nil {
				_ = session.Close()
				return nil, err
			}
			return session, nil
		}

		lastErr = err
		if !isConnRefused(err) {
			break
		}
		s.tel.ReportWarning(report_scraper_connect, "browser refused connection", attempt, err)
		if attempt < MaxConnectAttempts {
			err = s.clock.Sleep(ctx, s.delays.ConnectRetry)
			if err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrSessionUnavailable, lastErr)
}

func (s *Scraper) document(ctx context.Context, session Session) (*goquery.Document, error) {
	html, err := session.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// loadProductPage loads the page until its ratings summary shows up, a page
// without one is almost always a captcha interstitial.
func (s *Scraper) loadProductPage(ctx context.Context, session Session, productUrl string) (*goquery.Document, error) {
	for attempt := 0; attempt <= MaxPageLoadRetries; attempt++ {
		err := session.Navigate(ctx, productUrl)
		if err != nil {
			return nil, fmt.Errorf("navigate: %w", err)
		}
		err = s.clock.Sleep(ctx, s.delays.ProductPage)
		if err != nil {
			return nil, err
		}
		doc, err := s.document(ctx, session)
		if err != nil {
			return nil, err
		}
		if hasRatingsSummary(doc) {
			return doc, nil
		}
		s.tel.ReportWarning(report_scraper_product_page, "ratings summary missing, reloading", productUrl, attempt+1)
	}
	return nil, fmt.Errorf("%w: %s after %d loads", ErrPageLoadExhausted, productUrl, MaxPageLoadRetries+1)
}

func (s *Scraper) scrapeReviewsCount(ctx context.Context, session Session, productUrl string) (*int, error) {
	err := session.Navigate(ctx, ReviewsBaseUrl+ASIN(productUrl))
	if err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	err = s.clock.Sleep(ctx, s.delays.ReviewsPage)
	if err != nil {
		return nil, err
	}
	doc, err := s.document(ctx, session)
	if err != nil {
		return nil, err
	}
	count, err := parseReviewsCount(doc)
	if err != nil {
		s.tel.ReportWarning(report_scraper_reviews_count, err, productUrl)
		return nil, nil
	}
	return &count, nil
}

// findReviewsPage opens the ratings summary and returns the absolute url the
// "see more reviews" link points at.
func (s *Scraper) findReviewsPage(ctx context.Context, session Session, productUrl string) (string, error) {
	err := session.Navigate(ctx, productUrl)
	if err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	err = s.clock.Sleep(ctx, s.delays.Handshake)
	if err != nil {
		return "", err
	}
	err = session.ClickIntoView(ctx, ratingsSummarySelector, s.delays.ElementTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: ratings summary: %w", ErrElementNotFound, err)
	}
	err = s.clock.Sleep(ctx, s.delays.ReviewsPage)
	if err != nil {
		return "", err
	}
	err = session.Reload(ctx)
	if err != nil {
		return "", fmt.Errorf("reload: %w", err)
	}
	href, err := session.LinkByText(ctx, seeMoreReviews, s.delays.ElementTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReviewsLinkNotFound, err)
	}
	return resolveHref(productUrl, href), nil
}

func (s *Scraper) scrapeReviews(ctx context.Context, session Session, productUrl string) ([]Review, error) {
	base, err := s.findReviewsPage(ctx, session, productUrl)
	if err != nil {
		return nil, err
	}

	reviews := []Review{}
	for page := 1; page <= MaxReviewPages; page++ {
		pageUrl := NextReviewPageUrl(base, page)
		err := session.Navigate(ctx, pageUrl)
		if err != nil {
			s.tel.ReportWarning(report_scraper_reviews, err, pageUrl)
			continue
		}
		err = s.clock.Sleep(ctx, s.delays.ReviewsPage)
		if err != nil {
			return nil, err
		}
		doc, err := s.document(ctx, session)
		if err != nil {
			s.tel.ReportWarning(report_scraper_reviews, err, pageUrl)
			continue
		}
		found, problems := parseReviews(doc)
		for _, p := range problems {
			s.tel.ReportWarning(report_scraper_reviews, p, pageUrl)
		}
		reviews = append(reviews, found...)
	}
	return reviews, nil
}

// ScrapeProduct reads the product attributes, the review count and up to
// MaxReviewPages pages of reviews of a single product.
func (s *Scraper) ScrapeProduct(ctx context.Context, productUrl string) (ProductDetail, error) {
	ctx, span := tracer.Start(ctx, "ScrapeProduct")
	defer span.End()
	span.SetAttributes(attribute.String("url", productUrl))

	detail, err := s.scrapeProduct(ctx, productUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape product")
		return ProductDetail{}, err
	}
	span.SetAttributes(attribute.Int("reviews", len(detail.Reviews)))
	return detail, nil
}

func (s *Scraper) scrapeProduct(ctx context.Context, productUrl string) (ProductDetail, error) {
	session, err := s.connect(ctx)
	if err != nil {
		return ProductDetail{}, err
	}
	defer func() {
		err := session.Close()
		if err != nil {
			s.tel.ReportWarning(report_scraper_close, err)
		}
	}()

	doc, err := s.loadProductPage(ctx, session, productUrl)
	if err != nil {
		return ProductDetail{}, err
	}
	detail, problems := parseProductPage(doc, productUrl)
	for _, p := range problems {
		s.tel.ReportWarning(report_scraper_product_page, p, productUrl)
	}

	detail.ReviewsCount, err = s.scrapeReviewsCount(ctx, session, productUrl)
	if err != nil {
		return ProductDetail{}, err
	}

	reviews, err := s.scrapeReviews(ctx, session, productUrl)
	if errors.Is(err, ErrReviewsLinkNotFound) {
		s.tel.ReportWarning(report_scraper_reviews, err, productUrl)
		reviews = []Review{}
	} else if err != nil {
		return ProductDetail{}, err
	}
	detail.Reviews = reviews

	s.tel.ReportCount(report_scraper_reviews, int64(len(reviews)))
	return detail, nil
}
