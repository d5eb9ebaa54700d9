package amazon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"nytbestsellers/internal/components/chrono"
	"nytbestsellers/internal/components/telemetry"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testProductUrl = "https://www.amazon.com/dp/006267112X?tag=NYTBSREV-20"
	testReviewsRef = "/product-reviews/006267112X/ref=cm_cr_dp_d_show_all_btm?ie=UTF8&reviewerType=all_reviews"
	testReviewsUrl = "https://www.amazon.com/product-reviews/006267112X/ref=cm_cr_dp_d_show_all_btm?ie=UTF8&reviewerType=all_reviews"
)

const productPage = `<html><body>
<span id="productTitle"> Lessons in Chemistry </span>
<span class="a-icon-alt">4.5 out of 5 stars</span>
<span id="acrCustomerReviewText">12,345 ratings</span>
<span class="a-size-base a-color-price a-color-price">$14.99</span>
<div id="rpi-attribute-book_details-fiona_pages">
  <span>Print length</span>
  <span>400 pages</span>
</div>
<div id="rpi-attribute-language">
  <span>Language</span>
  <span>English</span>
</div>
<div id="rpi-attribute-book_details-publication_date">
  <span>Publication date</span>
  <span>April 5, 2022</span>
</div>
<div id="rpi-attribute-book_details-isbn10">
  <span>ISBN-10</span>
  <span>038554734X</span>
</div>
<div id="rpi-attribute-book_details-isbn13">
  <span>ISBN-13</span>
  <span>978-0385547345</span>
</div>
</body></html>`

const captchaPage = `<html><body><form action="/errors/validateCaptcha"></form></body></html>`

const reviewsCountPage = `<html><body>
<div data-hook="cr-filter-info-review-rating-count"> 12,345 total ratings, 1,234 with reviews </div>
</body></html>`

const reviewsPage = `<html><body>
<div data-hook="review">
  <a data-hook="review-title"><i data-hook="review-star-rating"><span>5.0 out of 5 stars</span></i>
  <span>Loved it</span></a>
  <span data-hook="review-date">Reviewed in the United States on July 24, 2023</span>
  <span data-hook="review-body"><span>Great read.</span></span>
</div>
<div data-hook="review">
  <a data-hook="review-title"><i data-hook="review-star-rating"><span>1.0 out of 5 stars</span></i>
  <span>No body</span></a>
  <span data-hook="review-date">Reviewed in the United States on July 25, 2023</span>
</div>
</body></html>`

type fakeSession struct {
	// pages holds the successive loads of an url, the last one repeats.
	pages     map[string][]string
	loads     map[string]int
	current   string
	navigated []string

	clickErr error
	link     string
	linkErr  error
	closed   bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		pages: map[string][]string{
			testProductUrl:                {productPage},
			ReviewsBaseUrl + "006267112X": {reviewsCountPage},
		},
		loads: map[string]int{},
		link:  testReviewsRef,
	}
}

func (f *fakeSession) Navigate(_ context.Context, url string) error {
	f.current = url
	f.navigated = append(f.navigated, url)
	f.loads[url]++
	return nil
}

func (f *fakeSession) HTML(context.Context) (string, error) {
	if strings.HasPrefix(f.current, "https://www.amazon.com/product-reviews/006267112X/") {
		return reviewsPage, nil
	}
	loads, ok := f.pages[f.current]
	if !ok {
		return "<html></html>", nil
	}
	index := min(f.loads[f.current], len(loads)) - 1
	return loads[index], nil
}

func (f *fakeSession) Reload(context.Context) error {
	f.loads[f.current]++
	return nil
}

func (f *fakeSession) ClickIntoView(context.Context, string, time.Duration) error {
	return f.clickErr
}

func (f *fakeSession) LinkByText(context.Context, string, time.Duration) (string, error) {
	if f.linkErr != nil {
		return "", f.linkErr
	}
	return f.link, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

type fakeLauncher struct {
	session  *fakeSession
	failures []error
	attempts int
}

func (l *fakeLauncher) Launch(context.Context) (Session, error) {
	l.attempts++
	if l.attempts <= len(l.failures) {
		return nil, l.failures[l.attempts-1]
	}
	return l.session, nil
}

func newTestScraper(launcher Launcher, tel telemetry.API) (*Scraper, *chrono.FakeImpl) {
	clock := chrono.NewFakeImpl(time.Date(2023, 7, 24, 0, 0, 0, 0, time.UTC))
	return NewScraper(Options{Launcher: launcher, Clock: clock}, tel), clock
}

func TestScrapeProduct(t *testing.T) {
	session := newFakeSession()
	tel := telemetry.NewRecordingAPI()
	scraper, _ := newTestScraper(&fakeLauncher{session: session}, tel)

	detail, err := scraper.ScrapeProduct(context.Background(), testProductUrl)
	require.NoError(t, err)
	require.True(t, session.closed)

	require.Equal(t, testProductUrl, detail.URL)
	require.Equal(t, "Lessons in Chemistry", *detail.Title)
	require.Equal(t, "12,345", *detail.Rating)
	require.Equal(t, "4.5", *detail.NumberOfStars)
	require.Equal(t, "$14.99", *detail.Price)
	require.Equal(t, "400", *detail.NumberOfPages)
	require.Equal(t, "English", *detail.Language)
	require.Equal(t, "2022-04-05", *detail.PublicationDate)
	require.Equal(t, "038554734X", *detail.ISBN10)
	require.Equal(t, "978-0385547345", *detail.ISBN13)
	require.Equal(t, 1234, *detail.ReviewsCount)

	// every page yields one complete review and one without a body
	require.Len(t, detail.Reviews, MaxReviewPages)
	require.Equal(t, Review{
		Stars: "5.0",
		Title: "Loved it",
		Text:  "Great read.",
		Date:  "Reviewed in the United States on July 24, 2023",
	}, detail.Reviews[0])
	require.True(t, tel.Has(telemetry.LevelWarning, report_scraper_reviews))

	for page := 1; page <= MaxReviewPages; page++ {
		require.Contains(t, session.navigated, NextReviewPageUrl(testReviewsUrl, page))
	}
}

func TestScrapeProductCaptcha(t *testing.T) {
	t.Run("recovers", func(t *testing.T) {
		session := newFakeSession()
		session.pages[testProductUrl] = []string{captchaPage, captchaPage, productPage}
		scraper, _ := newTestScraper(&fakeLauncher{session: session}, telemetry.NewRecordingAPI())

		detail, err := scraper.ScrapeProduct(context.Background(), testProductUrl)
		require.NoError(t, err)
		require.Equal(t, "12,345", *detail.Rating)
	})

	t.Run("exhausted", func(t *testing.T) {
		session := newFakeSession()
		session.pages[testProductUrl] = []string{captchaPage}
		tel := telemetry.NewRecordingAPI()
		scraper, _ := newTestScraper(&fakeLauncher{session: session}, tel)

		_, err := scraper.ScrapeProduct(context.Background(), testProductUrl)
		require.ErrorIs(t, err, ErrPageLoadExhausted)
		require.Equal(t, MaxPageLoadRetries+1, session.loads[testProductUrl])
		require.Len(t, tel.Reports(telemetry.LevelWarning), MaxPageLoadRetries+1)
		require.True(t, session.closed)
	})
}

func TestScrapeProductWithoutReviewsLink(t *testing.T) {
	session := newFakeSession()
	session.linkErr = errors.New("context deadline exceeded")
	tel := telemetry.NewRecordingAPI()
	scraper, _ := newTestScraper(&fakeLauncher{session: session}, tel)

	detail, err := scraper.ScrapeProduct(context.Background(), testProductUrl)
	require.NoError(t, err)
	require.NotNil(t, detail.Reviews)
	require.Empty(t, detail.Reviews)
	require.True(t, tel.Has(telemetry.LevelWarning, report_scraper_reviews))
}

func TestScrapeProductRatingsSummaryUnclickable(t *testing.T) {
	session := newFakeSession()
	session.clickErr = errors.New("element not interactable")
	scraper, _ := newTestScraper(&fakeLauncher{session: session}, telemetry.NewRecordingAPI())

	_, err := scraper.ScrapeProduct(context.Background(), testProductUrl)
	require.ErrorIs(t, err, ErrElementNotFound)
	require.True(t, session.closed)
}

func TestConnectRetries(t *testing.T) {
	refused := fmt.Errorf("dial: %w", syscall.ECONNREFUSED)

	cases := []struct {
		name     string
		failures []error
		attempts int
		err      error
	}{
		{
			name:     "recovers after refusals",
			failures: []error{refused, refused, refused},
			attempts: 4,
		},
		{
			name:     "gives up",
			failures: []error{refused, refused, refused, refused, refused, refused, refused, refused, refused, refused},
			attempts: MaxConnectAttempts,
			err:      ErrSessionUnavailable,
		},
		{
			name: "recovers after a refusal reported as text",
			failures: []error{
				errors.New("dial tcp 127.0.0.1:9222: connect: connection refused"),
			},
			attempts: 2,
		},
		{
			name: "does not retry dns failures",
			failures: []error{
				&net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host", Name: "chromium", IsNotFound: true}},
			},
			attempts: 1,
			err:      ErrSessionUnavailable,
		},
		{
			name: "does not retry dial timeouts",
			failures: []error{
				&net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "i/o timeout", Name: "chromium", IsTimeout: true}},
			},
			attempts: 1,
			err:      ErrSessionUnavailable,
		},
		{
			name:     "does not retry other errors",
			failures: []error{errors.New("chromium not installed")},
			attempts: 1,
			err:      ErrSessionUnavailable,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			launcher := &fakeLauncher{session: newFakeSession(), failures: test.failures}
			scraper, _ := newTestScraper(launcher, telemetry.NewRecordingAPI())

			session, err := scraper.connect(context.Background())
			require.Equal(t, test.attempts, launcher.attempts)
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, session)
		})
	}
}

func TestConnectSettles(t *testing.T) {
	scraper, clock := newTestScraper(&fakeLauncher{session: newFakeSession()}, telemetry.NewRecordingAPI())
	_, err := scraper.connect(context.Background())
	require.NoError(t, err)
	require.GreaterOrEqual(t, clock.Elapsed(), 2100*time.Millisecond)
	require.Less(t, clock.Elapsed(), 5100*time.Millisecond)
}
