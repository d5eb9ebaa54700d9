package nyt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"nytbestsellers/internal/components/chrono"
	"nytbestsellers/internal/components/telemetry"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func bookJson(title, productUrl string, rank int) string {
	return fmt.Sprintf(`{
		"rank": %d,
		"rank_last_week": 0,
		"weeks_on_list": 1,
		"amazon_product_url": %q,
		"title": %q,
		"author": "Someone",
		"isbns": [{"isbn10": "0593321200", "isbn13": "9780593321201"}],
		"book_uri": "nyt://book/1",
		"contributor": "by Someone",
		"description": "A book.",
		"publisher": "Knopf",
		"price": "0.00",
		"dagger": 0,
		"asterisk": 0,
		"buy_links": [{"name": "Apple Books", "url": "https://goto.applebooks.apple/x"}]
	}`, rank, productUrl, title)
}

func listHandler(hits *int64, fail func(path string) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		if fail != nil && fail(r.URL.Path) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		name := strings.TrimSuffix(r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:], ".json")
		w.Write([]byte(fmt.Sprintf(
			`{"status": "OK", "results": {"list_name": %q, "books": [%s]}}`,
			name,
			bookJson("Title "+name, "https://www.amazon.com/dp/"+name, 1),
		)))
	}
}

func categories(names ...string) []ListName {
	out := make([]ListName, len(names))
	for i, n := range names {
		out[i] = ListName{ListName: n, ListNameEncoded: strings.ToLower(n)}
	}
	return out
}

func TestFetchBestsellersTagsRows(t *testing.T) {
	var hits int64
	server := httptest.NewServer(listHandler(&hits, nil))
	defer server.Close()

	client := newTestClient(t, server.URL, chrono.NewFakeImpl(time.Now()), telemetry.NewRecordingAPI())
	books, err := client.FetchBestsellers(
		context.Background(),
		categories("Fiction", "Nonfiction"),
		Period{Year: 2023, Month: 7, Day: 24},
	)
	require.NoError(t, err)
	require.Len(t, books, 2)

	var category, date string
	require.NoError(t, json.Unmarshal(books[1].Category, &category))
	require.NoError(t, json.Unmarshal(books[1].BestsellersDate, &date))
	require.Equal(t, "Nonfiction", category)
	require.Equal(t, "2023-07-24", date)
	require.Equal(t, "https://www.amazon.com/dp/nonfiction", books[1].ProductURL())

	appleUrl, ok := books[0].BuyLink(AppleBooksLink)
	require.True(t, ok)
	require.Equal(t, "https://goto.applebooks.apple/x", appleUrl)
}

func TestFetchBestsellersRateFloor(t *testing.T) {
	var hits int64
	server := httptest.NewServer(listHandler(&hits, nil))
	defer server.Close()

	clock := chrono.NewFakeImpl(time.Date(2023, 7, 24, 0, 0, 0, 0, time.UTC))
	client := newTestClient(t, server.URL, clock, telemetry.NewRecordingAPI())

	_, err := client.FetchBestsellers(
		context.Background(),
		categories("A", "B", "C"),
		Period{Year: 2023, Month: 7},
	)
	require.NoError(t, err)

	calls := atomic.LoadInt64(&hits)
	require.Equal(t, int64(15), calls)
	require.GreaterOrEqual(t, clock.Elapsed(), time.Duration(calls-1)*MinRequestDelay)
}

func TestFetchBestsellersSkipsFailedCells(t *testing.T) {
	var hits int64
	server := httptest.NewServer(listHandler(&hits, func(path string) bool {
		return strings.HasSuffix(path, "/broken.json")
	}))
	defer server.Close()

	tel := telemetry.NewRecordingAPI()
	client := newTestClient(t, server.URL, chrono.NewFakeImpl(time.Now()), tel)

	books, err := client.FetchBestsellers(
		context.Background(),
		categories("Fiction", "Broken", "Nonfiction"),
		Period{Year: 2023, Month: 7, Day: 24},
	)
	require.NoError(t, err)
	require.Len(t, books, 2)
	require.True(t, tel.Has(telemetry.LevelBroken, report_client_fetch_bestsellers))
}

// wallClock moves virtual time for pacing but really sleeps for short waits, the
// breaker only leaves the open state after wall clock time has passed.
type wallClock struct {
	*chrono.FakeImpl
}

func (c wallClock) Sleep(ctx context.Context, d time.Duration) error {
	if d < time.Second {
		return chrono.NewStandardImpl().Sleep(ctx, d)
	}
	return c.FakeImpl.Sleep(ctx, d)
}

func TestFetchBestsellersRecoversAfterBreakerOpens(t *testing.T) {
	var hits int64
	server := httptest.NewServer(listHandler(&hits, func(path string) bool {
		return strings.Contains(path, "/bad")
	}))
	defer server.Close()

	tel := telemetry.NewRecordingAPI()
	client, err := NewClient(ClientOptions{
		BaseUrl:        server.URL,
		ApiKey:         "test-key",
		Timeout:        500 * time.Millisecond,
		BreakerTimeout: 20 * time.Millisecond,
		Clock:          wallClock{FakeImpl: chrono.NewFakeImpl(time.Now())},
	}, tel)
	require.NoError(t, err)

	books, err := client.FetchBestsellers(
		context.Background(),
		categories("Bad1", "Bad2", "Bad3", "Bad4", "Bad5", "Fiction", "Nonfiction", "Poetry"),
		Period{Year: 2023, Month: 7, Day: 24},
	)
	require.NoError(t, err)
	require.Len(t, books, 3)
	require.Equal(t, "https://www.amazon.com/dp/poetry", books[2].ProductURL())
	require.Equal(t, int64(8), atomic.LoadInt64(&hits))
	require.True(t, tel.Has(telemetry.LevelWarning, report_client_breaker))
}

func TestFetchBestsellersStopsOnCancel(t *testing.T) {
	var hits int64
	server := httptest.NewServer(listHandler(&hits, nil))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(t, server.URL, chrono.NewFakeImpl(time.Now()), telemetry.NewRecordingAPI())
	_, err := client.FetchBestsellers(ctx, categories("A", "B"), Period{Year: 2023, Month: 7, Day: 24})
	require.ErrorIs(t, err, context.Canceled)
}

func TestPriceAcceptsNumbers(t *testing.T) {
	var book Book
	require.NoError(t, json.Unmarshal([]byte(`{"price": 0}`), &book))
	require.Equal(t, Price("0"), *book.Price)

	require.NoError(t, json.Unmarshal([]byte(`{"price": "27.00"}`), &book))
	require.Equal(t, Price("27.00"), *book.Price)
}
