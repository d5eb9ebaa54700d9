package reconcile

import (
	"context"
	"encoding/json"
	"nytbestsellers/internal/components/telemetry"
	"nytbestsellers/internal/db"
	"nytbestsellers/internal/loader"
	"nytbestsellers/internal/normalize"
	"nytbestsellers/internal/scrapers/nyt"
	"nytbestsellers/internal/store"
	"nytbestsellers/lib/testutil"
	"testing"

	"github.com/stretchr/testify/require"
)

func catalogRow(url string) nyt.Book {
	price := nyt.Price("0.00")
	book := nyt.Book{
		AmazonProductURL: ptr(url),
		Title:            ptr("LESSONS IN CHEMISTRY"),
		Author:           ptr("Bonnie Garmus"),
		ISBNs:            []nyt.ISBN{{ISBN10: "038554734X", ISBN13: "9780385547345"}},
		BookURI:          ptr("nyt://book/6e6c7b9e"),
		Contributor:      ptr("by Bonnie Garmus"),
		Description:      ptr("A scientist becomes a cooking show star."),
		Publisher:        ptr("Doubleday"),
		Price:            &price,
		Dagger:           ptr(0),
		Asterisk:         ptr(0),
		Rank:             json.RawMessage(`1`),
		RankLastWeek:     json.RawMessage(`2`),
		WeeksOnList:      json.RawMessage(`40`),
		BuyLinks:         []nyt.BuyLink{{Name: "Amazon", URL: url}},
	}
	book.Tag("Hardcover Fiction", "2023-07-24")
	return book
}

func TestPipelinePersistsItemWithoutAppleLink(t *testing.T) {
	ctx := context.Background()
	sqlDB := testutil.SetupDB(t, testutil.DBParams{
		Name:   "internal/reconcile",
		Schema: db.Schema,
	})
	st := store.NewSQLStore(sqlDB)

	url := "https://www.amazon.com/dp/038554734X?tag=NYTBSREV-20"
	source := &fakeSource{rows: []nyt.Book{catalogRow(url)}}
	labels := &fakeLabels{}
	engine, raw := newTestEngine(
		t,
		source,
		&fakeProducts{title: "Lessons in Chemistry: A Novel"},
		labels,
		st,
		telemetry.NewRecordingAPI(),
	)

	item, err := engine.CollectForPeriod(ctx, nyt.Period{Year: 2023, Month: 7, Day: 24})
	require.NoError(t, err)
	require.NotNil(t, item)
	require.Empty(t, labels.calls)

	staged, err := raw.LoadStaging()
	require.NoError(t, err)
	records, err := normalize.Transform(ctx, staged)
	require.NoError(t, err)

	result, err := loader.NewLoader(st, telemetry.NewRecordingAPI()).Load(ctx, records)
	require.NoError(t, err)
	require.True(t, result.BookInserted)
	require.Equal(t, 1, result.Ranks)

	var genreType string
	err = sqlDB.QueryRowContext(ctx, "select json_type(data, '$.genre') from book where id = 1").Scan(&genreType)
	require.NoError(t, err)
	require.Equal(t, "null", genreType)

	book, err := st.LatestBook(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), book.ID)
	require.Equal(t, url, book.URL)
	require.Nil(t, book.Genre)

	ranks, err := st.ListRanksForBook(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []normalize.RankRecord{{
		IDBook:       1,
		Date:         "2023-07-24",
		Category:     "Hardcover Fiction",
		Rank:         1,
		RankLastWeek: 2,
		WeeksOnList:  40,
	}}, ranks)

	// the stored url is not picked again
	next, err := engine.CollectForPeriod(ctx, nyt.Period{Year: 2023, Month: 7, Day: 24})
	require.NoError(t, err)
	require.Nil(t, next)
}
