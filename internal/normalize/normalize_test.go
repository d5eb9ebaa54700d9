package normalize

import (
	"context"
	"encoding/json"
	"nytbestsellers/internal/scrapers/amazon"
	"nytbestsellers/internal/scrapers/nyt"
	"nytbestsellers/internal/snapshot"
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func catalogRow() *nyt.Book {
	price := nyt.Price("0.00")
	row := &nyt.Book{
		AmazonProductURL: ptr("https://www.amazon.com/dp/038554734X?tag=NYTBSREV-20"),
		Title:            ptr("LESSONS IN CHEMISTRY"),
		Author:           ptr("Bonnie Garmus"),
		ISBNs: []nyt.ISBN{
			{ISBN10: "038554734X", ISBN13: "9780385547345"},
			{ISBN10: "0385547358", ISBN13: "9780385547352"},
			{ISBN10: "038554734X", ISBN13: "9780385547345"},
		},
		BookURI:      ptr("nyt://book/6e6c7b9e"),
		Contributor:  ptr("by Bonnie Garmus"),
		Description:  ptr("A scientist becomes a cooking show star."),
		Publisher:    ptr("Doubleday"),
		Price:        &price,
		Dagger:       ptr(0),
		Asterisk:     ptr(0),
		Rank:         json.RawMessage(`1`),
		RankLastWeek: json.RawMessage(`2`),
		WeeksOnList:  json.RawMessage(`40`),
	}
	row.Tag("Hardcover Fiction", "2023-07-24")
	return row
}

func productDetail() amazon.ProductDetail {
	return amazon.ProductDetail{
		URL:           "https://www.amazon.com/dp/038554734X?tag=NYTBSREV-20",
		Rating:        ptr("12,345"),
		NumberOfStars: ptr("4.5"),
		Price:         ptr("$14.99"),
		NumberOfPages: ptr("400"),
		Language:      ptr("English"),
		ReviewsCount:  ptr(1234),
		Reviews: []amazon.Review{
			{Stars: "5.0", Title: "Loved it", Text: "Great read.", Date: "Reviewed in the United States on July 24, 2023"},
			{Stars: "2.0", Title: "Meh", Text: "Slow.", Date: "Reviewed in the United States on January 3, 2023"},
		},
	}
}

func TestBuildEntity(t *testing.T) {
	genre := "Fiction & Literature"
	book, err := BuildEntity(7, catalogRow(), []amazon.ProductDetail{productDetail()}, &genre)
	require.NoError(t, err)

	require.Equal(t, int64(7), book.ID)
	require.Equal(t, "https://www.amazon.com/dp/038554734X?tag=NYTBSREV-20", book.URL)
	require.Equal(t, []string{"038554734X", "0385547358"}, book.ISBN10)
	require.Equal(t, []string{"9780385547345", "9780385547352"}, book.ISBN13)
	require.Equal(t, []string{"$14.99", "0.00"}, book.Price)
	require.Equal(t, []int{0}, book.Asterisk)
	require.Equal(t, 0, book.Dagger)
	require.Equal(t, genre, *book.Genre)
	require.Equal(t, "4.5", *book.NumberOfStars)
	require.Equal(t, 1234, *book.ReviewsCount)
	require.Nil(t, book.PublicationDate)
}

func TestBuildEntityMissingField(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(row *nyt.Book)
	}{
		{"url", func(row *nyt.Book) { row.AmazonProductURL = nil }},
		{"title", func(row *nyt.Book) { row.Title = nil }},
		{"isbns", func(row *nyt.Book) { row.ISBNs = nil }},
		{"publisher", func(row *nyt.Book) { row.Publisher = nil }},
		{"price", func(row *nyt.Book) { row.Price = nil }},
		{"dagger", func(row *nyt.Book) { row.Dagger = nil }},
		{"asterisk", func(row *nyt.Book) { row.Asterisk = nil }},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			row := catalogRow()
			test.mutate(row)
			_, err := BuildEntity(1, row, nil, nil)
			require.ErrorIs(t, err, ErrMissingField)
		})
	}

	_, err := BuildEntity(1, nil, nil, nil)
	require.ErrorIs(t, err, ErrMissingField)
}

func TestBuildRankRow(t *testing.T) {
	rank, err := BuildRankRow(7, catalogRow())
	require.NoError(t, err)
	require.Equal(t, RankRecord{
		IDBook:       7,
		Date:         "2023-07-24",
		Category:     "Hardcover Fiction",
		Rank:         1,
		RankLastWeek: 2,
		WeeksOnList:  40,
	}, rank)

	cases := []struct {
		name   string
		mutate func(row *nyt.Book)
		err    error
	}{
		{"rank as string", func(row *nyt.Book) { row.Rank = json.RawMessage(`"3"`) }, ErrTypeMismatch},
		{"rank as float", func(row *nyt.Book) { row.Rank = json.RawMessage(`3.0`) }, ErrTypeMismatch},
		{"weeks as bool", func(row *nyt.Book) { row.WeeksOnList = json.RawMessage(`true`) }, ErrTypeMismatch},
		{"date as number", func(row *nyt.Book) { row.BestsellersDate = json.RawMessage(`20230724`) }, ErrTypeMismatch},
		{"rank missing", func(row *nyt.Book) { row.Rank = nil }, ErrMissingField},
		{"category null", func(row *nyt.Book) { row.Category = json.RawMessage(`null`) }, ErrMissingField},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			row := catalogRow()
			test.mutate(row)
			_, err := BuildRankRow(7, row)
			require.ErrorIs(t, err, test.err)
		})
	}
}

func TestConvertToDate(t *testing.T) {
	cases := []struct {
		text string
		date string
		err  error
	}{
		{text: "Reviewed in the United States on July 24, 2023", date: "2023-07-24"},
		{text: "Reviewed in Canada on January 3, 2021", date: "2021-01-03"},
		{text: "Reviewed on London on March 9, 2020", date: "2020-03-09"},
		{text: "July 24, 2023", err: ErrDateFormat},
		{text: "Reviewed in the United States on July 32, 2023", err: ErrDateFormat},
		{text: "Reviewed in the United States on 24 July 2023", err: ErrDateFormat},
	}
	for _, test := range cases {
		date, err := ConvertToDate(test.text)
		if test.err != nil {
			require.ErrorIs(t, err, test.err, test.text)
			continue
		}
		require.NoError(t, err, test.text)
		require.Equal(t, test.date, date)
	}
}

func TestBuildReviewRows(t *testing.T) {
	rows, err := BuildReviewRows(7, []amazon.ProductDetail{productDetail()})
	require.NoError(t, err)
	require.Equal(t, []ReviewRecord{
		{IDBook: 7, IDReview: 1, Stars: 5, Title: "Loved it", Text: "Great read.", Date: "2023-07-24"},
		{IDBook: 7, IDReview: 2, Stars: 2, Title: "Meh", Text: "Slow.", Date: "2023-01-03"},
	}, rows)

	empty, err := BuildReviewRows(7, nil)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	detail := productDetail()
	detail.Reviews[1].Stars = "five"
	_, err = BuildReviewRows(7, []amazon.ProductDetail{detail})
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestTransformWithoutAppleLink(t *testing.T) {
	item := snapshot.EnrichedItem{
		NewID:      3,
		NYTData:    catalogRow(),
		AmazonData: []amazon.ProductDetail{productDetail()},
	}
	records, err := Transform(context.Background(), item)
	require.NoError(t, err)
	require.Nil(t, records.Book.Genre)
	require.Len(t, records.Ranks, 1)
	require.Len(t, records.Reviews, 2)

	document, err := records.Book.Document()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(document, &decoded))
	require.Contains(t, decoded, "genre")
	require.Nil(t, decoded["genre"])
	require.NotContains(t, decoded, "id")

	book, err := BookFromDocument(3, document)
	require.NoError(t, err)
	require.Equal(t, records.Book, book)
}

func TestTransformIsAllOrNothing(t *testing.T) {
	row := catalogRow()
	row.Rank = json.RawMessage(`"1"`)
	_, err := Transform(context.Background(), snapshot.EnrichedItem{NewID: 3, NYTData: row})
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestTitleSimilarity(t *testing.T) {
	require.GreaterOrEqual(t, TitleSimilarity("LESSONS IN CHEMISTRY", "Lessons in Chemistry: A Novel"), TitleMatchThreshold)
	require.Less(t, TitleSimilarity("LESSONS IN CHEMISTRY", "Spare"), TitleMatchThreshold)
	require.Equal(t, 0.0, TitleSimilarity("", "anything"))
}
