package normalize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"nytbestsellers/internal/scrapers/amazon"
	"nytbestsellers/internal/scrapers/nyt"
	"nytbestsellers/internal/snapshot"
	"nytbestsellers/lib/textutil"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("internal/normalize")

var (
	ErrMissingField = errors.New("normalize: missing field")
	ErrTypeMismatch = errors.New("normalize: type mismatch")
	ErrDateFormat   = errors.New("normalize: unrecognized date")
)

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

// sortedSet deduplicates and sorts, the result is never nil.
func sortedSet[T string | int](values []T) []T {
	out := slices.Clone(values)
	if out == nil {
		out = []T{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// BuildEntity folds the catalog row and the product detail into one book.
func BuildEntity(id int64, row *nyt.Book, details []amazon.ProductDetail, genre *string) (Book, error) {
	if row == nil {
		return Book{}, missing("nyt_data")
	}

	required := []struct {
		name  string
		value *string
	}{
		{"amazon_product_url", row.AmazonProductURL},
		{"title", row.Title},
		{"author", row.Author},
		{"book_uri", row.BookURI},
		{"contributor", row.Contributor},
		{"description", row.Description},
		{"publisher", row.Publisher},
	}
	for _, field := range required {
		if field.value == nil {
			return Book{}, missing(field.name)
		}
	}
	if row.ISBNs == nil {
		return Book{}, missing("isbns")
	}
	if row.Price == nil {
		return Book{}, missing("price")
	}
	if row.Dagger == nil {
		return Book{}, missing("dagger")
	}
	if row.Asterisk == nil {
		return Book{}, missing("asterisk")
	}

	var isbn10, isbn13 []string
	for _, isbn := range row.ISBNs {
		isbn10 = append(isbn10, isbn.ISBN10)
		isbn13 = append(isbn13, isbn.ISBN13)
	}

	prices := []string{string(*row.Price)}
	for _, detail := range details {
		if detail.Price != nil {
			prices = append(prices, *detail.Price)
		}
	}

	data := BookData{
		URL:         *row.AmazonProductURL,
		Title:       *row.Title,
		Author:      *row.Author,
		ISBN10:      sortedSet(isbn10),
		ISBN13:      sortedSet(isbn13),
		BookURI:     sortedSet([]string{*row.BookURI}),
		Contributor: *row.Contributor,
		Description: sortedSet([]string{*row.Description}),
		Publisher:   *row.Publisher,
		Price:       sortedSet(prices),
		Dagger:      *row.Dagger,
		Asterisk:    sortedSet([]int{*row.Asterisk}),
		Genre:       genre,
	}
	if len(details) > 0 {
		detail := details[0]
		data.Rating = detail.Rating
		data.NumberOfStars = detail.NumberOfStars
		data.NumberOfPages = detail.NumberOfPages
		data.Language = detail.Language
		data.PublicationDate = detail.PublicationDate
		data.ReviewsCount = detail.ReviewsCount
	}

	return Book{ID: id, BookData: data}, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func strictString(raw json.RawMessage, field string) (string, error) {
	if isNull(raw) {
		return "", missing(field)
	}
	var value string
	err := json.Unmarshal(raw, &value)
	if err != nil {
		return "", fmt.Errorf("%w: %s is %s, not a string", ErrTypeMismatch, field, raw)
	}
	return value, nil
}

var integerLiteral = regexp.MustCompile(`^-?\d+$`)

func strictInt(raw json.RawMessage, field string) (int64, error) {
	if isNull(raw) {
		return 0, missing(field)
	}
	trimmed := bytes.TrimSpace(raw)
	if !integerLiteral.Match(trimmed) {
		return 0, fmt.Errorf("%w: %s is %s, not an integer", ErrTypeMismatch, field, raw)
	}
	value, err := strconv.ParseInt(string(trimmed), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrTypeMismatch, field, err)
	}
	return value, nil
}

// BuildRankRow projects the ranking of a catalog row, the rank fields must be
// json integers and date and category json strings.
func BuildRankRow(id int64, row *nyt.Book) (RankRecord, error) {
	if row == nil {
		return RankRecord{}, missing("nyt_data")
	}

	date, err := strictString(row.BestsellersDate, "bestsellers_date")
	if err != nil {
		return RankRecord{}, err
	}
	category, err := strictString(row.Category, "category")
	if err != nil {
		return RankRecord{}, err
	}
	rank, err := strictInt(row.Rank, "rank")
	if err != nil {
		return RankRecord{}, err
	}
	rankLastWeek, err := strictInt(row.RankLastWeek, "rank_last_week")
	if err != nil {
		return RankRecord{}, err
	}
	weeksOnList, err := strictInt(row.WeeksOnList, "weeks_on_list")
	if err != nil {
		return RankRecord{}, err
	}

	return RankRecord{
		IDBook:       id,
		Date:         date,
		Category:     category,
		Rank:         rank,
		RankLastWeek: rankLastWeek,
		WeeksOnList:  weeksOnList,
	}, nil
}

var datePrefixRegex = regexp.MustCompile(`on\s+`)

// ConvertToDate turns "Reviewed in the United States on July 24, 2023" into
// "2023-07-24", the date is what follows the last "on ".
func ConvertToDate(text string) (string, error) {
	matches := datePrefixRegex.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %q", ErrDateFormat, text)
	}
	last := matches[len(matches)-1]
	date, err := textutil.ParseLongDate(text[last[1]:])
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrDateFormat, text, err)
	}
	return date, nil
}

func parseStars(stars string) (float64, error) {
	value, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(stars), ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: stars %q", ErrTypeMismatch, stars)
	}
	return value, nil
}

// BuildReviewRows numbers the reviews of every product detail from 1 in the
// order they were harvested.
func BuildReviewRows(id int64, details []amazon.ProductDetail) ([]ReviewRecord, error) {
	rows := []ReviewRecord{}
	for _, detail := range details {
		for i, review := range detail.Reviews {
			date, err := ConvertToDate(review.Date)
			if err != nil {
				return nil, err
			}
			stars, err := parseStars(review.Stars)
			if err != nil {
				return nil, err
			}
			rows = append(rows, ReviewRecord{
				IDBook:   id,
				IDReview: int64(i + 1),
				Stars:    stars,
				Title:    review.Title,
				Text:     review.Text,
				Date:     date,
			})
		}
	}
	return rows, nil
}

// Transform builds all three payloads of an enriched item, nothing is returned
// unless every one of them could be built.
func Transform(ctx context.Context, item snapshot.EnrichedItem) (Records, error) {
	_, span := tracer.Start(ctx, "Transform")
	defer span.End()
	span.SetAttributes(attribute.Int64("id", item.NewID))

	records, err := transform(item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to transform item")
		return Records{}, err
	}
	return records, nil
}

func transform(item snapshot.EnrichedItem) (Records, error) {
	book, err := BuildEntity(item.NewID, item.NYTData, item.AmazonData, item.AppleData)
	if err != nil {
		return Records{}, fmt.Errorf("entity: %w", err)
	}
	rank, err := BuildRankRow(item.NewID, item.NYTData)
	if err != nil {
		return Records{}, fmt.Errorf("rank: %w", err)
	}
	reviews, err := BuildReviewRows(item.NewID, item.AmazonData)
	if err != nil {
		return Records{}, fmt.Errorf("reviews: %w", err)
	}
	return Records{
		Book:    book,
		Ranks:   []RankRecord{rank},
		Reviews: reviews,
	}, nil
}
