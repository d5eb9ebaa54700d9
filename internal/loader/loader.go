package loader

import (
	"context"
	"errors"
	"fmt"
	"nytbestsellers/internal/components/assert"
	"nytbestsellers/internal/components/telemetry"
	"nytbestsellers/internal/normalize"
	"nytbestsellers/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("internal/loader")

var (
	ErrDuplicateURL = errors.New("loader: url stored under another id")
	ErrIDConflict   = errors.New("loader: id stored for another url")
)

const (
	report_loader_entity  = "loader.entity"
	report_loader_ranks   = "loader.ranks"
	report_loader_reviews = "loader.reviews"
)

// RankKey identifies a rank row: book id, date and category concatenated.
func RankKey(r normalize.RankRecord) string {
	return fmt.Sprintf("%d%s%s", r.IDBook, r.Date, r.Category)
}

// ReviewKey identifies a review row: book id followed by the 5 digit sequence number.
func ReviewKey(r normalize.ReviewRecord) string {
	return fmt.Sprintf("%d%05d", r.IDBook, r.IDReview)
}

// Loader appends records to the store, skipping whatever is stored already so
// that loading the same records twice leaves the store as it was.
type Loader struct {
	store store.Store
	tel   telemetry.API
}

func NewLoader(s store.Store, tel telemetry.API) Loader {
	assert.NotNil(s)
	assert.NotNil(tel)
	return Loader{
		store: s,
		tel:   telemetry.NewScopedAPI("loader", tel),
	}
}

// LoadEntity inserts the book unless it is stored already. A url stored under a
// different id, or an id stored for a different url, is an error.
func (l Loader) LoadEntity(ctx context.Context, book normalize.Book) (bool, error) {
	refs, err := l.store.ListBookRefs(ctx)
	if err != nil {
		return false, fmt.Errorf("list books: %w", err)
	}
	for _, ref := range refs {
		if ref.ID == book.ID {
			if ref.URL != book.URL {
				l.tel.ReportBroken(report_loader_entity, "id already stored for another url", book.ID, ref.URL, book.URL)
				return false, fmt.Errorf("%w: book %d is %s", ErrIDConflict, ref.ID, ref.URL)
			}
			l.tel.ReportDebug("book already stored", book.ID)
			return false, nil
		}
		if ref.URL == book.URL {
			l.tel.ReportBroken(report_loader_entity, "url already stored under another id", book.URL, ref.ID, book.ID)
			return false, fmt.Errorf("%w: %s is book %d", ErrDuplicateURL, book.URL, ref.ID)
		}
	}
	err = l.store.InsertBook(ctx, book)
	if err != nil {
		return false, fmt.Errorf("insert book: %w", err)
	}
	return true, nil
}

// freshRows returns the rows whose key is neither stored nor repeated earlier
// in rows.
func freshRows[T any](stored []T, rows []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(stored))
	for _, row := range stored {
		seen[key(row)] = struct{}{}
	}
	var out []T
	for _, row := range rows {
		k := key(row)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, row)
	}
	return out
}

// LoadRankRows appends the rank rows not stored yet and returns how many.
func (l Loader) LoadRankRows(ctx context.Context, rows []normalize.RankRecord) (int, error) {
	stored, err := l.store.ListRanks(ctx)
	if err != nil {
		return 0, fmt.Errorf("list ranks: %w", err)
	}
	fresh := freshRows(stored, rows, RankKey)
	err = l.store.InsertRanks(ctx, fresh)
	if err != nil {
		return 0, fmt.Errorf("insert ranks: %w", err)
	}
	l.tel.ReportCount(report_loader_ranks, int64(len(fresh)))
	return len(fresh), nil
}

// LoadReviewRows appends the review rows not stored yet and returns how many.
func (l Loader) LoadReviewRows(ctx context.Context, rows []normalize.ReviewRecord) (int, error) {
	stored, err := l.store.ListReviews(ctx)
	if err != nil {
		return 0, fmt.Errorf("list reviews: %w", err)
	}
	fresh := freshRows(stored, rows, ReviewKey)
	err = l.store.InsertReviews(ctx, fresh)
	if err != nil {
		return 0, fmt.Errorf("insert reviews: %w", err)
	}
	l.tel.ReportCount(report_loader_reviews, int64(len(fresh)))
	return len(fresh), nil
}

type Result struct {
	BookInserted bool
	Ranks        int
	Reviews      int
}

// Load loads the entity, then its ranks, then its reviews.
func (l Loader) Load(ctx context.Context, records normalize.Records) (Result, error) {
	ctx, span := tracer.Start(ctx, "Load")
	defer span.End()
	span.SetAttributes(attribute.Int64("id", records.Book.ID))

	result, err := l.load(ctx, records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load records")
		return result, err
	}
	span.SetAttributes(
		attribute.Bool("book_inserted", result.BookInserted),
		attribute.Int("ranks", result.Ranks),
		attribute.Int("reviews", result.Reviews),
	)
	return result, nil
}

func (l Loader) load(ctx context.Context, records normalize.Records) (Result, error) {
	var result Result
	var err error

	result.BookInserted, err = l.LoadEntity(ctx, records.Book)
	if err != nil {
		return result, err
	}
	result.Ranks, err = l.LoadRankRows(ctx, records.Ranks)
	if err != nil {
		return result, err
	}
	result.Reviews, err = l.LoadReviewRows(ctx, records.Reviews)
	if err != nil {
		return result, err
	}
	return result, nil
}
