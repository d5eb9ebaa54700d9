package store

import (
	"context"
	"errors"
	"nytbestsellers/internal/normalize"
)

var ErrNotFound = errors.New("store: not found")

// BookRef is the part of a stored book reconciliation needs.
type BookRef struct {
	ID  int64
	URL string
}

// Store is the durable home of books, their ranks and their reviews.
//
// Inserts are plain appends, deduplication against what is stored is the
// loader's job.
type Store interface {
	ListBookRefs(ctx context.Context) ([]BookRef, error)
	InsertBook(ctx context.Context, book normalize.Book) error
	LatestBook(ctx context.Context) (normalize.Book, error)

	ListRanks(ctx context.Context) ([]normalize.RankRecord, error)
	ListRanksForBook(ctx context.Context, id int64) ([]normalize.RankRecord, error)
	// InsertRanks appends all rows or none of them.
	InsertRanks(ctx context.Context, rows []normalize.RankRecord) error

	ListReviews(ctx context.Context) ([]normalize.ReviewRecord, error)
	ListReviewsForBook(ctx context.Context, id int64) ([]normalize.ReviewRecord, error)
	// InsertReviews appends all rows or none of them.
	InsertReviews(ctx context.Context, rows []normalize.ReviewRecord) error

	Close() error
}
