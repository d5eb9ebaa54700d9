package store

import (
	"context"
	"database/sql"
	"errors"
	"nytbestsellers/internal/db"
	"nytbestsellers/internal/normalize"
)

// SQLStore is a Store over sqlite or libsql.
type SQLStore struct {
	sqlDB  *sql.DB
	qry    *db.Queries
	makeTx db.MakeTx
}

// NewSQLStore expects the schema to be applied already.
func NewSQLStore(sqlDB *sql.DB) *SQLStore {
	return &SQLStore{
		sqlDB:  sqlDB,
		qry:    db.New(sqlDB),
		makeTx: db.NewMakeTx(sqlDB),
	}
}

func (s *SQLStore) Close() error {
	return s.sqlDB.Close()
}

func (s *SQLStore) ListBookRefs(ctx context.Context) ([]BookRef, error) {
	rows, err := s.qry.ListBookRefs(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]BookRef, len(rows))
	for i, row := range rows {
		refs[i] = BookRef{ID: row.ID, URL: row.Url.String}
	}
	return refs, nil
}

func (s *SQLStore) InsertBook(ctx context.Context, book normalize.Book) error {
	document, err := book.Document()
	if err != nil {
		return err
	}
	return s.qry.CreateBook(ctx, db.CreateBookParams{
		ID:   book.ID,
		Data: string(document),
	})
}

func (s *SQLStore) LatestBook(ctx context.Context) (normalize.Book, error) {
	row, err := s.qry.GetLatestBook(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return normalize.Book{}, ErrNotFound
	}
	if err != nil {
		return normalize.Book{}, err
	}
	return normalize.BookFromDocument(row.ID, []byte(row.Data))
}

func rankFromRow(row db.Rank) normalize.RankRecord {
	return normalize.RankRecord{
		IDBook:       row.IDBook,
		Date:         row.Date,
		Category:     row.Category,
		Rank:         row.Rank,
		RankLastWeek: row.RankLastWeek,
		WeeksOnList:  row.WeeksOnList,
	}
}

func ranksFromRows(rows []db.Rank) []normalize.RankRecord {
	out := make([]normalize.RankRecord, len(rows))
	for i, row := range rows {
		out[i] = rankFromRow(row)
	}
	return out
}

func (s *SQLStore) ListRanks(ctx context.Context) ([]normalize.RankRecord, error) {
	rows, err := s.qry.ListRanks(ctx)
	if err != nil {
		return nil, err
	}
	return ranksFromRows(rows), nil
}

func (s *SQLStore) ListRanksForBook(ctx context.Context, id int64) ([]normalize.RankRecord, error) {
	rows, err := s.qry.ListRanksForBook(ctx, id)
	if err != nil {
		return nil, err
	}
	return ranksFromRows(rows), nil
}

func (s *SQLStore) InsertRanks(ctx context.Context, rows []normalize.RankRecord) error {
	if len(rows) == 0 {
		return nil
	}
	txqry, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return err
	}
	defer discard()

	for _, row := range rows {
		err := txqry.CreateRank(ctx, db.Rank{
			IDBook:       row.IDBook,
			Date:         row.Date,
			Category:     row.Category,
			Rank:         row.Rank,
			RankLastWeek: row.RankLastWeek,
			WeeksOnList:  row.WeeksOnList,
		})
		if err != nil {
			return err
		}
	}
	return commit()
}

func reviewsFromRows(rows []db.Review) []normalize.ReviewRecord {
	out := make([]normalize.ReviewRecord, len(rows))
	for i, row := range rows {
		out[i] = normalize.ReviewRecord{
			IDBook:   row.IDBook,
			IDReview: row.IDReview,
			Stars:    row.Stars,
			Title:    row.Title,
			Text:     row.Text,
			Date:     row.Date,
		}
	}
	return out
}

func (s *SQLStore) ListReviews(ctx context.Context) ([]normalize.ReviewRecord, error) {
	rows, err := s.qry.ListReviews(ctx)
	if err != nil {
		return nil, err
	}
	return reviewsFromRows(rows), nil
}

func (s *SQLStore) ListReviewsForBook(ctx context.Context, id int64) ([]normalize.ReviewRecord, error) {
	rows, err := s.qry.ListReviewsForBook(ctx, id)
	if err != nil {
		return nil, err
	}
	return reviewsFromRows(rows), nil
}

func (s *SQLStore) InsertReviews(ctx context.Context, rows []normalize.ReviewRecord) error {
	if len(rows) == 0 {
		return nil
	}
	txqry, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return err
	}
	defer discard()

	for _, row := range rows {
		err := txqry.CreateReview(ctx, db.Review{
			IDBook:   row.IDBook,
			IDReview: row.IDReview,
			Stars:    row.Stars,
			Title:    row.Title,
			Text:     row.Text,
			Date:     row.Date,
		})
		if err != nil {
			return err
		}
	}
	return commit()
}
