package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"nytbestsellers/internal/normalize"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema_postgres.sql
var PostgresSchema string

// PostgresStore keeps book documents as jsonb.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 4
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	_, err = pool.Exec(ctx, PostgresSchema)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListBookRefs(ctx context.Context) ([]BookRef, error) {
	rows, err := s.pool.Query(ctx, `select id, data->>'url' from book order by id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (BookRef, error) {
		var ref BookRef
		var url *string
		err := row.Scan(&ref.ID, &url)
		if url != nil {
			ref.URL = *url
		}
		return ref, err
	})
}

func (s *PostgresStore) InsertBook(ctx context.Context, book normalize.Book) error {
	document, err := book.Document()
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `insert into book (id, data) values ($1, $2)`, book.ID, string(document))
	return err
}

func (s *PostgresStore) LatestBook(ctx context.Context) (normalize.Book, error) {
	var id int64
	var document []byte
	err := s.pool.QueryRow(ctx, `select id, data from book order by id desc limit 1`).Scan(&id, &document)
	if errors.Is(err, pgx.ErrNoRows) {
		return normalize.Book{}, ErrNotFound
	}
	if err != nil {
		return normalize.Book{}, err
	}
	return normalize.BookFromDocument(id, document)
}

const selectRanks = `select id_book, date, category, rank, rank_last_week, weeks_on_list from rank`

func scanRank(row pgx.CollectableRow) (normalize.RankRecord, error) {
	var r normalize.RankRecord
	err := row.Scan(&r.IDBook, &r.Date, &r.Category, &r.Rank, &r.RankLastWeek, &r.WeeksOnList)
	return r, err
}

func (s *PostgresStore) ListRanks(ctx context.Context) ([]normalize.RankRecord, error) {
	rows, err := s.pool.Query(ctx, selectRanks+` order by id_book, date, category`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanRank)
}

func (s *PostgresStore) ListRanksForBook(ctx context.Context, id int64) ([]normalize.RankRecord, error) {
	rows, err := s.pool.Query(ctx, selectRanks+` where id_book = $1 order by date, category`, id)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanRank)
}

// sendInTx runs the batch inside one transaction.
func (s *PostgresStore) sendInTx(ctx context.Context, batch *pgx.Batch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.SendBatch(ctx, batch).Close()
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) InsertRanks(ctx context.Context, rows []normalize.RankRecord) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(
			`insert into rank (id_book, date, category, rank, rank_last_week, weeks_on_list)
			values ($1, $2, $3, $4, $5, $6)`,
			r.IDBook, r.Date, r.Category, r.Rank, r.RankLastWeek, r.WeeksOnList,
		)
	}
	return s.sendInTx(ctx, batch)
}

const selectReviews = `select id_book, id_review, stars, title, text, date from review`

func scanReview(row pgx.CollectableRow) (normalize.ReviewRecord, error) {
	var r normalize.ReviewRecord
	err := row.Scan(&r.IDBook, &r.IDReview, &r.Stars, &r.Title, &r.Text, &r.Date)
	return r, err
}

func (s *PostgresStore) ListReviews(ctx context.Context) ([]normalize.ReviewRecord, error) {
	rows, err := s.pool.Query(ctx, selectReviews+` order by id_book, id_review`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanReview)
}

func (s *PostgresStore) ListReviewsForBook(ctx context.Context, id int64) ([]normalize.ReviewRecord, error) {
	rows, err := s.pool.Query(ctx, selectReviews+` where id_book = $1 order by id_review`, id)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanReview)
}

func (s *PostgresStore) InsertReviews(ctx context.Context, rows []normalize.ReviewRecord) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"review"},
		[]string{"id_book", "id_review", "stars", "title", "text", "date"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.IDBook, r.IDReview, r.Stars, r.Title, r.Text, r.Date}, nil
		}),
	)
	return err
}
