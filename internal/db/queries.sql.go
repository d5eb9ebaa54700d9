package db

import (
	"context"
	"database/sql"
)

const createBook = `-- name: CreateBook :exec
insert into book (id, data) values (?, ?)
`

type CreateBookParams struct {
	ID   int64
	Data string
}

func (q *Queries) CreateBook(ctx context.Context, arg CreateBookParams) error {
	_, err := q.db.ExecContext(ctx, createBook, arg.ID, arg.Data)
	return err
}

const listBookRefs = `-- name: ListBookRefs :many
select id, json_extract(data, '$.url') as url from book
order by id
`

type ListBookRefsRow struct {
	ID  int64
	Url sql.NullString
}

func (q *Queries) ListBookRefs(ctx context.Context) ([]ListBookRefsRow, error) {
	rows, err := q.db.QueryContext(ctx, listBookRefs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListBookRefsRow
	for rows.Next() {
		var i ListBookRefsRow
		if err := rows.Scan(&i.ID, &i.Url); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLatestBook = `-- name: GetLatestBook :one
select id, data from book
order by id desc
limit 1
`

func (q *Queries) GetLatestBook(ctx context.Context) (Book, error) {
	row := q.db.QueryRowContext(ctx, getLatestBook)
	var i Book
	err := row.Scan(&i.ID, &i.Data)
	return i, err
}

const createRank = `-- name: CreateRank :exec
insert into rank (id_book, date, category, rank, rank_last_week, weeks_on_list)
values (?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateRank(ctx context.Context, arg Rank) error {
	_, err := q.db.ExecContext(ctx, createRank,
		arg.IDBook,
		arg.Date,
		arg.Category,
		arg.Rank,
		arg.RankLastWeek,
		arg.WeeksOnList,
	)
	return err
}

const listRanks = `-- name: ListRanks :many
select id_book, date, category, rank, rank_last_week, weeks_on_list from rank
order by id_book, date, category
`

func (q *Queries) ListRanks(ctx context.Context) ([]Rank, error) {
	rows, err := q.db.QueryContext(ctx, listRanks)
	if err != nil {
		return nil, err
	}
	return scanRanks(rows)
}

const listRanksForBook = `-- name: ListRanksForBook :many
select id_book, date, category, rank, rank_last_week, weeks_on_list from rank
where id_book = ?
order by date, category
`

func (q *Queries) ListRanksForBook(ctx context.Context, idBook int64) ([]Rank, error) {
	rows, err := q.db.QueryContext(ctx, listRanksForBook, idBook)
	if err != nil {
		return nil, err
	}
	return scanRanks(rows)
}

func scanRanks(rows *sql.Rows) ([]Rank, error) {
	defer rows.Close()
	var items []Rank
	for rows.Next() {
		var i Rank
		if err := rows.Scan(
			&i.IDBook,
			&i.Date,
			&i.Category,
			&i.Rank,
			&i.RankLastWeek,
			&i.WeeksOnList,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createReview = `-- name: CreateReview :exec
insert into review (id_book, id_review, stars, title, text, date)
values (?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateReview(ctx context.Context, arg Review) error {
	_, err := q.db.ExecContext(ctx, createReview,
		arg.IDBook,
		arg.IDReview,
		arg.Stars,
		arg.Title,
		arg.Text,
		arg.Date,
	)
	return err
}

const listReviews = `-- name: ListReviews :many
select id_book, id_review, stars, title, text, date from review
order by id_book, id_review
`

func (q *Queries) ListReviews(ctx context.Context) ([]Review, error) {
	rows, err := q.db.QueryContext(ctx, listReviews)
	if err != nil {
		return nil, err
	}
	return scanReviews(rows)
}

const listReviewsForBook = `-- name: ListReviewsForBook :many
select id_book, id_review, stars, title, text, date from review
where id_book = ?
order by id_review
`

func (q *Queries) ListReviewsForBook(ctx context.Context, idBook int64) ([]Review, error) {
	rows, err := q.db.QueryContext(ctx, listReviewsForBook, idBook)
	if err != nil {
		return nil, err
	}
	return scanReviews(rows)
}

func scanReviews(rows *sql.Rows) ([]Review, error) {
	defer rows.Close()
	var items []Review
	for rows.Next() {
		var i Review
		if err := rows.Scan(
			&i.IDBook,
			&i.IDReview,
			&i.Stars,
			&i.Title,
			&i.Text,
			&i.Date,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
