package fuzzing

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"nytbestsellers/internal/components/telemetry"
	"nytbestsellers/internal/db"
	"nytbestsellers/internal/loader"
	"nytbestsellers/internal/normalize"
	"nytbestsellers/internal/store"
	"nytbestsellers/pkg/migrations"
)

// steps:
// - LoadNew: records of a book the store has never seen, with repeated rows
// - Reload: the exact records of a loaded book again
// - Extend: a loaded book with a mix of stored and new rows
// - ConflictingURL: a new id carrying the url of a loaded book
// - ConflictingID: the id of a loaded book carrying a new url
//
// properties of the system:
// - a load inserts exactly the rows whose key is neither stored nor repeated
//     earlier in the batch
// - loading the same records twice changes nothing
// - a url is stored under one id only and an id holds one url, a conflicting
//     load writes nothing
// - at the end, the store holds every key of the model once and nothing else

var (
	rankDates      = []string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22"}
	rankCategories = []string{"hardcover-fiction", "hardcover-nonfiction", "audio-fiction"}
	reviewDates    = []string{"2023-12-30", "2024-01-02", "2024-01-09"}
)

type loaderTarget struct {
	tel    telemetry.API
	rndm   *rand.Rand
	store  store.Store
	loader loader.Loader

	nextID  int64
	loaded  []normalize.Records
	urls    map[string]int64
	ranks   map[string]struct{}
	reviews map[string]struct{}

	// 0: a row of the book that was loaded before
	// 1: a fresh row
	rowAction func(*rand.Rand) int
}

type LoaderProvider struct{}

func (LoaderProvider) CreateTarget(tel telemetry.API, rndm *rand.Rand) (Target, error) {
	sqlDB, err := migrations.OpenAndMigrateDB(db.Schema, ":memory:")
	if err != nil {
		return nil, err
	}
	st := store.NewSQLStore(sqlDB)

	return &loaderTarget{
		tel:       tel,
		rndm:      rndm,
		store:     st,
		loader:    loader.NewLoader(st, telemetry.NoopAPI{}),
		nextID:    1,
		urls:      map[string]int64{},
		ranks:     map[string]struct{}{},
		reviews:   map[string]struct{}{},
		rowAction: RandomSwitch(1, 1),
	}, nil
}

func (t *loaderTarget) randomRanks(id int64, n int) []normalize.RankRecord {
	rows := make([]normalize.RankRecord, n)
	for i := range rows {
		rows[i] = normalize.RankRecord{
			IDBook:       id,
			Date:         pick(t.rndm, rankDates),
			Category:     pick(t.rndm, rankCategories),
			Rank:         int64(t.rndm.IntN(15) + 1),
			RankLastWeek: int64(t.rndm.IntN(16)),
			WeeksOnList:  int64(t.rndm.IntN(52)),
		}
	}
	return rows
}

func (t *loaderTarget) randomReviews(id int64, n int) []normalize.ReviewRecord {
	rows := make([]normalize.ReviewRecord, n)
	for i := range rows {
		rows[i] = normalize.ReviewRecord{
			IDBook:   id,
			IDReview: int64(t.rndm.IntN(20) + 1),
			Stars:    float64(t.rndm.IntN(5) + 1),
			Title:    fmt.Sprintf("review %d", i),
			Text:     randomASIN(t.rndm),
			Date:     pick(t.rndm, reviewDates),
		}
	}
	return rows
}

func (t *loaderTarget) newRecords(id int64, url string) normalize.Records {
	return normalize.Records{
		Book: normalize.Book{
			ID: id,
			BookData: normalize.BookData{
				URL:   url,
				Title: fmt.Sprintf("book %d", id),
			},
		},
		Ranks:   t.randomRanks(id, t.rndm.IntN(6)),
		Reviews: t.randomReviews(id, t.rndm.IntN(8)),
	}
}

// expectFresh counts the keys not in model and not repeated, then adds them
// to model.
func expectFresh[T any](model map[string]struct{}, rows []T, key func(T) string) int {
	count := 0
	for _, row := range rows {
		k := key(row)
		if _, ok := model[k]; ok {
			continue
		}
		model[k] = struct{}{}
		count++
	}
	return count
}

func (t *loaderTarget) loadAndCheck(ctx context.Context, res *Results, step string, records normalize.Records, bookIsNew bool) {
	expectedRanks := expectFresh(t.ranks, records.Ranks, loader.RankKey)
	expectedReviews := expectFresh(t.reviews, records.Reviews, loader.ReviewKey)

	result, err := t.loader.Load(ctx, records)
	if err != nil {
		res.Fail(fmt.Errorf("%s.load: book %d: %w", step, records.Book.ID, err))
		return
	}
	if result.BookInserted != bookIsNew {
		res.Fail(fmt.Errorf("%s.book-inserted: book %d got %v, expected %v", step, records.Book.ID, result.BookInserted, bookIsNew))
	}
	if result.Ranks != expectedRanks {
		res.Fail(fmt.Errorf("%s.ranks: book %d inserted %d ranks, expected %d", step, records.Book.ID, result.Ranks, expectedRanks))
	}
	if result.Reviews != expectedReviews {
		res.Fail(fmt.Errorf("%s.reviews: book %d inserted %d reviews, expected %d", step, records.Book.ID, result.Reviews, expectedReviews))
	}
}

func (t *loaderTarget) StepLoadNew(ctx context.Context, res *Results) error {
	id := t.nextID
	url := fmt.Sprintf("https://www.amazon.com/dp/%s", randomASIN(t.rndm))
	if _, taken := t.urls[url]; taken {
		return nil
	}
	t.nextID++

	records := t.newRecords(id, url)
	t.tel.ReportDebug("+ book", id, url, len(records.Ranks), len(records.Reviews))

	t.loadAndCheck(ctx, res, "load-new", records, true)
	t.urls[url] = id
	t.loaded = append(t.loaded, records)
	return nil
}

func (t *loaderTarget) StepReload(ctx context.Context, res *Results) error {
	if len(t.loaded) == 0 {
		return nil
	}
	records := pick(t.rndm, t.loaded)
	t.tel.ReportDebug("= book", records.Book.ID)

	t.loadAndCheck(ctx, res, "reload", records, false)
	return nil
}

func (t *loaderTarget) StepExtend(ctx context.Context, res *Results) error {
	if len(t.loaded) == 0 {
		return nil
	}
	i := t.rndm.IntN(len(t.loaded))
	previous := t.loaded[i]
	fresh := t.newRecords(previous.Book.ID, previous.Book.URL)

	records := normalize.Records{Book: previous.Book}
	for _, row := range fresh.Ranks {
		if t.rowAction(t.rndm) == 0 && len(previous.Ranks) > 0 {
			row = pick(t.rndm, previous.Ranks)
		}
		records.Ranks = append(records.Ranks, row)
	}
	for _, row := range fresh.Reviews {
		if t.rowAction(t.rndm) == 0 && len(previous.Reviews) > 0 {
			row = pick(t.rndm, previous.Reviews)
		}
		records.Reviews = append(records.Reviews, row)
	}
	t.tel.ReportDebug("~ book", records.Book.ID, len(records.Ranks), len(records.Reviews))

	t.loadAndCheck(ctx, res, "extend", records, false)
	t.loaded[i].Ranks = append(t.loaded[i].Ranks, records.Ranks...)
	t.loaded[i].Reviews = append(t.loaded[i].Reviews, records.Reviews...)
	return nil
}

func (t *loaderTarget) StepConflictingURL(ctx context.Context, res *Results) error {
	if len(t.loaded) == 0 {
		return nil
	}
	previous := pick(t.rndm, t.loaded)
	records := t.newRecords(t.nextID, previous.Book.URL)
	t.tel.ReportDebug("! book", records.Book.ID, previous.Book.URL)

	before, err := t.store.ListRanks(ctx)
	if err != nil {
		return err
	}
	_, err = t.loader.Load(ctx, records)
	if !errors.Is(err, loader.ErrDuplicateURL) {
		res.Fail(fmt.Errorf("conflicting-url.error: book %d reusing %s got %v", records.Book.ID, previous.Book.URL, err))
	}
	after, err := t.store.ListRanks(ctx)
	if err != nil {
		return err
	}
	if len(after) != len(before) {
		res.Fail(fmt.Errorf("conflicting-url.writes: ranks went from %d to %d", len(before), len(after)))
	}
	return nil
}

func (t *loaderTarget) StepConflictingID(ctx context.Context, res *Results) error {
	if len(t.loaded) == 0 {
		return nil
	}
	previous := pick(t.rndm, t.loaded)
	url := fmt.Sprintf("https://www.amazon.com/dp/%s", randomASIN(t.rndm))
	if _, taken := t.urls[url]; taken {
		return nil
	}
	records := t.newRecords(previous.Book.ID, url)
	t.tel.ReportDebug("! id", records.Book.ID, url)

	before, err := t.store.ListRanks(ctx)
	if err != nil {
		return err
	}
	_, err = t.loader.Load(ctx, records)
	if !errors.Is(err, loader.ErrIDConflict) {
		res.Fail(fmt.Errorf("conflicting-id.error: book %d with %s got %v", records.Book.ID, url, err))
	}
	after, err := t.store.ListRanks(ctx)
	if err != nil {
		return err
	}
	if len(after) != len(before) {
		res.Fail(fmt.Errorf("conflicting-id.writes: ranks went from %d to %d", len(before), len(after)))
	}
	return nil
}

func (t *loaderTarget) OnEnd(ctx context.Context, res *Results) {
	defer t.store.Close()

	refs, err := t.store.ListBookRefs(ctx)
	if err != nil {
		res.Fail(fmt.Errorf("end.books: %w", err))
		return
	}
	if len(refs) != len(t.urls) {
		res.Fail(fmt.Errorf("end.books: store has %d books, expected %d", len(refs), len(t.urls)))
	}
	for _, ref := range refs {
		if t.urls[ref.URL] != ref.ID {
			res.Fail(fmt.Errorf("end.books: %s stored as %d, expected %d", ref.URL, ref.ID, t.urls[ref.URL]))
		}
	}

	ranks, err := t.store.ListRanks(ctx)
	if err != nil {
		res.Fail(fmt.Errorf("end.ranks: %w", err))
		return
	}
	checkUnique(res, "end.ranks", ranks, loader.RankKey, t.ranks)

	reviews, err := t.store.ListReviews(ctx)
	if err != nil {
		res.Fail(fmt.Errorf("end.reviews: %w", err))
		return
	}
	checkUnique(res, "end.reviews", reviews, loader.ReviewKey, t.reviews)
}

func checkUnique[T any](res *Results, name string, rows []T, key func(T) string, model map[string]struct{}) {
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		k := key(row)
		if _, ok := seen[k]; ok {
			res.Fail(fmt.Errorf("%s: key %s stored twice", name, k))
		}
		seen[k] = struct{}{}
	}
	if len(seen) != len(model) {
		res.Fail(fmt.Errorf("%s: store has %d keys, expected %d", name, len(seen), len(model)))
	}
}
