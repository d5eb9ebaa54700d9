package reconcile

import (
	"context"
	"errors"
	"fmt"
	"nytbestsellers/internal/scrapers/nyt"
	"nytbestsellers/internal/snapshot"
	"nytbestsellers/internal/store"
)

var ErrMalformedSnapshot = errors.New("reconcile: snapshot has no rows")

// Index is the read side of the store reconciliation needs.
type Index interface {
	ListBookRefs(ctx context.Context) ([]store.BookRef, error)
}

// nextItem picks the first product url of rows, in snapshot order, that is not
// stored yet. The id is one past the largest stored id, 1 on an empty store.
func nextItem(refs []store.BookRef, rows []nyt.Book) (int64, string) {
	stored := make(map[string]struct{}, len(refs))
	var maxID int64
	for _, ref := range refs {
		stored[ref.URL] = struct{}{}
		maxID = max(maxID, ref.ID)
	}
	newID := maxID + 1

	for _, url := range snapshot.ProductURLs(rows) {
		if _, ok := stored[url]; !ok {
			return newID, url
		}
	}
	return newID, ""
}

// IdentifyNextItem reads the snapshot at path and returns the next id and
// the first product url the store does not know. An empty url means every
// url of the snapshot is stored already.
func IdentifyNextItem(ctx context.Context, path string, index Index) (int64, string, error) {
	rows, err := snapshot.ReadSnapshot(path)
	if err != nil {
		return 0, "", fmt.Errorf("read snapshot: %w", err)
	}
	if len(rows) == 0 {
		return 0, "", fmt.Errorf("%w: %s", ErrMalformedSnapshot, path)
	}
	refs, err := index.ListBookRefs(ctx)
	if err != nil {
		return 0, "", fmt.Errorf("list books: %w", err)
	}
	newID, url := nextItem(refs, rows)
	return newID, url, nil
}
