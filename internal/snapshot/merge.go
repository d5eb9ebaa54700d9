package snapshot

import (
	"errors"
	"fmt"
	"nytbestsellers/internal/scrapers/nyt"
	"os"
	"path/filepath"
	"slices"
)

var ErrNoSnapshots = errors.New("snapshot: no snapshot files found")

// Merge concatenates every snapshot in dir, in file name order, into a single
// snapshot at out.
func Merge(dir, out string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "best_sellers_*.json"))
	if err != nil {
		return 0, err
	}
	outAbs, _ := filepath.Abs(out)
	paths = slices.DeleteFunc(paths, func(path string) bool {
		abs, _ := filepath.Abs(path)
		return abs == outAbs
	})
	if len(paths) == 0 {
		return 0, fmt.Errorf("%w in %s", ErrNoSnapshots, dir)
	}
	slices.Sort(paths)

	info, err := os.Stat(filepath.Dir(out))
	if err != nil {
		return 0, fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("output directory: %s is not a directory", filepath.Dir(out))
	}

	merged := []nyt.Book{}
	for _, path := range paths {
		rows, err := ReadSnapshot(path)
		if err != nil {
			return 0, err
		}
		merged = append(merged, rows...)
	}
	err = writeJson(out, merged)
	if err != nil {
		return 0, err
	}
	return len(merged), nil
}

// ProductURLs returns the distinct product urls of the rows in the order they
// first appear.
func ProductURLs(rows []nyt.Book) []string {
	return distinct(rows, func(row nyt.Book) string {
		return row.ProductURL()
	})
}

// BuyLinkURLs returns the distinct urls of the buy links with the given name.
func BuyLinkURLs(rows []nyt.Book, name string) []string {
	return distinct(rows, func(row nyt.Book) string {
		url, _ := row.BuyLink(name)
		return url
	})
}

func distinct(rows []nyt.Book, value func(nyt.Book) string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, row := range rows {
		v := value(row)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
