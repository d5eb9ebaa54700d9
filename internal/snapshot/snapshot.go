package snapshot

import (
	"errors"
	"fmt"
	"nytbestsellers/internal/components/assert"
	"nytbestsellers/internal/scrapers/nyt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// StagingFile is the name of the enriched item collect hands over to transform.
const StagingFile = "raw_data.json"

// FileName is the name of the raw bestseller snapshot of a period, unset month
// and day are written as 0.
func FileName(period nyt.Period) string {
	return fmt.Sprintf("best_sellers_%d_%d_%d.json", period.Year, period.Month, period.Day)
}

// Dir is the raw data directory, it holds one snapshot per period and the
// staging record.
type Dir struct {
	Path string
}

func NewDir(path string) Dir {
	assert.NotEmptyStr(path)
	return Dir{Path: path}
}

func (d Dir) SnapshotPath(period nyt.Period) string {
	return filepath.Join(d.Path, FileName(period))
}

func (d Dir) StagingPath() string {
	return filepath.Join(d.Path, StagingFile)
}

func (d Dir) HasSnapshot(period nyt.Period) (bool, error) {
	_, err := os.Stat(d.SnapshotPath(period))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d Dir) SaveSnapshot(period nyt.Period, rows []nyt.Book) error {
	if rows == nil {
		rows = []nyt.Book{}
	}
	return writeJson(d.SnapshotPath(period), rows)
}

func (d Dir) LoadSnapshot(period nyt.Period) ([]nyt.Book, error) {
	return ReadSnapshot(d.SnapshotPath(period))
}

// ReadSnapshot reads the flat list of bestseller rows stored at path.
func ReadSnapshot(path string) ([]nyt.Book, error) {
	var rows []nyt.Book
	err := readJson(path, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func readJson(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	err = json.Unmarshal(raw, out)
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJson writes through a temporary file so that a crash never leaves a
// half written file behind, collection treats an existing snapshot as final.
func writeJson(path string, value any) error {
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(raw)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
