package apple

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"nytbestsellers/internal/components/telemetry"
	"os"
	"path/filepath"
)

var labelsHeader = []string{"url", "genre"}

// LabelTable maps apple books urls to their category label, it keeps the
// order urls were first labeled in.
type LabelTable struct {
	labels map[string]string
	order  []string
}

func NewLabelTable() *LabelTable {
	return &LabelTable{labels: map[string]string{}}
}

func (t *LabelTable) Get(url string) (string, bool) {
	label, ok := t.labels[url]
	return label, ok
}

func (t *LabelTable) Set(url, label string) {
	if _, ok := t.labels[url]; !ok {
		t.order = append(t.order, url)
	}
	t.labels[url] = label
}

func (t *LabelTable) Len() int {
	return len(t.order)
}

func (t *LabelTable) URLs() []string {
	return append([]string(nil), t.order...)
}

func (t *LabelTable) clone() *LabelTable {
	out := NewLabelTable()
	for _, url := range t.order {
		out.Set(url, t.labels[url])
	}
	return out
}

// ReadLabelTable reads a "url,genre" csv, a missing file is an empty table.
func ReadLabelTable(path string) (*LabelTable, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewLabelTable(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeLabelTable(f)
}

func decodeLabelTable(r io.Reader) (*LabelTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(labelsHeader)

	table := NewLabelTable()
	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode labels: %w", err)
		}
		if header {
			header = false
			if record[0] == labelsHeader[0] && record[1] == labelsHeader[1] {
				continue
			}
		}
		table.Set(record[0], record[1])
	}
	return table, nil
}

// Write replaces the file at path with the table.
func (t *LabelTable) Write(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".labels-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	records := [][]string{labelsHeader}
	for _, url := range t.order {
		records = append(records, []string{url, t.labels[url]})
	}
	err = writer.WriteAll(records)
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

type labelScraper interface {
	ScrapeCategoryLabel(ctx context.Context, url string) (string, error)
}

// RefreshLabels labels every url the table does not know yet, urls that fail
// are reported and left out so a later refresh retries them.
func RefreshLabels(ctx context.Context, scraper labelScraper, existing *LabelTable, urls []string, tel telemetry.API) (*LabelTable, error) {
	updated := existing.clone()
	for _, url := range urls {
		if _, ok := updated.Get(url); ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		label, err := scraper.ScrapeCategoryLabel(ctx, url)
		if err != nil {
			tel.ReportWarning(report_client_scrape_label, err, url)
			continue
		}
		updated.Set(url, label)
	}
	tel.ReportCount(report_client_scrape_label, int64(updated.Len()-existing.Len()))
	return updated, nil
}

// RefreshLabelsFile runs RefreshLabels against the table stored at path and
// writes the union back.
func (c *Client) RefreshLabelsFile(ctx context.Context, path string, urls []string) (*LabelTable, error) {
	existing, err := ReadLabelTable(path)
	if err != nil {
		return nil, err
	}
	updated, err := RefreshLabels(ctx, c, existing, urls, c.tel)
	if err != nil {
		return nil, err
	}
	err = updated.Write(path)
	if err != nil {
		return nil, fmt.Errorf("write labels: %w", err)
	}
	return updated, nil
}
