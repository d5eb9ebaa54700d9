package loader

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"nytbestsellers/internal/normalize"
	"os"
	"path/filepath"
	"slices"
	"strconv"
)

const (
	BookFile   = "book.json"
	RankFile   = "rank.csv"
	ReviewFile = "review.csv"
)

var (
	rankHeader   = []string{"id_book", "date", "category", "rank", "rank_last_week", "weeks_on_list"}
	reviewHeader = []string{"id_book", "id_review", "stars", "title", "text", "date"}
)

func i64(v int64) string {
	return strconv.FormatInt(v, 10)
}

// WriteProcessed writes the three payloads into dir, replacing earlier ones.
func WriteProcessed(dir string, records normalize.Records) error {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	book, err := json.MarshalIndent(records.Book, "", "  ")
	if err != nil {
		return err
	}
	err = os.WriteFile(filepath.Join(dir, BookFile), book, 0644)
	if err != nil {
		return err
	}

	ranks := [][]string{rankHeader}
	for _, r := range records.Ranks {
		ranks = append(ranks, []string{
			i64(r.IDBook), r.Date, r.Category, i64(r.Rank), i64(r.RankLastWeek), i64(r.WeeksOnList),
		})
	}
	err = writeCsv(filepath.Join(dir, RankFile), ranks)
	if err != nil {
		return err
	}

	reviews := [][]string{reviewHeader}
	for _, r := range records.Reviews {
		reviews = append(reviews, []string{
			i64(r.IDBook), i64(r.IDReview), strconv.FormatFloat(r.Stars, 'f', -1, 64), r.Title, r.Text, r.Date,
		})
	}
	return writeCsv(filepath.Join(dir, ReviewFile), reviews)
}

func writeCsv(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = csv.NewWriter(f).WriteAll(records)
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readCsv(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(header)
	first, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: missing header", filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if !slices.Equal(first, header) {
		return nil, fmt.Errorf("%s: unexpected header %v", filepath.Base(path), first)
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// parser collects the first conversion error of a row.
type parser struct {
	err error
}

func (p *parser) int(field, value string) int64 {
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", field, err)
	}
	return v
}

func (p *parser) float(field, value string) float64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", field, err)
	}
	return v
}

// ReadProcessed reads back what WriteProcessed wrote.
func ReadProcessed(dir string) (normalize.Records, error) {
	var records normalize.Records

	raw, err := os.ReadFile(filepath.Join(dir, BookFile))
	if err != nil {
		return records, err
	}
	err = json.Unmarshal(raw, &records.Book)
	if err != nil {
		return records, fmt.Errorf("%s: %w", BookFile, err)
	}

	rankRows, err := readCsv(filepath.Join(dir, RankFile), rankHeader)
	if err != nil {
		return records, err
	}
	records.Ranks = []normalize.RankRecord{}
	for i, row := range rankRows {
		var p parser
		r := normalize.RankRecord{
			IDBook:       p.int("id_book", row[0]),
			Date:         row[1],
			Category:     row[2],
			Rank:         p.int("rank", row[3]),
			RankLastWeek: p.int("rank_last_week", row[4]),
			WeeksOnList:  p.int("weeks_on_list", row[5]),
		}
		if p.err != nil {
			return records, fmt.Errorf("%s line %d: %w", RankFile, i+2, p.err)
		}
		records.Ranks = append(records.Ranks, r)
	}

	reviewRows, err := readCsv(filepath.Join(dir, ReviewFile), reviewHeader)
	if err != nil {
		return records, err
	}
	records.Reviews = []normalize.ReviewRecord{}
	for i, row := range reviewRows {
		var p parser
		r := normalize.ReviewRecord{
			IDBook:   p.int("id_book", row[0]),
			IDReview: p.int("id_review", row[1]),
			Stars:    p.float("stars", row[2]),
			Title:    row[3],
			Text:     row[4],
			Date:     row[5],
		}
		if p.err != nil {
			return records, fmt.Errorf("%s line %d: %w", ReviewFile, i+2, p.err)
		}
		records.Reviews = append(records.Reviews, r)
	}

	return records, nil
}
