package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"nytbestsellers/internal/normalize"
	"nytbestsellers/internal/store"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var showReviews *int

func init() {
	showReviews = showCmd.Flags().Int("reviews", 3, "How many of the stored reviews to print.")
	rootCmd.AddCommand(showCmd)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func optional[T any](value *T) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprint(*value)
}

func renderBook(book normalize.Book) {
	t := newTable()
	t.AppendHeader(table.Row{"field", "value"})
	t.AppendRows([]table.Row{
		{"id", book.ID},
		{"title", book.Title},
		{"author", book.Author},
		{"publisher", book.Publisher},
		{"isbn13", strings.Join(book.ISBN13, ", ")},
		{"price", strings.Join(book.Price, ", ")},
		{"genre", optional(book.Genre)},
		{"rating", optional(book.Rating)},
		{"stars", optional(book.NumberOfStars)},
		{"pages", optional(book.NumberOfPages)},
		{"language", optional(book.Language)},
		{"published", optional(book.PublicationDate)},
		{"reviews", optional(book.ReviewsCount)},
		{"url", book.URL},
	})
	t.Render()
}

func renderRanks(ranks []normalize.RankRecord) {
	t := newTable()
	t.AppendHeader(table.Row{"date", "category", "rank", "last week", "weeks on list"})
	for _, r := range ranks {
		t.AppendRow(table.Row{r.Date, r.Category, r.Rank, r.RankLastWeek, r.WeeksOnList})
	}
	t.Render()
}

func renderReviews(reviews []normalize.ReviewRecord, limit int) {
	t := newTable()
	t.AppendHeader(table.Row{"#", "stars", "date", "title"})
	for i, r := range reviews {
		if i >= limit {
			break
		}
		t.AppendRow(table.Row{r.IDReview, r.Stars, r.Date, r.Title})
	}
	if len(reviews) > 0 {
		var total float64
		for _, r := range reviews {
			total += r.Stars
		}
		t.AppendFooter(table.Row{"", fmt.Sprintf("%.2f avg", total/float64(len(reviews))), "", fmt.Sprintf("%d stored", len(reviews))})
	}
	t.Render()
}

var showCmd = &cobra.Command{
	Use:   "show [--reviews <n>]",
	Short: "Prints the most recently loaded book with its ranks and reviews.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		st, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore(st)

		book, err := st.LatestBook(cmd.Context())
		if errors.Is(err, store.ErrNotFound) {
			slog.Info("the store is empty")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read latest book: %w", err)
		}
		ranks, err := st.ListRanksForBook(cmd.Context(), book.ID)
		if err != nil {
			return fmt.Errorf("read ranks: %w", err)
		}
		reviews, err := st.ListReviewsForBook(cmd.Context(), book.ID)
		if err != nil {
			return fmt.Errorf("read reviews: %w", err)
		}

		renderBook(book)
		renderRanks(ranks)
		renderReviews(reviews, *showReviews)
		return nil
	},
}
