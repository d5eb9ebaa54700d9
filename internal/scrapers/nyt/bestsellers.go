package nyt

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
)

func (c *Client) fetchList(ctx context.Context, category ListName, date string) ([]Book, error) {
	path := fmt.Sprintf("/lists/%s/%s.json", date, url.PathEscape(category.PathName()))
	var res bestsellersResponse
	err := c.get(ctx, path, &res)
	if err != nil {
		return nil, err
	}
	return res.Results.Books, nil
}

// executeCell runs the fetch through the breaker. While the breaker is open the
// cell waits out the open period and tries again, it is never skipped unfetched.
func (c *Client) executeCell(ctx context.Context, category ListName, date string) ([]Book, error) {
	for {
		books, err := c.breaker.Execute(func() ([]Book, error) {
			return c.fetchList(ctx, category, date)
		})
		if !errors.Is(err, gobreaker.ErrOpenState) && !errors.Is(err, gobreaker.ErrTooManyRequests) {
			return books, err
		}
		c.tel.ReportDebug("breaker open, waiting", category.ListName, date, c.breakerTimeout)
		err = c.clock.Sleep(ctx, c.breakerTimeout)
		if err != nil {
			return nil, err
		}
	}
}

// fetchCell does not fail on upstream errors, a cell that cannot be fetched is
// reported and counts as empty.
func (c *Client) fetchCell(ctx context.Context, category ListName, date string) ([]Book, error) {
	books, err := c.executeCell(ctx, category, date)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		c.tel.ReportBroken(
			report_client_fetch_bestsellers,
			fmt.Errorf("fetch list: %w", err),
			category.ListName,
			date,
		)
		return nil, nil
	}

	for i := range books {
		books[i].Tag(category.ListName, date)
	}
	return books, nil
}

// FetchBestsellers sweeps every category for every date of the period and returns the
// tagged rows in sweep order. Calls are spaced by at least the client's request delay.
func (c *Client) FetchBestsellers(ctx context.Context, categories []ListName, period Period) ([]Book, error) {
	ctx, span := tracer.Start(ctx, "FetchBestsellers")
	defer span.End()

	dates := period.Dates()
	span.SetAttributes(
		attribute.String("period", period.String()),
		attribute.Int("dates", len(dates)),
		attribute.Int("categories", len(categories)),
	)

	out := []Book{}
	for _, date := range dates {
		for _, category := range categories {
			books, err := c.fetchCell(ctx, category, date)
			if err != nil {
				return out, err
			}
			out = append(out, books...)
		}
	}

	c.tel.ReportCount(report_client_fetch_bestsellers, int64(len(out)))
	return out, nil
}
