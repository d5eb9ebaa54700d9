package nyt

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	cadenceWeekly = "WEEKLY"
	// windowStartYear is the first year of the collection window, a list has to be
	// older than it to cover the whole window.
	windowStartYear = 2014
)

// FilterCategories keeps the weekly lists whose published range covers the collection
// window, that is lists first published before 2014 and still published in maxYear-1.
func FilterCategories(lists []ListName, maxYear int) []ListName {
	stop := maxYear - 1

	var out []ListName
	for _, l := range lists {
		if l.Updated != cadenceWeekly {
			continue
		}
		oldest, err := publishedYear(l.OldestPublishedDate)
		if err != nil {
			continue
		}
		newest, err := publishedYear(l.NewestPublishedDate)
		if err != nil {
			continue
		}
		if oldest < windowStartYear && newest >= stop {
			out = append(out, l)
		}
	}
	return out
}

func publishedYear(date string) (int, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}

// ListCategories fetches every list name and returns the ones FilterCategories keeps.
func (c *Client) ListCategories(ctx context.Context, maxYear int) ([]ListName, error) {
	ctx, span := tracer.Start(ctx, "ListCategories")
	defer span.End()

	var res listNamesResponse
	err := c.get(ctx, "/lists/names.json", &res)
	if err != nil {
		c.tel.ReportBroken(report_client_list_categories, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(res.Results) == 0 {
		return nil, fmt.Errorf("list names: %w", ErrEmptyUpstreamResponse)
	}

	categories := FilterCategories(res.Results, maxYear)
	span.SetAttributes(
		attribute.Int("lists", len(res.Results)),
		attribute.Int("categories", len(categories)),
	)
	c.tel.ReportCount(report_client_list_categories, int64(len(categories)))
	return categories, nil
}
