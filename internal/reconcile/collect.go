package reconcile

import (
	"context"
	"fmt"
	"nytbestsellers/internal/components/assert"
	"nytbestsellers/internal/components/telemetry"
	"nytbestsellers/internal/normalize"
	"nytbestsellers/internal/scrapers/amazon"
	"nytbestsellers/internal/scrapers/nyt"
	"nytbestsellers/internal/snapshot"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("internal/reconcile")

const (
	report_engine_collect     = "engine.collect-for-period"
	report_engine_title_check = "engine.title-check"
)

type BestsellerSource interface {
	ListCategories(ctx context.Context, maxYear int) ([]nyt.ListName, error)
	FetchBestsellers(ctx context.Context, categories []nyt.ListName, period nyt.Period) ([]nyt.Book, error)
}

type ProductScraper interface {
	ScrapeProduct(ctx context.Context, url string) (amazon.ProductDetail, error)
}

type LabelScraper interface {
	ScrapeCategoryLabel(ctx context.Context, url string) (string, error)
}

type Engine struct {
	bestsellers BestsellerSource
	products    ProductScraper
	labels      LabelScraper
	index       Index
	raw         snapshot.Dir
	tel         telemetry.API
}

func NewEngine(
	bestsellers BestsellerSource,
	products ProductScraper,
	labels LabelScraper,
	index Index,
	raw snapshot.Dir,
	tel telemetry.API,
) Engine {
	assert.NotNil(bestsellers)
	assert.NotNil(products)
	assert.NotNil(labels)
	assert.NotNil(index)
	assert.NotNil(tel)

	return Engine{
		bestsellers: bestsellers,
		products:    products,
		labels:      labels,
		index:       index,
		raw:         raw,
		tel:         telemetry.NewScopedAPI("engine", tel),
	}
}

// ensureSnapshot downloads the bestsellers of the period unless a snapshot of
// it exists, an existing snapshot is never fetched again.
func (e Engine) ensureSnapshot(ctx context.Context, period nyt.Period) ([]nyt.Book, error) {
	exists, err := e.raw.HasSnapshot(period)
	if err != nil {
		return nil, err
	}
	if exists {
		e.tel.ReportDebug("reusing snapshot", e.raw.SnapshotPath(period))
		return e.raw.LoadSnapshot(period)
	}

	categories, err := e.bestsellers.ListCategories(ctx, period.Year)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	rows, err := e.bestsellers.FetchBestsellers(ctx, categories, period)
	if err != nil {
		return nil, fmt.Errorf("fetch bestsellers: %w", err)
	}
	err = e.raw.SaveSnapshot(period, rows)
	if err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return rows, nil
}

func findRow(rows []nyt.Book, url string) *nyt.Book {
	for i := range rows {
		if rows[i].ProductURL() == url {
			row := rows[i]
			return &row
		}
	}
	return nil
}

func (e Engine) checkTitle(row *nyt.Book, detail amazon.ProductDetail) {
	if row == nil || row.Title == nil || detail.Title == nil {
		return
	}
	similarity := normalize.TitleSimilarity(*row.Title, *detail.Title)
	if similarity < normalize.TitleMatchThreshold {
		e.tel.ReportWarning(
			report_engine_title_check,
			"product title diverges from catalog title",
			*row.Title,
			*detail.Title,
			similarity,
		)
	}
}

// CollectForPeriod makes sure the period has a snapshot, picks the next
// unstored book of it, enriches it from both storefronts and writes the
// staging record. It returns nil when every book of the period is stored.
func (e Engine) CollectForPeriod(ctx context.Context, period nyt.Period) (*snapshot.EnrichedItem, error) {
	ctx, span := tracer.Start(ctx, "CollectForPeriod")
	defer span.End()
	span.SetAttributes(attribute.String("period", period.String()))

	item, err := e.collect(ctx, period)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to collect")
		return nil, err
	}
	return item, nil
}

func (e Engine) collect(ctx context.Context, period nyt.Period) (*snapshot.EnrichedItem, error) {
	rows, err := e.ensureSnapshot(ctx, period)
	if err != nil {
		return nil, err
	}

	newID, url, err := IdentifyNextItem(ctx, e.raw.SnapshotPath(period), e.index)
	if err != nil {
		return nil, err
	}
	if url == "" {
		e.tel.ReportDebug("no new items", period.String())
		return nil, nil
	}
	e.tel.ReportDebug("next item", newID, url)

	detail, err := e.products.ScrapeProduct(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("scrape product: %w", err)
	}

	row := findRow(rows, url)
	e.checkTitle(row, detail)

	var label *string
	if row != nil {
		appleUrl, ok := row.BuyLink(nyt.AppleBooksLink)
		if ok && appleUrl != "" {
			value, err := e.labels.ScrapeCategoryLabel(ctx, appleUrl)
			if err != nil {
				return nil, fmt.Errorf("scrape category label: %w", err)
			}
			label = &value
		}
	}

	item := snapshot.EnrichedItem{
		NewID:      newID,
		NYTData:    row,
		AmazonData: []amazon.ProductDetail{detail},
		AppleData:  label,
	}
	err = e.raw.SaveStaging(item)
	if err != nil {
		return nil, fmt.Errorf("save staging: %w", err)
	}
	e.tel.ReportCount(report_engine_collect, 1)
	return &item, nil
}
