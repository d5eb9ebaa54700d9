package amazon

import (
	"errors"
	"fmt"
	"net/url"
	"nytbestsellers/lib/htmlutil"
	"nytbestsellers/lib/textutil"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	ratingsSummarySelector = "span#acrCustomerReviewText"
	reviewsCountSelector   = `[data-hook="cr-filter-info-review-rating-count"]`
	reviewSelector         = `div[data-hook="review"]`

	showAllReviewsMarker = "cm_cr_dp_d_show_all_btm"
)

var ErrElementNotFound = errors.New("amazon: element not found")

func hasRatingsSummary(doc *goquery.Document) bool {
	return doc.Find(ratingsSummarySelector).Length() > 0
}

func fieldAt(fields []string, index int) *string {
	if index < 0 {
		index += len(fields)
	}
	if index < 0 || index >= len(fields) {
		return nil
	}
	value := fields[index]
	return &value
}

// parseProductPage reads the product attributes off a product page, an
// attribute that is missing or unreadable is left nil and reported in the
// returned error list.
func parseProductPage(doc *goquery.Document, productUrl string) (ProductDetail, []error) {
	detail := ProductDetail{URL: productUrl}
	var problems []error

	field := func(name, selector string, index int) *string {
		value := fieldAt(htmlutil.FirstFields(doc.Find(selector)), index)
		if value == nil {
			problems = append(problems, fmt.Errorf("%w: %s (%s)", ErrElementNotFound, name, selector))
		}
		return value
	}

	detail.Rating = field("rating", ratingsSummarySelector, 0)
	detail.NumberOfStars = field("number_of_stars", "span.a-icon-alt", 0)
	detail.NumberOfPages = field("number_of_pages", "#rpi-attribute-book_details-fiona_pages", -2)
	detail.Language = field("language", "#rpi-attribute-language", 1)
	detail.ISBN10 = field("ISBN-10", "#rpi-attribute-book_details-isbn10", -1)
	detail.ISBN13 = field("ISBN-13", "#rpi-attribute-book_details-isbn13", -1)

	if price, ok := htmlutil.FirstText(doc.Find("span.a-size-base.a-color-price")); ok && price != "" {
		detail.Price = &price
	} else {
		problems = append(problems, fmt.Errorf("%w: price", ErrElementNotFound))
	}

	if title, ok := htmlutil.FirstText(doc.Find("#productTitle")); ok && title != "" {
		detail.Title = &title
	} else {
		problems = append(problems, fmt.Errorf("%w: title", ErrElementNotFound))
	}

	dateFields := htmlutil.FirstFields(doc.Find("#rpi-attribute-book_details-publication_date"))
	if len(dateFields) >= 3 {
		date, err := textutil.ParseLongDate(strings.Join(dateFields[len(dateFields)-3:], " "))
		if err != nil {
			problems = append(problems, fmt.Errorf("publication date: %w", err))
		} else {
			detail.PublicationDate = &date
		}
	} else {
		problems = append(problems, fmt.Errorf("%w: publication_date", ErrElementNotFound))
	}

	return detail, problems
}

var digitGroupRegex = regexp.MustCompile(`\d+(?:,\d+)*`)

// parseReviewsCount reads "1,234 total ratings, 567 with reviews" and returns
// the second figure.
func parseReviewsCount(doc *goquery.Document) (int, error) {
	text, ok := htmlutil.FirstText(doc.Find(reviewsCountSelector))
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrElementNotFound, reviewsCountSelector)
	}
	groups := digitGroupRegex.FindAllString(text, -1)
	if len(groups) < 2 {
		return 0, fmt.Errorf("reviews count: unexpected text %q", text)
	}
	return strconv.Atoi(strings.ReplaceAll(groups[1], ",", ""))
}

func parseReview(sel *goquery.Selection) (Review, error) {
	text := func(selector string) (string, error) {
		value, ok := htmlutil.FirstText(sel.Find(selector))
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrElementNotFound, selector)
		}
		return value, nil
	}

	rawTitle, err := text(`[data-hook="review-title"]`)
	if err != nil {
		return Review{}, err
	}
	stars, err := text(`i[data-hook="review-star-rating"]`)
	if err != nil {
		return Review{}, err
	}
	date, err := text(`span[data-hook="review-date"]`)
	if err != nil {
		return Review{}, err
	}
	body, err := text(`span[data-hook="review-body"]`)
	if err != nil {
		return Review{}, err
	}

	// the title anchor starts with the star rating on its own line
	lines := textutil.NonEmptyLines(rawTitle)
	title := rawTitle
	if len(lines) > 1 {
		title = lines[1]
	}
	if len(stars) > 3 {
		stars = stars[:3]
	}

	return Review{
		Stars: stars,
		Title: title,
		Text:  body,
		Date:  date,
	}, nil
}

// parseReviews returns the reviews of a review page in page order, reviews
// missing one of their parts are skipped and reported.
func parseReviews(doc *goquery.Document) ([]Review, []error) {
	var reviews []Review
	var problems []error
	doc.Find(reviewSelector).Each(func(i int, sel *goquery.Selection) {
		review, err := parseReview(sel)
		if err != nil {
			problems = append(problems, fmt.Errorf("review %d: %w", i, err))
			return
		}
		reviews = append(reviews, review)
	})
	return reviews, problems
}

// ASIN extracts the product identifier from a product url, the last path
// segment stripped of its query.
func ASIN(productUrl string) string {
	segments := strings.Split(productUrl, "/")
	last := segments[len(segments)-1]
	last, _, _ = strings.Cut(last, "=")
	last, _, _ = strings.Cut(last, "?")
	return last
}

// NextReviewPageUrl turns the "see more reviews" url into the url of the n-th
// page of reviews.
func NextReviewPageUrl(base string, page int) string {
	paged := strings.ReplaceAll(
		base,
		showAllReviewsMarker,
		fmt.Sprintf("cm_cr_arp_d_paging_btm_next_%d", page),
	)
	return fmt.Sprintf("%s&pageNumber=%d", paged, page)
}

func resolveHref(pageUrl, href string) string {
	base, err := url.Parse(pageUrl)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
