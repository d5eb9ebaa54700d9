package nyt

import (
	"encoding/json"
	"fmt"
	"strings"
)

const AppleBooksLink = "Apple Books"

// ListName is one entry of the list-names endpoint.
type ListName struct {
	ListName            string `json:"list_name"`
	DisplayName         string `json:"display_name"`
	ListNameEncoded     string `json:"list_name_encoded"`
	OldestPublishedDate string `json:"oldest_published_date"`
	NewestPublishedDate string `json:"newest_published_date"`
	Updated             string `json:"updated"`
}

// PathName is the list name as it appears in the per-list endpoint path.
func (l ListName) PathName() string {
	if l.ListNameEncoded != "" {
		return l.ListNameEncoded
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(l.ListName)), " ", "-")
}

type ISBN struct {
	ISBN10 string `json:"isbn10"`
	ISBN13 string `json:"isbn13"`
}

type BuyLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Price accepts both the quoted ("0.00") and the bare (0) form the api has used.
type Price string

func (p *Price) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Price(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	*p = Price(n.String())
	return nil
}

// Book is one catalog row: a bestseller entry for a category on a given date.
//
// Pointer and slice fields are nil when the upstream row did not carry them. The
// rank fields and the two tags are kept raw, their types are checked when the rank
// row is built.
type Book struct {
	AmazonProductURL *string   `json:"amazon_product_url"`
	Title            *string   `json:"title"`
	Author           *string   `json:"author"`
	ISBNs            []ISBN    `json:"isbns"`
	BookURI          *string   `json:"book_uri"`
	Contributor      *string   `json:"contributor"`
	Description      *string   `json:"description"`
	Publisher        *string   `json:"publisher"`
	Price            *Price    `json:"price"`
	Dagger           *int      `json:"dagger"`
	Asterisk         *int      `json:"asterisk"`
	BuyLinks         []BuyLink `json:"buy_links"`

	Rank         json.RawMessage `json:"rank,omitempty"`
	RankLastWeek json.RawMessage `json:"rank_last_week,omitempty"`
	WeeksOnList  json.RawMessage `json:"weeks_on_list,omitempty"`

	Category        json.RawMessage `json:"category,omitempty"`
	BestsellersDate json.RawMessage `json:"bestsellers_date,omitempty"`
}

// ProductURL returns the linked product page, the join key across sources.
func (b Book) ProductURL() string {
	if b.AmazonProductURL == nil {
		return ""
	}
	return *b.AmazonProductURL
}

// BuyLink returns the url of the buy link with the given name.
func (b Book) BuyLink(name string) (string, bool) {
	for _, link := range b.BuyLinks {
		if link.Name == name {
			return link.URL, true
		}
	}
	return "", false
}

// Tag attaches the category and as-of date the row was fetched for.
func (b *Book) Tag(category, date string) {
	b.Category, _ = json.Marshal(category)
	b.BestsellersDate, _ = json.Marshal(date)
}

type listNamesResponse struct {
	Status  string     `json:"status"`
	Results []ListName `json:"results"`
}

type bestsellersResponse struct {
	Status  string `json:"status"`
	Results struct {
		ListName      string `json:"list_name"`
		PublishedDate string `json:"published_date"`
		Books         []Book `json:"books"`
	} `json:"results"`
}
