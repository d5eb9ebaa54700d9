package snapshot

import (
	"nytbestsellers/internal/scrapers/amazon"
	"nytbestsellers/internal/scrapers/nyt"
)

// EnrichedItem is the single book a collect run picked, along with everything
// the storefronts said about it.
type EnrichedItem struct {
	NewID      int64                  `json:"new_id"`
	NYTData    *nyt.Book              `json:"nyt_data"`
	AmazonData []amazon.ProductDetail `json:"amazon_data"`
	AppleData  *string                `json:"apple_data"`
}

func (d Dir) SaveStaging(item EnrichedItem) error {
	if item.AmazonData == nil {
		item.AmazonData = []amazon.ProductDetail{}
	}
	return writeJson(d.StagingPath(), item)
}

func (d Dir) LoadStaging() (EnrichedItem, error) {
	var item EnrichedItem
	err := readJson(d.StagingPath(), &item)
	return item, err
}
